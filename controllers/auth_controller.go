package controllers

import (
	"log"
	"net/http"

	"stock_screener_backend/config"
	"stock_screener_backend/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AuthController handles login and token issuance
type AuthController struct{}

// NewAuthController creates a new auth controller
func NewAuthController() *AuthController {
	return &AuthController{}
}

// LoginRequest is the login payload
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials against the configured bcrypt hash and
// returns a signed JWT
// POST /api/v1/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg := config.AppConfig
	if cfg.AdminPasswordHash == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "auth_disabled",
			"message": "ADMIN_PASSWORD_HASH is not configured",
		})
		return
	}

	if req.Username != cfg.AdminUsername ||
		bcrypt.CompareHashAndPassword([]byte(cfg.AdminPasswordHash), []byte(req.Password)) != nil {
		log.Printf("Failed login attempt for user %q from %s", req.Username, c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "invalid_credentials",
			"message": "Invalid username or password",
		})
		return
	}

	token, err := middleware.IssueToken(req.Username, "admin")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int(middleware.TokenLifetime.Seconds()),
	})
}
