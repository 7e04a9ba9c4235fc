package routes

import (
	"stock_screener_backend/controllers"
	"stock_screener_backend/middleware"
	"stock_screener_backend/services/realtime"

	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up all API routes
func SetupRoutes(router *gin.Engine, screenerController *controllers.ScreenerController, hub *realtime.ProgressHub) {
	authController := controllers.NewAuthController()
	middleware.InitLoginRateLimiter()

	// API v1 group
	api := router.Group("/api/v1")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", middleware.LoginRateLimitMiddleware(), authController.Login)
		}

		// Screener routes; mutating endpoints require a token
		scr := api.Group("/screener")
		{
			scr.GET("/presets", screenerController.GetPresets)
			scr.GET("/symbols", screenerController.GetSymbols)
			scr.GET("/runs", screenerController.GetRuns)
			scr.GET("/runs/:id", screenerController.GetRun)

			protected := scr.Group("")
			protected.Use(middleware.JWTAuthMiddleware())
			{
				protected.POST("/screen", screenerController.Screen)
				protected.POST("/presets/:id", screenerController.RunPreset)
			}
		}

		// Live screening progress over WebSocket
		api.GET("/ws/progress", func(c *gin.Context) {
			hub.HandleWebSocket(c.Writer, c.Request)
		})
	}
}
