package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"stock_screener_backend/config"
	"stock_screener_backend/controllers"
	"stock_screener_backend/models"
	"stock_screener_backend/routes"
	"stock_screener_backend/scheduler"
	"stock_screener_backend/services"
	"stock_screener_backend/services/barstore"
	"stock_screener_backend/services/cache"
	"stock_screener_backend/services/fetch"
	"stock_screener_backend/services/pricestore"
	"stock_screener_backend/services/realtime"
	"stock_screener_backend/services/screener"

	"github.com/gin-gonic/gin"
)

// dbInitialized tracks whether database has been successfully initialized
// so the /ready health endpoint can report readiness dynamically
var dbInitialized bool
var dbInitMutex sync.RWMutex

func main() {
	log.Println("==============================================")
	log.Println("  Stock Screener Backend - Starting...")
	log.Println("==============================================")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("Warning: Config load issue: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Add middlewares
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestLogger())

	// Setup health check endpoints FIRST so the platform can detect the
	// service is up; database is initialized in background
	setupHealthEndpoints(router)

	// Create HTTP server with timeouts suited to long screening calls
	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	// Start server IMMEDIATELY so the platform knows we're listening
	go func() {
		log.Printf("Server listening on 0.0.0.0:%s", cfg.Port)
		log.Println("==============================================")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Initialize database, services and routes in background
	var jobScheduler *scheduler.Scheduler
	var hub *realtime.ProgressHub
	go func() {
		// Initialize database connection
		db, err := config.InitDB()
		if err != nil {
			log.Printf("ERROR: Database connection failed: %v", err)
			log.Println("Service will continue in limited mode (health check only)")
			return
		}

		// Run database migrations
		log.Println("Running database migrations...")
		if err := db.AutoMigrate(models.MigrateModels...); err != nil {
			log.Printf("ERROR: Migration failed: %v", err)
		} else {
			log.Println("Database migrations completed successfully")
		}

		// Local sqlite mirror of fetched bars
		store, err := pricestore.Open(cfg.BarStorePath)
		if err != nil {
			log.Printf("Warning: Local bar store unavailable: %v", err)
			store = nil
		}

		// Fetch pipeline: provider client -> orchestrator -> engine
		client := barstore.NewHTTPClient(cfg.ProviderBaseURL, cfg.ProviderAPIKey)
		orchestrator := fetch.New(client, store, fetch.Options{
			MaxConcurrent: cfg.MaxConcurrentFetches,
			RetryAttempts: cfg.FetchRetryAttempts,
			RetryDelay:    time.Duration(cfg.FetchRetryDelayMs) * time.Millisecond,
		})

		hub = realtime.NewProgressHub()
		orchestrator.OnProgress = func(symbol string, ok bool, completed, total int) {
			hub.PublishProgress(realtime.ProgressEvent{
				Symbol:    symbol,
				OK:        ok,
				Completed: completed,
				Total:     total,
			})
		}

		analyzer := screener.NewAnalyzer(cfg.MaxExtensionDays)
		engine := screener.NewEngine(orchestrator, analyzer, cfg.FilterConcurrency)

		resultCache := buildResultCache(cfg)
		runService := services.NewScreenRunService(db)

		// Mark database as ready
		dbInitMutex.Lock()
		dbInitialized = true
		dbInitMutex.Unlock()

		// Setup all API routes
		screenerController := controllers.NewScreenerController(engine, resultCache, runService)
		routes.SetupRoutes(router, screenerController, hub)

		// Start background scheduler
		jobScheduler = scheduler.NewScheduler(engine, runService)
		go jobScheduler.Start()

		log.Println("Application fully initialized with database")
	}()

	// Graceful shutdown
	gracefulShutdown(server, jobScheduler, hub)
}

// buildResultCache picks the Mongo-backed cache when configured, an
// in-process cache otherwise
func buildResultCache(cfg *config.Config) cache.ResultCache {
	if cfg.MongoURI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mc, err := cache.NewMongoCache(ctx, cfg.MongoURI)
		if err != nil {
			log.Printf("Mongo cache unavailable, using in-memory cache: %v", err)
		} else {
			log.Println("Using MongoDB result cache")
			return mc
		}
	}
	return cache.NewMemoryCache()
}

// setupHealthEndpoints sets up health check endpoints
func setupHealthEndpoints(router *gin.Engine) {
	// Root endpoint
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Stock Screener Backend API",
			"version": "1.0.0",
		})
	})

	// Liveness probe - always returns OK if server is running
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// Readiness probe - checks if service is ready to receive traffic
	router.GET("/ready", func(c *gin.Context) {
		dbInitMutex.RLock()
		isDBReady := dbInitialized
		dbInitMutex.RUnlock()

		if !isDBReady {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"message": "Database not connected",
			})
			return
		}

		// Check database connection
		sqlDB, err := config.DB.DB()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"message": "Database connection error",
			})
			return
		}

		if err := sqlDB.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"message": "Database ping failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
		})
	})
}

// corsMiddleware returns a CORS middleware handler
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLogger returns a request logging middleware
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip logging for health checks to reduce noise
		path := c.Request.URL.Path
		if path == "/health" || path == "/ready" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		// Only log errors or slow requests in production
		if c.Writer.Status() >= 400 || duration > 1*time.Second {
			log.Printf("%s %s %d %v", c.Request.Method, path, c.Writer.Status(), duration)
		}
	}
}

// gracefulShutdown handles graceful shutdown of the server
func gracefulShutdown(server *http.Server, jobScheduler *scheduler.Scheduler, hub *realtime.ProgressHub) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	sig := <-quit
	log.Printf("Received signal %v, shutting down gracefully...", sig)

	// Stop background work first
	if jobScheduler != nil {
		jobScheduler.Stop()
	}
	if hub != nil {
		hub.Shutdown()
	}

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Close database connection
	if config.DB != nil {
		sqlDB, err := config.DB.DB()
		if err == nil {
			sqlDB.Close()
			log.Println("Database connection closed")
		}
	}

	log.Println("Server shutdown completed")
}
