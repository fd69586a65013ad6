package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gifting-circle/internal/auth"
	"gifting-circle/internal/config"
	"gifting-circle/internal/database"
	"gifting-circle/internal/events"
	"gifting-circle/internal/handlers"
	"gifting-circle/internal/metrics"
	"gifting-circle/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Metrics
	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	appMetrics := metrics.New(zapLogger)

	// Change-notification hub
	hub := events.NewHub(cfg.App.EventDebounce)
	defer hub.Close()

	// Initialize services
	db := database.GetDB()
	authService := services.NewAuthService(db, hub)
	userService := services.NewUserService(db)
	referralService := services.NewReferralService(db, cfg.App.InviteBaseURL)
	progressionService := services.NewProgressionService(db, cfg.App.MaxFunders, cfg.App.RequestTimeout)
	donationService := services.NewDonationService(db, hub, cfg.App.MaxFunders, cfg.App.RequestTimeout)
	adminService := services.NewAdminService(db, hub)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, userService, appMetrics)
	userHandler := handlers.NewUserHandler(userService)
	referralHandler := handlers.NewReferralHandler(referralService, userService)
	progressionHandler := handlers.NewProgressionHandler(progressionService)
	donationHandler := handlers.NewDonationHandler(donationService, appMetrics)
	adminHandler := handlers.NewAdminHandler(adminService, progressionService)
	eventsHandler := handlers.NewEventsHandler(hub)

	// Set up Gin router
	router := gin.Default()
	router.Use(appMetrics.Middleware())

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Metrics scrape endpoint
	router.GET("/metrics", appMetrics.Handler())

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/sign-up", authHandler.SignUp)
		authRoutes.POST("/sign-in", authHandler.SignIn)
		authRoutes.POST("/logout", authHandler.Logout)
	}

	// Authenticated /auth/me route
	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", authHandler.GetMe)
	}

	// Public referral code validation (used by the sign-up form)
	router.GET("/api/referral/validate/:code", referralHandler.ValidateCode)

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		// User endpoints
		userRoutes := api.Group("/user")
		{
			userRoutes.GET("/profile", userHandler.GetProfile)
			userRoutes.GET("/gifts", userHandler.GetGifts)
			userRoutes.GET("/referrals", userHandler.GetReferrals)
		}

		// Referral endpoints
		api.GET("/referral/code", referralHandler.GetReferralCode)
		api.GET("/referral/stats", referralHandler.GetReferralStats)

		// Progression endpoints
		api.GET("/progress", progressionHandler.GetProgress)
		api.GET("/stats/system", progressionHandler.GetSystemStats)

		// Donation endpoint
		api.POST("/donations", donationHandler.SubmitDonation)

		// Change-notification stream
		api.GET("/events", eventsHandler.Stream)
	}

	// Admin routes (protected + admin only)
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware())
	admin.Use(adminHandler.AdminMiddleware())
	{
		admin.GET("/overview", adminHandler.GetOverview)
		admin.GET("/stats", adminHandler.GetSystemStats)
		admin.GET("/users", adminHandler.GetUsers)
		admin.GET("/gifts", adminHandler.GetGifts)
		admin.POST("/users/promote-level", adminHandler.PromoteUserLevel)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
