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

	"challenge-arena/internal/auth"
	"challenge-arena/internal/config"
	"challenge-arena/internal/database"
	"challenge-arena/internal/handlers"
	"challenge-arena/internal/jobs"
	"challenge-arena/internal/repository"
	"challenge-arena/internal/services"
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

	// Initialize repository and lifecycle engine
	repo := repository.NewRepository(database.GetDB())
	engine := services.NewLifecycleEngine(repo)

	// Initialize services
	authService := services.NewAuthService(database.GetDB())
	userService := services.NewUserService(database.GetDB())
	spaceService := services.NewSpaceService(database.GetDB())
	challengeService := services.NewChallengeService(database.GetDB(), spaceService, engine)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, userService)
	spaceHandler := handlers.NewSpaceHandler(spaceService)
	challengeHandler := handlers.NewChallengeHandler(challengeService)

	// Start lifecycle runner (evaluates all unfinalized challenges every tick)
	runner := jobs.NewLifecycleRunner(engine, repo, cfg.Lifecycle.Interval)
	go runner.Start()
	log.Println("Challenge lifecycle runner started")

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173", // Vite dev server
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

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	// Authenticated /auth/me route
	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", authHandler.GetMe)
	}

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		// Space endpoints
		api.POST("/spaces", spaceHandler.CreateSpace)
		api.GET("/spaces", spaceHandler.GetSpaces)
		api.POST("/spaces/join", spaceHandler.JoinSpace)
		api.GET("/spaces/:spaceId", spaceHandler.GetSpace)
		api.POST("/spaces/:spaceId/achievements", spaceHandler.CreateAchievement)

		// Challenge endpoints (space-scoped)
		api.POST("/spaces/:spaceId/challenges", challengeHandler.CreateChallenge)
		api.GET("/spaces/:spaceId/challenges", challengeHandler.GetChallenges)
		api.GET("/spaces/:spaceId/challenges/:challengeId", challengeHandler.GetChallenge)
		api.PATCH("/spaces/:spaceId/challenges/:challengeId", challengeHandler.EditChallenge)
		api.POST("/spaces/:spaceId/challenges/:challengeId/members", challengeHandler.JoinChallenge)
		api.POST("/spaces/:spaceId/challenges/:challengeId/submit-result", challengeHandler.SubmitResult)
		api.GET("/spaces/:spaceId/challenges/:challengeId/leaderboard", challengeHandler.GetLeaderboard)

		// Result adjudication endpoints
		api.POST("/results/:resultId/estimate", challengeHandler.EstimateResult)
		api.POST("/results/:resultId/verify", challengeHandler.VerifyResult)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	runner.Stop()

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
