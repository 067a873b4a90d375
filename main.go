package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"melco-care-server/internal/cache"
	"melco-care-server/internal/config"
	"melco-care-server/internal/models"
	"melco-care-server/internal/routes"
	"melco-care-server/internal/vlm"
)

func main() {
	// Load environment variables; a missing .env file is fine in production
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize database connection
	db, err := models.InitDB(models.DatabaseConfig{DSN: cfg.Database.DSN})
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	// Optional Redis cache; nil when REDIS_ADDR is unset
	cacheClient, err := cache.New(cfg.Redis)
	if err != nil {
		log.Fatalf("Error connecting to Redis: %v", err)
	}

	// Model-serving client
	vlmClient := vlm.NewClient(cfg.Ollama, nil)

	// Directory for chat and prescription image uploads
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("Error creating upload directory: %v", err)
	}

	// Initialize Gin router
	router := gin.Default()

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Set up routes - passing DB and config to let routes.go create the handlers
	routes.SetupRoutes(router, db, cfg, vlmClient, cacheClient)

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	fmt.Printf("Server running on port %s\n", cfg.Port)
	if err := router.Run(serverAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
