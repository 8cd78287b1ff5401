package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/spendwise/expense-api/config"
	"github.com/spendwise/expense-api/middleware"
	"github.com/spendwise/expense-api/routes"
	"github.com/spendwise/expense-api/tokens"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	db, err := config.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	log.Println("✅ Database connected successfully")

	if err := config.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	tokenTTL := tokens.DefaultTTL
	if raw := os.Getenv("VERIFY_TOKEN_TTL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatal("Invalid VERIFY_TOKEN_TTL:", err)
		}
		tokenTTL = parsed
	}
	tokenStore, err := tokens.NewStore(tokenTTL)
	if err != nil {
		log.Fatal("Failed to initialize token store:", err)
	}

	router := gin.Default()

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}

	corsConfig := cors.Config{
		AllowOrigins:     []string{frontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           86400,
	}
	router.Use(cors.New(corsConfig))
	router.Use(middleware.RateLimiter())

	v1 := router.Group("/api/v1")
	{
		routes.SetupAuthRoutes(v1, db, tokenStore)

		protected := v1.Group("/")
		protected.Use(middleware.AuthMiddleware(db))
		{
			routes.SetupUserRoutes(protected, db)
			routes.SetupCategoryRoutes(protected, db)
			routes.SetupTransactionRoutes(protected, db)

			admin := protected.Group("/")
			admin.Use(middleware.AdminOnly())
			routes.SetupAdminRoutes(admin, db)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 Server starting on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
