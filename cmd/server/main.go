package main

import (
	"context" // context package is needed for Redis operations
	"log"     // log package is needed for logging
	"time"    // Rate limit windows

	"finance_tracker/internal/api"        // Custom package for API handlers
	"finance_tracker/internal/config"     // Custom package for configuration
	"finance_tracker/internal/middleware" // Custom package for middleware

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Connect to the database
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default()

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	root := r.Group("/api")

	// Auth routes, throttled hard to slow down guessing
	authGroup := root.Group("/auth")
	authGroup.Use(middleware.RateLimit(redisClient, "auth", 5, 15*time.Minute,
		"Too many authentication attempts. Please try again later."))
	authGroup.POST("/register", api.RegisterHandler(db))
	authGroup.POST("/login", api.LoginHandler(db, cfg.JWTSecret))

	// Category routes (protected by JWT)
	categoryGroup := root.Group("/categories")
	categoryGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	categoryGroup.GET("", api.ListCategoriesHandler(db))
	categoryGroup.POST("", api.CreateCategoryHandler(db))

	// Transaction routes (protected by JWT)
	txGroup := root.Group("/transactions")
	txGroup.Use(
		middleware.RateLimit(redisClient, "transactions", 100, time.Hour,
			"Too many transaction requests. Please try again later."),
		middleware.JWTAuthMiddleware(cfg.JWTSecret),
	)
	txGroup.GET("", api.ListTransactionsHandler(db, redisClient))
	txGroup.GET("/:id", api.GetTransactionHandler(db))
	txGroup.POST("", api.CreateTransactionHandler(db, redisClient))
	txGroup.PUT("/:id", api.UpdateTransactionHandler(db, redisClient))
	txGroup.DELETE("/:id", api.DeleteTransactionHandler(db, redisClient))

	// Analytics routes (protected by JWT)
	analyticsGroup := root.Group("/analytics")
	analyticsGroup.Use(
		middleware.RateLimit(redisClient, "analytics", 50, time.Hour,
			"Too many analytics requests. Please try again later."),
		middleware.JWTAuthMiddleware(cfg.JWTSecret),
	)
	analyticsGroup.GET("/overview", api.OverviewHandler(db, redisClient))
	analyticsGroup.GET("/category-breakdown", api.CategoryBreakdownHandler(db, redisClient))
	analyticsGroup.GET("/income-vs-expense", api.IncomeVsExpenseHandler(db, redisClient))

	log.Println("Server running on " + cfg.AppPort)
	r.Run(":" + cfg.AppPort) // Start the server on port cfg.AppPort
}
