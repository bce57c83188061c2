package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"anonyme/auth"
	"anonyme/config"
	"anonyme/database"
	"anonyme/middleware"
	"anonyme/repository"
	"anonyme/routes"
)

func main() {
	log.Println("Starting anonyme backend...")

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	// ===== CONNECT TO MONGODB WITH RETRY =====
	var db *database.DB
	var dbErr error
	for i := 1; i <= 3; i++ {
		db, dbErr = database.Connect(cfg.MongoURI, cfg.DBName)
		if dbErr != nil {
			log.Printf("MongoDB connection attempt %d failed: %v", i, dbErr)
			time.Sleep(2 * time.Second)
			continue
		}
		break
	}
	if dbErr != nil {
		log.Fatal("Failed to connect to MongoDB: ", dbErr)
	}
	defer func() {
		if err := db.Disconnect(); err != nil {
			log.Println("MongoDB disconnect error:", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := db.EnsureIndexes(ctx); err != nil {
		cancel()
		log.Fatal("Failed to create indexes: ", err)
	}
	cancel()

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// ===== RATE LIMITER =====
	var limiter middleware.Limiter
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal("Invalid REDIS_URL: ", err)
		}
		limiter = middleware.NewRedisRateLimiter(redis.NewClient(opts), 60, time.Minute)
		log.Println("Rate limiting backed by Redis")
	} else {
		limiter = middleware.NewIPRateLimiter(60, time.Minute)
	}

	router := routes.SetupRouter(routes.Deps{
		Verifier: auth.NewJWTVerifier(cfg.JWTSecret),
		Users:    repository.NewMongoUserRepository(db.Users),
		Posts:    repository.NewMongoPostRepository(db.Posts),
		Comments: repository.NewMongoCommentRepository(db.Comments),
		Limiter:  limiter,
	})

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Anonyme API running",
			"endpoints": gin.H{
				"auth":     "/api/auth",
				"posts":    "/api/posts",
				"comments": "/api/comments",
			},
		})
	})

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		mongoStatus := "Connected"
		if err := db.Client.Ping(ctx, nil); err != nil {
			mongoStatus = "Disconnected"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "OK",
			"mongodb":   mongoStatus,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server running on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server error: ", err)
		}
	}()

	// ===== GRACEFUL SHUTDOWN =====
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("Forced shutdown:", err)
	}

	log.Println("Server stopped gracefully")
}
