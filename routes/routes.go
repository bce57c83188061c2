package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"anonyme/auth"
	"anonyme/handlers"
	"anonyme/middleware"
	"anonyme/repository"
)

// Deps is everything the router needs wired in. Limiter may be nil for
// tests.
type Deps struct {
	Verifier auth.TokenVerifier
	Users    repository.UserRepository
	Posts    repository.PostRepository
	Comments repository.CommentRepository
	Limiter  middleware.Limiter
}

func SetupRouter(d Deps) *gin.Engine {
	// Request bodies are explicit structs; fields we did not declare are
	// rejected, not silently dropped.
	gin.EnableJsonDecoderDisallowUnknownFields()

	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	authHandler := &handlers.AuthHandler{Users: d.Users}
	postHandler := &handlers.PostHandler{Posts: d.Posts, Comments: d.Comments, Users: d.Users}
	commentHandler := &handlers.CommentHandler{Comments: d.Comments, Posts: d.Posts, Users: d.Users}

	api := router.Group("/api")
	if d.Limiter != nil {
		api.Use(middleware.RateLimit(d.Limiter))
	}
	api.Use(middleware.Identity(d.Verifier))

	// Register runs without a resolved local user; it creates one.
	api.POST("/auth/register", authHandler.Register)

	protected := api.Group("")
	protected.Use(middleware.RequireUser(d.Users))

	protected.GET("/auth/profile", authHandler.GetProfile)
	protected.PUT("/auth/profile", authHandler.UpdateProfile)

	protected.GET("/posts", postHandler.List)
	protected.POST("/posts", postHandler.Create)
	protected.GET("/posts/user/:userId", postHandler.ListByUser)
	protected.GET("/posts/:postId", postHandler.GetByID)
	protected.POST("/posts/:postId/like", postHandler.ToggleLike)
	protected.DELETE("/posts/:postId", postHandler.Delete)

	protected.POST("/comments", commentHandler.Create)
	protected.GET("/comments/:postId", commentHandler.ListForPost)
	protected.DELETE("/comments/:commentId", commentHandler.Delete)

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Route not found",
				"path":  c.Request.URL.Path,
			})
			return
		}
		c.Next()
	})

	return router
}
