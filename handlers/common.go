package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"anonyme/models"
	"anonyme/repository"
)

const storeTimeout = 10 * time.Second

func storeContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), storeTimeout)
}

// writeStoreError maps a repository error onto the HTTP surface. Anything
// unclassified is logged and hidden behind a generic 500.
func writeStoreError(c *gin.Context, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMsg})
	case errors.Is(err, repository.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable", "message": "Retry the request"})
	default:
		if field, ok := repository.DuplicateField(err); ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "duplicate value", "field": field})
			return
		}
		log.Printf("unexpected store error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// attachPostAuthors populates the author stub on each post with a single
// batch fetch.
func attachPostAuthors(ctx context.Context, users repository.UserRepository, posts []models.Post) error {
	ids := make([]primitive.ObjectID, 0, len(posts))
	seen := make(map[primitive.ObjectID]bool, len(posts))
	for i := range posts {
		if !seen[posts[i].UserID] {
			seen[posts[i].UserID] = true
			ids = append(ids, posts[i].UserID)
		}
	}

	byID, err := users.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range posts {
		if u, ok := byID[posts[i].UserID]; ok {
			posts[i].User = u.Author()
		}
	}
	return nil
}

func attachCommentAuthors(ctx context.Context, users repository.UserRepository, comments []models.Comment) error {
	ids := make([]primitive.ObjectID, 0, len(comments))
	seen := make(map[primitive.ObjectID]bool, len(comments))
	for i := range comments {
		if !seen[comments[i].UserID] {
			seen[comments[i].UserID] = true
			ids = append(ids, comments[i].UserID)
		}
	}

	byID, err := users.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range comments {
		if u, ok := byID[comments[i].UserID]; ok {
			comments[i].User = u.Author()
		}
	}
	return nil
}
