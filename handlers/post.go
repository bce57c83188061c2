package handlers

import (
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"anonyme/middleware"
	"anonyme/models"
	"anonyme/repository"
)

const (
	maxPostContentLen = 500
	defaultPageLimit  = 20
	maxPageLimit      = 100
)

type PostHandler struct {
	Posts    repository.PostRepository
	Comments repository.CommentRepository
	Users    repository.UserRepository
}

type CreatePostRequest struct {
	Content     string `json:"content" binding:"required"`
	ImageURL    string `json:"imageUrl"`
	IsAnonymous *bool  `json:"isAnonymous"`
}

func (h *PostHandler) Create(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}
	if utf8.RuneCountInString(content) > maxPostContentLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid content", "message": "Content must be at most 500 characters"})
		return
	}

	user := middleware.CurrentUser(c)

	isAnonymous := true
	if req.IsAnonymous != nil {
		isAnonymous = *req.IsAnonymous
	}

	post := &models.Post{
		UserID:      user.ID,
		Content:     content,
		ImageURL:    req.ImageURL,
		IsAnonymous: isAnonymous,
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	if err := h.Posts.Create(ctx, post); err != nil {
		writeStoreError(c, err, "post not found")
		return
	}

	post.User = user.Author()

	log.Printf("post created by: %s", user.Username)

	c.JSON(http.StatusCreated, gin.H{"post": post, "message": "Post created successfully"})
}

func (h *PostHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	posts, total, err := h.Posts.List(ctx, page, limit)
	if err != nil {
		writeStoreError(c, err, "post not found")
		return
	}

	if err := attachPostAuthors(ctx, h.Users, posts); err != nil {
		writeStoreError(c, err, "post not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": posts,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

func (h *PostHandler) GetByID(c *gin.Context) {
	postID, err := primitive.ObjectIDFromHex(c.Param("postId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post ID"})
		return
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	post, err := h.Posts.FindByID(ctx, postID)
	if err != nil {
		writeStoreError(c, err, "post not found")
		return
	}

	posts := []models.Post{*post}
	if err := attachPostAuthors(ctx, h.Users, posts); err != nil {
		writeStoreError(c, err, "post not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": posts[0]})
}

func (h *PostHandler) ToggleLike(c *gin.Context) {
	postID, err := primitive.ObjectIDFromHex(c.Param("postId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post ID"})
		return
	}

	user := middleware.CurrentUser(c)

	ctx, cancel := storeContext(c)
	defer cancel()

	post, liked, err := h.Posts.ToggleLike(ctx, postID, user.ID)
	if err != nil {
		writeStoreError(c, err, "post not found")
		return
	}

	posts := []models.Post{*post}
	if err := attachPostAuthors(ctx, h.Users, posts); err != nil {
		writeStoreError(c, err, "post not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": posts[0], "liked": liked})
}

// Delete removes the caller's own post, then best-effort removes the
// post's comments so they do not linger as orphans.
func (h *PostHandler) Delete(c *gin.Context) {
	postID, err := primitive.ObjectIDFromHex(c.Param("postId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post ID"})
		return
	}

	user := middleware.CurrentUser(c)

	ctx, cancel := storeContext(c)
	defer cancel()

	post, err := h.Posts.FindByID(ctx, postID)
	if err != nil {
		writeStoreError(c, err, "post not found")
		return
	}

	if !models.CanMutate(post.UserID, user.ID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized", "message": "You can only delete your own posts"})
		return
	}

	if err := h.Posts.Delete(ctx, postID); err != nil {
		writeStoreError(c, err, "post not found")
		return
	}

	if n, err := h.Comments.DeleteForPost(ctx, postID); err != nil {
		log.Printf("comment cleanup for post %s failed: %v", postID.Hex(), err)
	} else if n > 0 {
		log.Printf("removed %d comments with post %s", n, postID.Hex())
	}

	log.Printf("post deleted by: %s", user.Username)

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

func (h *PostHandler) ListByUser(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	posts, err := h.Posts.ListByUser(ctx, userID)
	if err != nil {
		writeStoreError(c, err, "post not found")
		return
	}

	if err := attachPostAuthors(ctx, h.Users, posts); err != nil {
		writeStoreError(c, err, "post not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}
