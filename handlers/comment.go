package handlers

import (
	"log"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"anonyme/middleware"
	"anonyme/models"
	"anonyme/repository"
)

const maxCommentContentLen = 300

type CommentHandler struct {
	Comments repository.CommentRepository
	Posts    repository.PostRepository
	Users    repository.UserRepository
}

type CreateCommentRequest struct {
	PostID      string `json:"postId" binding:"required"`
	Content     string `json:"content" binding:"required"`
	IsAnonymous *bool  `json:"isAnonymous"`
}

// Create inserts the comment, then bumps the parent's commentsCount. The
// two writes are sequenced, not transactional: a crash in between leaves
// the counter understated, which the floor-at-zero decrement tolerates.
func (h *CommentHandler) Create(c *gin.Context) {
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}

	postID, err := primitive.ObjectIDFromHex(req.PostID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post ID"})
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}
	if utf8.RuneCountInString(content) > maxCommentContentLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid content", "message": "Content must be at most 300 characters"})
		return
	}

	user := middleware.CurrentUser(c)

	ctx, cancel := storeContext(c)
	defer cancel()

	if _, err := h.Posts.FindByID(ctx, postID); err != nil {
		writeStoreError(c, err, "post not found")
		return
	}

	isAnonymous := true
	if req.IsAnonymous != nil {
		isAnonymous = *req.IsAnonymous
	}

	comment := &models.Comment{
		PostID:      postID,
		UserID:      user.ID,
		Content:     content,
		IsAnonymous: isAnonymous,
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		writeStoreError(c, err, "post not found")
		return
	}

	if err := h.Posts.AdjustCommentsCount(ctx, postID, 1); err != nil {
		// The comment exists; the counter catches up on the next adjust.
		log.Printf("commentsCount increment for post %s failed: %v", postID.Hex(), err)
	}

	comment.User = user.Author()

	log.Printf("comment added by: %s", user.Username)

	c.JSON(http.StatusCreated, gin.H{"comment": comment, "message": "Comment added successfully"})
}

func (h *CommentHandler) ListForPost(c *gin.Context) {
	postID, err := primitive.ObjectIDFromHex(c.Param("postId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post ID"})
		return
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	comments, err := h.Comments.ListForPost(ctx, postID)
	if err != nil {
		writeStoreError(c, err, "post not found")
		return
	}

	if err := attachCommentAuthors(ctx, h.Users, comments); err != nil {
		writeStoreError(c, err, "post not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

func (h *CommentHandler) Delete(c *gin.Context) {
	commentID, err := primitive.ObjectIDFromHex(c.Param("commentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment ID"})
		return
	}

	user := middleware.CurrentUser(c)

	ctx, cancel := storeContext(c)
	defer cancel()

	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		writeStoreError(c, err, "comment not found")
		return
	}

	if !models.CanMutate(comment.UserID, user.ID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized", "message": "You can only delete your own comments"})
		return
	}

	if err := h.Comments.Delete(ctx, commentID); err != nil {
		writeStoreError(c, err, "comment not found")
		return
	}

	if err := h.Posts.AdjustCommentsCount(ctx, comment.PostID, -1); err != nil {
		log.Printf("commentsCount decrement for post %s failed: %v", comment.PostID.Hex(), err)
	}

	log.Printf("comment deleted by: %s", user.Username)

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}
