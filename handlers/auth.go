package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"anonyme/middleware"
	"anonyme/models"
	"anonyme/repository"
)

type AuthHandler struct {
	Users repository.UserRepository
}

type RegisterRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	DisplayName string `json:"displayName"`
}

type UpdateProfileRequest struct {
	DisplayName    *string `json:"displayName"`
	Bio            *string `json:"bio"`
	ProfilePicture *string `json:"profilePicture"`
}

// Register creates the local user for a first-seen subject, or returns the
// existing one unchanged. It runs behind Identity only: the subject is
// verified, but no local user exists yet.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}

	subject := c.GetString(middleware.SubjectKey)
	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if n := utf8.RuneCountInString(username); n < 3 || n > 30 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid username", "message": "Username must be 3-30 characters"})
		return
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	// Idempotent: a subject that already registered gets its record back.
	existing, err := h.Users.FindBySubject(ctx, subject)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"user": existing.PublicProfile(), "message": "User already registered"})
		return
	}
	if !errors.Is(err, repository.ErrNotFound) {
		writeStoreError(c, err, "user not found")
		return
	}

	if taken, err := h.Users.FindByUsername(ctx, username); err == nil && taken.SubjectID != subject {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username taken", "message": "Choose another username"})
		return
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		writeStoreError(c, err, "user not found")
		return
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = username
	}
	if utf8.RuneCountInString(displayName) > 50 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid displayName", "message": "Display name must be at most 50 characters"})
		return
	}

	user := &models.User{
		SubjectID:   subject,
		Email:       email,
		Username:    username,
		DisplayName: displayName,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if field, ok := repository.DuplicateField(err); ok {
			// Lost a race on the subject index: this subject registered
			// concurrently. Still idempotent.
			if field == "subjectId" {
				if u, ferr := h.Users.FindBySubject(ctx, subject); ferr == nil {
					c.JSON(http.StatusOK, gin.H{"user": u.PublicProfile(), "message": "User already registered"})
					return
				}
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": field + " taken", "message": "This " + field + " is already in use"})
			return
		}
		writeStoreError(c, err, "user not found")
		return
	}

	log.Printf("new user registered: %s", user.Username)

	c.JSON(http.StatusCreated, gin.H{"user": user.PublicProfile(), "message": "User created successfully"})
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{"user": user.PublicProfile()})
}

// UpdateProfile overwrites only the fields present in the body. An explicit
// empty string clears bio/profilePicture; a blank displayName is ignored.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}

	upd := repository.ProfileUpdate{
		Bio:            req.Bio,
		ProfilePicture: req.ProfilePicture,
	}

	if req.DisplayName != nil {
		dn := strings.TrimSpace(*req.DisplayName)
		if dn != "" {
			if utf8.RuneCountInString(dn) > 50 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid displayName", "message": "Display name must be at most 50 characters"})
				return
			}
			upd.DisplayName = &dn
		}
	}
	if req.Bio != nil && utf8.RuneCountInString(*req.Bio) > 200 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bio", "message": "Bio must be at most 200 characters"})
		return
	}

	user := middleware.CurrentUser(c)

	ctx, cancel := storeContext(c)
	defer cancel()

	updated, err := h.Users.UpdateProfile(ctx, user.ID, upd)
	if err != nil {
		writeStoreError(c, err, "user not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": updated.PublicProfile(), "message": "Profile updated successfully"})
}
