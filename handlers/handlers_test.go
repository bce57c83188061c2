package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"anonyme/auth"
	"anonyme/middleware"
	"anonyme/repository/memory"
)

const testSecret = "test-secret-key"

type testEnv struct {
	router *gin.Engine
	store  *memory.Store
}

// setupEnv wires the handlers the same way routes.SetupRouter does, but
// against the in-memory store. Mounted here directly to keep the handler
// package self-contained.
func setupEnv() *testEnv {
	gin.SetMode(gin.TestMode)
	gin.EnableJsonDecoderDisallowUnknownFields()

	store := memory.NewStore()
	users := store.Users()
	posts := store.Posts()
	comments := store.Comments()

	authHandler := &AuthHandler{Users: users}
	postHandler := &PostHandler{Posts: posts, Comments: comments, Users: users}
	commentHandler := &CommentHandler{Comments: comments, Posts: posts, Users: users}

	r := gin.New()
	api := r.Group("/api", middleware.Identity(auth.NewJWTVerifier(testSecret)))

	api.POST("/auth/register", authHandler.Register)

	protected := api.Group("", middleware.RequireUser(users))
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

	return &testEnv{router: r, store: store}
}

func token(t *testing.T, subject string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (e *testEnv) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest))
}

type profileJSON struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	DisplayName    string `json:"displayName"`
	ProfilePicture string `json:"profilePicture"`
	Bio            string `json:"bio"`
}

type authorJSON struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	DisplayName    string `json:"displayName"`
	ProfilePicture string `json:"profilePicture"`
}

type postJSON struct {
	ID            string      `json:"id"`
	UserID        string      `json:"userId"`
	Content       string      `json:"content"`
	ImageURL      string      `json:"imageUrl"`
	Likes         []string    `json:"likes"`
	LikesCount    int         `json:"likesCount"`
	CommentsCount int         `json:"commentsCount"`
	IsAnonymous   bool        `json:"isAnonymous"`
	User          *authorJSON `json:"user"`
}

type commentJSON struct {
	ID          string      `json:"id"`
	PostID      string      `json:"postId"`
	UserID      string      `json:"userId"`
	Content     string      `json:"content"`
	IsAnonymous bool        `json:"isAnonymous"`
	User        *authorJSON `json:"user"`
}

type paginationJSON struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// register creates a user for subject and returns its id and token.
func (e *testEnv) register(t *testing.T, subject, username, email string) (string, string) {
	t.Helper()

	tok := token(t, subject)
	w := e.do(t, "POST", "/api/auth/register", tok, map[string]string{
		"username": username,
		"email":    email,
	})
	require.Contains(t, []int{200, 201}, w.Code, "register failed: %s", w.Body.String())

	var resp struct {
		User profileJSON `json:"user"`
	}
	decode(t, w, &resp)
	return resp.User.ID, tok
}

// createPost posts content and returns the created post.
func (e *testEnv) createPost(t *testing.T, tok, content string) postJSON {
	t.Helper()

	w := e.do(t, "POST", "/api/posts", tok, map[string]any{"content": content})
	require.Equal(t, 201, w.Code, "create post failed: %s", w.Body.String())

	var resp struct {
		Post postJSON `json:"post"`
	}
	decode(t, w, &resp)
	return resp.Post
}
