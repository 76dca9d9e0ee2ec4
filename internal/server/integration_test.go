package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestApp builds a Server over an in-memory SQLite database with routes
// registered. Metrics middleware is left out so tests can build servers
// repeatedly without re-registering Prometheus collectors.
func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		Port:      "0",
		JWTSecret: "integration-test-secret-key",
		Env:       "test",
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	srv := &Server{
		config:         cfg,
		db:             db,
		userRepo:       userRepo,
		postRepo:       postRepo,
		commentRepo:    commentRepo,
		authService:    service.NewAuthService(userRepo, cfg.JWTSecret),
		postService:    service.NewPostService(postRepo, commentRepo),
		commentService: service.NewCommentService(commentRepo, postRepo),
	}

	app := fiber.New()
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	srv.SetupRoutes(app)
	return app, db
}

// doJSON performs a request against the app and decodes the JSON response
// body into a generic map.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded
}

// doJSONList is doJSON for endpoints that return a JSON array.
func doJSONList(t *testing.T, app *fiber.App, method, path, token string) (int, []map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded []map[string]any
	if len(raw) > 0 && raw[0] == '[' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded
}

func registerUser(t *testing.T, app *fiber.App, username, email string) string {
	t.Helper()
	status, body := doJSON(t, app, http.MethodPost, "/users/register", "", fiber.Map{
		"username": username,
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, status)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestEndToEndFlow(t *testing.T) {
	app, db := newTestApp(t)

	// Register author and a second user.
	tokenA := registerUser(t, app, "alice", "alice@example.com")
	tokenB := registerUser(t, app, "bob", "bob@example.com")

	// Duplicate registration fails with 400.
	status, body := doJSON(t, app, http.MethodPost, "/users/register", "", fiber.Map{
		"username": "alice2",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeConflict, body["code"])

	// Login with wrong password and unknown email both yield 400 with the
	// same message.
	status, wrongPw := doJSON(t, app, http.MethodPost, "/users/login", "", fiber.Map{
		"email": "alice@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	status, unknown := doJSON(t, app, http.MethodPost, "/users/login", "", fiber.Map{
		"email": "ghost@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, wrongPw["error"], unknown["error"])

	// Login works and the profile omits the password.
	status, login := doJSON(t, app, http.MethodPost, "/users/login", "", fiber.Map{
		"email": "alice@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, status)
	tokenA = login["token"].(string)

	status, me := doJSON(t, app, http.MethodGet, "/users/me", tokenA, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", me["username"])
	assert.NotContains(t, me, "password")

	// Alice creates a post.
	status, post := doJSON(t, app, http.MethodPost, "/posts", tokenA, fiber.Map{
		"title": "Hello", "content": "First post",
	})
	require.Equal(t, http.StatusCreated, status)
	postID := int(post["id"].(float64))
	author := post["author"].(map[string]any)
	assert.Equal(t, "alice", author["username"])

	// The list contains it.
	status, posts := doJSONList(t, app, http.MethodGet, "/posts", "")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, posts, 1)

	// Alice can update it; a partial patch keeps the other field.
	status, updated := doJSON(t, app, http.MethodPut, fmt.Sprintf("/posts/%d", postID), tokenA, fiber.Map{
		"title": "Hello again",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Hello again", updated["title"])
	assert.Equal(t, "First post", updated["content"])

	// An empty patch succeeds and changes nothing.
	status, unchanged := doJSON(t, app, http.MethodPut, fmt.Sprintf("/posts/%d", postID), tokenA, fiber.Map{})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Hello again", unchanged["title"])

	// So does a patch with explicitly empty fields.
	status, unchanged = doJSON(t, app, http.MethodPut, fmt.Sprintf("/posts/%d", postID), tokenA, fiber.Map{
		"title": "", "content": "",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Hello again", unchanged["title"])
	assert.Equal(t, "First post", unchanged["content"])

	// Bob cannot update or delete Alice's post.
	status, denied := doJSON(t, app, http.MethodPut, fmt.Sprintf("/posts/%d", postID), tokenB, fiber.Map{
		"title": "Hijacked",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, models.CodeUnauthorized, denied["code"])

	status, _ = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/posts/%d", postID), tokenB, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// Bob comments on the post.
	status, comment := doJSON(t, app, http.MethodPost, fmt.Sprintf("/comments/%d", postID), tokenB, fiber.Map{
		"content": "Nice post",
	})
	require.Equal(t, http.StatusCreated, status)
	commentID := int(comment["id"].(float64))

	status, comments := doJSONList(t, app, http.MethodGet, fmt.Sprintf("/comments/%d", postID), "")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, comments, 1)

	// Alice cannot edit Bob's comment.
	status, _ = doJSON(t, app, http.MethodPut, fmt.Sprintf("/comments/%d", commentID), tokenA, fiber.Map{
		"content": "Edited by author",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	// Alice deletes her post; the cascade removes Bob's comment.
	status, deleted := doJSON(t, app, http.MethodDelete, fmt.Sprintf("/posts/%d", postID), tokenA, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Post and associated comments removed", deleted["message"])

	status, _ = doJSON(t, app, http.MethodGet, fmt.Sprintf("/posts/%d", postID), "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doJSON(t, app, http.MethodGet, fmt.Sprintf("/comments/%d", postID), "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	var commentCount int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&commentCount).Error)
	assert.Zero(t, commentCount)
}

func TestCommentsOrderedByInsertion(t *testing.T) {
	app, _ := newTestApp(t)

	token := registerUser(t, app, "carol", "carol@example.com")
	status, post := doJSON(t, app, http.MethodPost, "/posts", token, fiber.Map{
		"title": "Ordering", "content": "body",
	})
	require.Equal(t, http.StatusCreated, status)
	postID := int(post["id"].(float64))

	for _, content := range []string{"one", "two", "three"} {
		status, _ := doJSON(t, app, http.MethodPost, fmt.Sprintf("/comments/%d", postID), token, fiber.Map{
			"content": content,
		})
		require.Equal(t, http.StatusCreated, status)
	}

	status, comments := doJSONList(t, app, http.MethodGet, fmt.Sprintf("/comments/%d", postID), "")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, comments, 3)
	assert.Equal(t, "one", comments[0]["content"])
	assert.Equal(t, "two", comments[1]["content"])
	assert.Equal(t, "three", comments[2]["content"])
}

// Handlers must hand the request-scoped context to the services so request
// metadata reaches the database layer.
func TestRequestContextReachesDatabase(t *testing.T) {
	app, db := newTestApp(t)

	var seen []string
	err := db.Callback().Query().After("gorm:query").Register("capture_request_id", func(tx *gorm.DB) {
		if rid, ok := tx.Statement.Context.Value(middleware.RequestIDKey).(string); ok {
			seen = append(seen, rid)
		}
	})
	require.NoError(t, err)

	status, _ := doJSONList(t, app, http.MethodGet, "/posts", "")
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, seen)
	assert.NotEmpty(t, seen[0])
}

func TestCommentOnMissingPost(t *testing.T) {
	app, _ := newTestApp(t)
	token := registerUser(t, app, "dave", "dave@example.com")

	status, body := doJSON(t, app, http.MethodPost, "/comments/999", token, fiber.Map{
		"content": "into the void",
	})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, models.CodeNotFound, body["code"])
}
