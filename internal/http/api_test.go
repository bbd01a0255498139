package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"todo-server/internal/auth"
	"todo-server/internal/domain"
	"todo-server/internal/ratelimit"
	"todo-server/internal/repository"
	"todo-server/internal/repository/sqlite"
	"todo-server/internal/service"
	"todo-server/internal/storage"
)

type testServer struct {
	router *gin.Engine
	tokens *auth.TokenService
	users  service.UserService
	todos  service.TodoService
	repo   repository.UserRepository
}

type option func(*Deps)

func withLimiter(l ratelimit.Limiter) option { return func(d *Deps) { d.Limiter = l } }

func newTestServer(t *testing.T, opts ...option) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.Migrate(context.Background(), db))

	userRepo := sqlite.NewUserRepository(db)
	tokens, err := auth.NewTokenService(userRepo, []byte("abc123"))
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	deps := Deps{
		Users:  service.NewUserService(userRepo, service.UserOptions{BcryptCost: bcrypt.MinCost}),
		Todos:  service.NewTodoService(sqlite.NewTodoRepository(db)),
		Tokens: tokens,
		Logger: logger,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	router := gin.New()
	NewHandler(deps).RegisterRoutes(router)
	return &testServer{router: router, tokens: tokens, users: deps.Users, todos: deps.Todos, repo: userRepo}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(AuthHeader, token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// register creates a user over HTTP and returns its id and token.
func (s *testServer) register(t *testing.T, email, password string) (string, string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/users", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.ID, rec.Header().Get(AuthHeader)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRegisterUser(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/users", "", gin.H{"email": "alice@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Header().Get(AuthHeader)
	assert.NotEmpty(t, token)

	body := decode[UserResponse](t, rec)
	assert.Equal(t, "alice@example.com", body.Email)
	assert.NotEmpty(t, body.ID)

	stored, err := s.repo.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", stored.PasswordHash)
	assert.True(t, stored.HasToken(token))

	rec = s.do(t, http.MethodPost, "/users", "", gin.H{"email": "alice@example.com", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Header().Get(AuthHeader))
}

func TestRegisterValidationErrors(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/users", "", gin.H{"email": "xmail.com", "password": "dfg5t"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/users", "", gin.H{"email": "ok@example.com", "password": "dfg5t"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader("{not json"))
	raw := httptest.NewRecorder()
	s.router.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	id, _ := s.register(t, "alice@example.com", "password123")

	rec := s.do(t, http.MethodPost, "/users/login", "", gin.H{"email": "alice@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Header().Get(AuthHeader)
	require.NotEmpty(t, token)
	assert.Equal(t, id, decode[UserResponse](t, rec).ID)

	stored, err := s.repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, stored.Tokens, 2)
	assert.Equal(t, domain.Token{Access: domain.AccessAuth, Token: token}, stored.Tokens[1])
}

func TestLoginRejectsInvalidCredentials(t *testing.T) {
	s := newTestServer(t)
	id, _ := s.register(t, "alice@example.com", "password123")

	wrong := s.do(t, http.MethodPost, "/users/login", "", gin.H{"email": "alice@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusBadRequest, wrong.Code)
	assert.Empty(t, wrong.Header().Get(AuthHeader))

	unknown := s.do(t, http.MethodPost, "/users/login", "", gin.H{"email": "kkk@gm.com", "password": "nnlk"})
	assert.Equal(t, http.StatusBadRequest, unknown.Code)
	assert.Empty(t, unknown.Header().Get(AuthHeader))
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())

	stored, err := s.repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, stored.Tokens, 1, "failed logins must not issue tokens")
}

func TestLoginRateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	limiter := ratelimit.NewRedisLimiter(ratelimit.RedisConfig{Client: client, Rate: 2, Window: time.Minute})

	s := newTestServer(t, withLimiter(limiter))
	s.register(t, "alice@example.com", "password123")

	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodPost, "/users/login", "", gin.H{"email": "alice@example.com", "password": "wrong-pass"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
	rec := s.do(t, http.MethodPost, "/users/login", "", gin.H{"email": "ALICE@example.com", "password": "password123"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Empty(t, rec.Header().Get(AuthHeader))
}

func TestMe(t *testing.T) {
	s := newTestServer(t)
	id, token := s.register(t, "alice@example.com", "password123")

	rec := s.do(t, http.MethodGet, "/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[UserResponse](t, rec)
	assert.Equal(t, id, body.ID)
	assert.Equal(t, "alice@example.com", body.Email)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	_, token := s.register(t, "alice@example.com", "password123")

	cases := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"garbage", "abc"},
		{"tampered", token[:len(token)-4] + "AAAA"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, "/users/me", tc.token, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{}`, rec.Body.String())

			rec = s.do(t, http.MethodGet, "/todos", tc.token, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{}`, rec.Body.String())
		})
	}
}

func TestTokenIssuedDirectlyResolvesIdentity(t *testing.T) {
	s := newTestServer(t)
	user, err := s.users.Register(context.Background(), "direct@example.com", "password123")
	require.NoError(t, err)

	token, err := s.tokens.Issue(context.Background(), user.ID, domain.AccessAuth)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	var seen string
	router.GET("/whoami", Authenticate(s.tokens, logrus.New()), func(c *gin.Context) {
		seen, _ = auth.UserIDFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"id": c.GetString(userIDKey)})
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(AuthHeader, token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user.ID, seen)
	assert.JSONEq(t, `{"id":"`+user.ID+`"}`, rec.Body.String())

	called := false
	router.GET("/guarded", Authenticate(s.tokens, logrus.New()), func(c *gin.Context) { called = true })
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/guarded", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called, "handler must not run without a token")
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	_, token := s.register(t, "alice@example.com", "password123")

	rec := s.do(t, http.MethodPost, "/users/login", "", gin.H{"email": "alice@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code)
	second := rec.Header().Get(AuthHeader)

	rec = s.do(t, http.MethodDelete, "/users/me/token", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/users/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/users/me", second, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "other sessions stay valid")
}

func TestTodoRoutes(t *testing.T) {
	s := newTestServer(t)
	ownerID, token := s.register(t, "owner@example.com", "password123")
	_, otherToken := s.register(t, "other@example.com", "password123")

	rec := s.do(t, http.MethodPost, "/todos", token, gin.H{"text": "testing todo"})
	require.Equal(t, http.StatusOK, rec.Code)
	created := decode[TodoResponse](t, rec)
	assert.Equal(t, "testing todo", created.Text)
	assert.Equal(t, ownerID, created.CreatorID)
	assert.False(t, created.Completed)
	assert.Nil(t, created.CompletedAt)

	rec = s.do(t, http.MethodPost, "/todos", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/todos", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[struct{ Todos []TodoResponse }](t, rec).Todos, 1)

	rec = s.do(t, http.MethodGet, "/todos", otherToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[struct{ Todos []TodoResponse }](t, rec).Todos)

	rec = s.do(t, http.MethodGet, "/todos/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "testing todo", decode[struct{ Todo TodoResponse }](t, rec).Todo.Text)

	for _, path := range []string{"/todos/123abc", "/todos/" + uuid.NewString()} {
		assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, token, nil).Code, path)
		assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, path, token, nil).Code, path)
		assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPatch, path, token, gin.H{"completed": true}).Code, path)
	}
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/todos/"+created.ID, otherToken, nil).Code)

	rec = s.do(t, http.MethodPatch, "/todos/"+created.ID, token, gin.H{"completed": true, "text": "this should be new test"})
	require.Equal(t, http.StatusOK, rec.Code)
	patched := decode[struct{ Todo TodoResponse }](t, rec).Todo
	assert.Equal(t, "this should be new test", patched.Text)
	assert.True(t, patched.Completed)
	require.NotNil(t, patched.CompletedAt)
	assert.Positive(t, *patched.CompletedAt)

	rec = s.do(t, http.MethodPatch, "/todos/"+created.ID, token, gin.H{"completed": false})
	require.Equal(t, http.StatusOK, rec.Code)
	patched = decode[struct{ Todo TodoResponse }](t, rec).Todo
	assert.False(t, patched.Completed)
	assert.Nil(t, patched.CompletedAt)

	rec = s.do(t, http.MethodDelete, "/todos/"+created.ID, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, "/todos/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decode[struct{ Todo TodoResponse }](t, rec).Todo.ID)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/todos/"+created.ID, token, nil).Code)
}

type memStore struct {
	objects map[string]int
}

func (m *memStore) PutObject(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	m.objects[key] = len(body)
	return storage.Location("bucket", key), nil
}

func (m *memStore) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	out := []storage.ObjectInfo{}
	for k, size := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, storage.ObjectInfo{Key: k, Size: int64(size)})
		}
	}
	return out, nil
}

func (m *memStore) DeletePrefix(ctx context.Context, prefix string) error {
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			delete(m.objects, k)
		}
	}
	return nil
}

func (m *memStore) GetObjectURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "https://example.invalid/" + key, nil
}

func TestExportRoutes(t *testing.T) {
	store := &memStore{objects: map[string]int{}}
	s := newTestServer(t, func(d *Deps) {
		d.Exports = service.NewExportService(d.Todos, store, "todo-exports")
	})
	_, token := s.register(t, "alice@example.com", "password123")
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/todos", token, gin.H{"text": "First test todo"}).Code)

	rec := s.do(t, http.MethodPost, "/todos/export", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	export := decode[ExportResponse](t, rec)
	assert.Equal(t, 1, export.Count)
	assert.True(t, strings.HasPrefix(export.Location, "s3://bucket/todo-exports/"))

	rec = s.do(t, http.MethodGet, "/todos/exports", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]StorageObjectResponse](t, rec), 1)

	rec = s.do(t, http.MethodDelete, "/todos/exports", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.objects)
}

func TestExportDisabled(t *testing.T) {
	s := newTestServer(t)
	_, token := s.register(t, "alice@example.com", "password123")

	rec := s.do(t, http.MethodPost, "/todos/export", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthAndCORS(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, AuthHeader, rec.Header().Get("Access-Control-Expose-Headers"))

	rec = s.do(t, http.MethodOptions, "/todos", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
