package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"camera_market/internal/apperror"
	"camera_market/internal/domain"
	"camera_market/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth struct {
	users map[string]*domain.User
	down  bool
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*domain.User, error) {
	if f.down {
		return nil, apperror.Unavailable("session store", errors.New("dial tcp: refused"))
	}
	if token == "" {
		return nil, apperror.Unauthorized("missing session token")
	}
	user, ok := f.users[token]
	if !ok {
		return nil, apperror.Unauthorized("invalid session")
	}
	return user, nil
}

func (f *fakeAuth) RequireAdmin(ctx context.Context, token string) (*domain.User, error) {
	user, err := f.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin {
		return nil, apperror.Forbidden("admin access required")
	}
	return user, nil
}

func newAuth() *fakeAuth {
	return &fakeAuth{users: map[string]*domain.User{
		"user-token":  {ID: uuid.New(), Email: "ana@example.com"},
		"admin-token": {ID: uuid.New(), Email: "admin@example.com", IsAdmin: true},
	}}
}

func whoAmI(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"email": CurrentUser(c).Email})
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorKind(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestSessionToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		value  string
		want   string
	}{
		{"session header", SessionHeader, "abc", "abc"},
		{"bearer", "Authorization", "Bearer abc", "abc"},
		{"lowercase bearer", "Authorization", "bearer abc", "abc"},
		{"basic auth ignored", "Authorization", "Basic abc", ""},
		{"none", "X-Other", "abc", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Request.Header.Set(tt.header, tt.value)
			assert.Equal(t, tt.want, SessionToken(c))
		})
	}
}

func TestSessionAuth(t *testing.T) {
	auth := newAuth()
	r := gin.New()
	r.GET("/me", SessionAuth(auth), whoAmI)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(SessionHeader, "user-token")
	w := do(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"ana@example.com"}`, w.Body.String())

	w = do(r, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", errorKind(t, w))

	auth.down = true
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(SessionHeader, "user-token")
	w = do(r, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unavailable", errorKind(t, w))
}

func TestAdminOnly(t *testing.T) {
	r := gin.New()
	r.GET("/admin", AdminOnly(newAuth()), whoAmI)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	assert.Equal(t, http.StatusOK, do(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(SessionHeader, "user-token")
	w := do(r, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", errorKind(t, w))

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(SessionHeader, "expired")
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)
}

func TestFixedWindowLimiter(t *testing.T) {
	mr, rdb := testutil.NewRedis(t)
	limiter, err := NewFixedWindowLimiter(rdb, "test", 2, time.Minute)
	require.NoError(t, err)
	limiter.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 30, 0, time.UTC) }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := limiter.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = limiter.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.True(t, ok, "quota is per key")

	limiter.now = func() time.Time { return time.Date(2026, 1, 1, 0, 1, 30, 0, time.UTC) }
	ok, err = limiter.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok, "next window starts fresh")

	keys := mr.Keys()
	require.NotEmpty(t, keys)
	assert.Equal(t, time.Minute, mr.TTL(keys[0]))

	_, err = NewFixedWindowLimiter(rdb, "", 0, time.Minute)
	assert.Error(t, err)
}

func TestRateLimitMiddleware(t *testing.T) {
	mr, rdb := testutil.NewRedis(t)
	limiter, err := NewFixedWindowLimiter(rdb, "test", 1, time.Minute)
	require.NoError(t, err)

	r := gin.New()
	r.POST("/auth/login", RateLimit(limiter, "login"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, do(r, httptest.NewRequest(http.MethodPost, "/auth/login", nil)).Code)
	w := do(r, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate_limited", errorKind(t, w))
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	mr.Close()
	w = do(r, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRateLimitDisabled(t *testing.T) {
	r := gin.New()
	r.GET("/", RateLimit(nil, "login"), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), RequestLog())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFrom(c)) })

	w := do(r, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w = do(r, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "req-123", w.Body.String())
}
