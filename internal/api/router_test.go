package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"camera_market/internal/media"
	"camera_market/internal/middleware"
	"camera_market/internal/service"
	"camera_market/internal/session"
	"camera_market/internal/testutil"
	"camera_market/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t          *testing.T
	router     *gin.Engine
	auth       *service.AuthService
	adminToken string
}

func newTestServer(t *testing.T, loginLimit int) *testServer {
	t.Helper()
	gdb := testutil.NewDB(t)
	_, rdb := testutil.NewRedis(t)

	rates := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rates":{"MXN":17.1,"EUR":0.92}}`))
	}))
	t.Cleanup(rates.Close)

	store, err := media.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	auth := service.NewAuthService(gdb, session.NewStore(rdb, time.Hour), utils.NewPasswordHasher(bcrypt.MinCost), "USD")
	catalog := service.NewCatalogService(gdb, rdb)
	deps := Deps{
		Auth:       auth,
		Catalog:    catalog,
		Cart:       service.NewCartService(gdb, catalog),
		Offers:     service.NewOfferService(gdb),
		Exchange:   service.NewExchangeService(rates.URL, rdb),
		Media:      service.NewMediaService(store),
		MediaStore: store,
	}
	if loginLimit > 0 {
		deps.LoginLimiter, err = middleware.NewFixedWindowLimiter(rdb, "ratelimit", loginLimit, time.Minute)
		require.NoError(t, err)
	}

	_, err = auth.EnsureAdmin(context.Background(), "admin@example.com", "admin-password")
	require.NoError(t, err)
	res, err := auth.Login(context.Background(), "admin@example.com", "admin-password")
	require.NoError(t, err)

	return &testServer{t: t, router: NewRouter(deps), auth: auth, adminToken: res.Token}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(middleware.SessionHeader, token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) userToken(email string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/auth/register", "", gin.H{"name": "Ana", "email": email, "password": "correct-horse"})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	w = s.do(http.MethodPost, "/auth/login", "", gin.H{"email": email, "password": "correct-horse"})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		Token string `json:"token"`
	}
	decode(s.t, w, &res)
	return res.Token
}

func (s *testServer) createCamera(title string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/cameras", s.adminToken, gin.H{"title": title, "brand": "Canon", "price": 150.5})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var camera struct {
		ID string `json:"id"`
	}
	decode(s.t, w, &camera)
	return camera.ID
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorKind(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, w, &body)
	return body.Error
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, 0)
	w := s.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, 0)
	token := s.userToken("ana@example.com")

	w := s.do(http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me map[string]any
	decode(t, w, &me)
	assert.Equal(t, "ana@example.com", me["email"])
	assert.NotContains(t, me, "password_hash")

	w = s.do(http.MethodPost, "/auth/register", "", gin.H{"name": "Ana", "email": "ana@example.com", "password": "correct-horse"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", errorKind(t, w))

	w = s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "ana@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/auth/register", "", gin.H{"name": "Ana"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_input", errorKind(t, w))

	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/auth/logout", token, nil).Code)
	w = s.do(http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", errorKind(t, w))
}

func TestCameraRoutes(t *testing.T) {
	s := newTestServer(t, 0)
	userToken := s.userToken("ana@example.com")

	w := s.do(http.MethodPost, "/cameras", userToken, gin.H{"title": "AE-1", "brand": "Canon", "price": 10})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", errorKind(t, w))

	w = s.do(http.MethodPost, "/cameras", "", gin.H{"title": "AE-1", "brand": "Canon", "price": 10})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/cameras", s.adminToken, gin.H{"title": "AE-1", "brand": "Canon", "price": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	id := s.createCamera("AE-1")

	w = s.do(http.MethodGet, "/cameras", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Items []service.CameraView `json:"items"`
	}
	decode(t, w, &list)
	require.Len(t, list.Items, 1)
	assert.Equal(t, 150.5, list.Items[0].Price)
	assert.Equal(t, int64(15050), list.Items[0].PriceCents)

	w = s.do(http.MethodPatch, "/cameras/"+id, s.adminToken, gin.H{"status": "reserved", "price": "99.99"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated service.CameraView
	decode(t, w, &updated)
	assert.Equal(t, "reserved", string(updated.Status))
	assert.Equal(t, int64(9999), updated.PriceCents)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/cameras/"+id, "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/cameras/not-a-uuid", "", nil).Code)

	assert.Equal(t, http.StatusOK, s.do(http.MethodDelete, "/cameras/"+id, s.adminToken, nil).Code)
	w = s.do(http.MethodGet, "/cameras/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", errorKind(t, w))
}

func TestCartRoutes(t *testing.T) {
	s := newTestServer(t, 0)
	ana := s.userToken("ana@example.com")
	bo := s.userToken("bo@example.com")
	id := s.createCamera("AE-1")

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/cart", "", nil).Code)

	w := s.do(http.MethodPost, "/cart", ana, gin.H{"camera_id": id})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/cart", bo, gin.H{"camera_id": id})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/cart", ana, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items []CartItemView
	decode(t, w, &items)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Camera)
	assert.Equal(t, "AE-1", items[0].Camera.Title)

	w = s.do(http.MethodPost, "/cart/checkout", ana, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var checkout struct {
		Count int `json:"count"`
	}
	decode(t, w, &checkout)
	assert.Equal(t, 1, checkout.Count)

	w = s.do(http.MethodPost, "/cart", ana, gin.H{"camera_id": id})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_state", errorKind(t, w))

	w = s.do(http.MethodDelete, "/cart/"+id, ana, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOfferRoutes(t *testing.T) {
	s := newTestServer(t, 0)
	ana := s.userToken("ana@example.com")
	bo := s.userToken("bo@example.com")

	offer := gin.H{
		"camera_title":  "Pentax K1000",
		"brand":         "Pentax",
		"condition":     "Good",
		"asking_price":  120,
		"notes":         "Light seals replaced",
		"image_gallery": []string{"/uploads/cameras/a.jpg", "/uploads/cameras/b.jpg"},
	}
	w := s.do(http.MethodPost, "/offers", ana, offer)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	offer["image_gallery"] = []string{"/uploads/cameras/a.jpg", "/uploads/cameras/b.jpg", "/uploads/cameras/c.jpg"}
	w = s.do(http.MethodPost, "/offers", ana, offer)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decode(t, w, &created)
	assert.Equal(t, "pending", created.Status)

	decision := "/offers/" + created.ID + "/decision"
	w = s.do(http.MethodPost, decision, s.adminToken, gin.H{"action": "countered"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, decision, s.adminToken, gin.H{"action": "pending"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, decision, bo, gin.H{"action": "accepted"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, decision, s.adminToken, gin.H{"action": "countered", "counter_amount": 150})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var decided struct {
		Status            string `json:"status"`
		CounterOfferCents *int64 `json:"counter_offer_cents"`
	}
	decode(t, w, &decided)
	assert.Equal(t, "countered", decided.Status)
	require.NotNil(t, decided.CounterOfferCents)
	assert.Equal(t, int64(15000), *decided.CounterOfferCents)

	w = s.do(http.MethodGet, "/offers/me", ana, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine struct {
		Items []map[string]any `json:"items"`
	}
	decode(t, w, &mine)
	assert.Len(t, mine.Items, 1)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/offers/admin", ana, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/offers/admin", s.adminToken, nil).Code)
}

func TestCurrencyRoute(t *testing.T) {
	s := newTestServer(t, 0)

	w := s.do(http.MethodGet, "/currency/rates?base=usd&symbols=MXN,EUR", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		Quotes []service.Quote `json:"quotes"`
	}
	decode(t, w, &res)
	require.Len(t, res.Quotes, 2)
	assert.Equal(t, "EUR", res.Quotes[0].QuoteCurrency)
	assert.Equal(t, "USD", res.Quotes[0].BaseCurrency)

	w = s.do(http.MethodGet, "/currency/rates?base=DOLLARS", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMediaUploadRoute(t *testing.T) {
	s := newTestServer(t, 0)
	token := s.userToken("ana@example.com")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("files", "front.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("png-bytes"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/media/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(middleware.SessionHeader, token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res struct {
		Files []service.SavedFile `json:"files"`
	}
	decode(t, w, &res)
	require.Len(t, res.Files, 1)
	assert.True(t, strings.HasPrefix(res.Files[0].Path, "/uploads/cameras/"))

	w = s.do(http.MethodGet, res.Files[0].Path, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png-bytes", w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/media/upload", strings.NewReader("x"))
	req.Header.Set(middleware.SessionHeader, token)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginRateLimit(t *testing.T) {
	s := newTestServer(t, 2)

	creds := gin.H{"email": "nobody@example.com", "password": "whatever-pass"}
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/auth/login", "", creds).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/auth/login", "", creds).Code)
	assert.Equal(t, http.StatusTooManyRequests, s.do(http.MethodPost, "/auth/login", "", creds).Code)
}
