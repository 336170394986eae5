package service

import (
	"context"
	"testing"
	"time"

	"camera_market/internal/domain"
	"camera_market/internal/session"
	"camera_market/internal/testutil"
	"camera_market/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSessionTTL = 14 * 24 * time.Hour

type fixture struct {
	db      *gorm.DB
	mr      *miniredis.Miniredis
	rdb     *redis.Client
	auth    *AuthService
	catalog *CatalogService
	cart    *CartService
	offers  *OfferService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := testutil.NewDB(t)
	mr, rdb := testutil.NewRedis(t)

	catalog := NewCatalogService(gdb, rdb)
	return &fixture{
		db:      gdb,
		mr:      mr,
		rdb:     rdb,
		auth:    NewAuthService(gdb, session.NewStore(rdb, testSessionTTL), utils.NewPasswordHasher(bcrypt.MinCost), "usd"),
		catalog: catalog,
		cart:    NewCartService(gdb, catalog),
		offers:  NewOfferService(gdb),
	}
}

func (f *fixture) user(t *testing.T, email string) *domain.User {
	t.Helper()
	user, err := f.auth.Register(context.Background(), RegisterInput{
		Name:     "Test User",
		Email:    email,
		Password: "correct-horse",
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) admin(t *testing.T) *domain.User {
	t.Helper()
	admin, err := f.auth.EnsureAdmin(context.Background(), "admin@example.com", "admin-password")
	require.NoError(t, err)
	return admin
}

func (f *fixture) camera(t *testing.T, title, price string) *domain.Camera {
	t.Helper()
	camera, err := f.catalog.Create(context.Background(), CameraInput{
		Title:    title,
		Brand:    "Canon",
		Price:    decimal.RequireFromString(price),
		Currency: "usd",
	})
	require.NoError(t, err)
	return camera
}

func ptr[T any](v T) *T {
	return &v
}
