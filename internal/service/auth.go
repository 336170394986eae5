// Package service holds the marketplace business rules: sessions, catalog, cart, offers,
// exchange quotes and media uploads. HTTP concerns stay in package api.
package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"camera_market/internal/apperror"
	"camera_market/internal/db"
	"camera_market/internal/domain"
	"camera_market/internal/session"
	"camera_market/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	minNameLen     = 2
	maxNameLen     = 120
	minPasswordLen = 8
)

// AuthService issues, resolves and revokes sessions.
type AuthService struct {
	db              *gorm.DB
	sessions        *session.Store
	hasher          *utils.PasswordHasher
	defaultCurrency string
}

// NewAuthService wires the authorization pipeline.
func NewAuthService(gdb *gorm.DB, sessions *session.Store, hasher *utils.PasswordHasher, defaultCurrency string) *AuthService {
	return &AuthService{
		db:              gdb,
		sessions:        sessions,
		hasher:          hasher,
		defaultCurrency: strings.ToUpper(defaultCurrency),
	}
}

// RegisterInput is the data needed to open an account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	Token            string       `json:"token"`
	ExpiresInSeconds int          `json:"expires_in_seconds"`
	User             *domain.User `json:"user"`
}

// Register creates a regular (non-admin) user.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	if len(name) < minNameLen || len(name) > maxNameLen {
		return nil, apperror.InvalidInput("name", "name must be between 2 and 120 characters")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLen || len(in.Password) > utils.MaxPasswordBytes {
		return nil, apperror.InvalidInput("password", "password must be between 8 and 72 bytes")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Name:              name,
		Email:             email,
		PasswordHash:      hash,
		PreferredCurrency: s.defaultCurrency,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return db.Unavailable(err)
		}
		if count > 0 {
			return apperror.Conflict("email already registered")
		}
		if err := tx.Create(user).Error; err != nil {
			if db.IsUniqueViolation(err) {
				return apperror.Conflict("email already registered")
			}
			return db.Unavailable(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID}).Info("User registered")
	return user, nil
}

// Login verifies credentials and opens a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	invalid := apperror.Unauthorized("invalid credentials")

	var user domain.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, db.Unavailable(err)
	}
	if err := s.hasher.Verify(password, user.PasswordHash); err != nil {
		return nil, invalid
	}

	token, err := s.sessions.Create(ctx, user.ID.String())
	if err != nil {
		return nil, apperror.Unavailable("session store", err)
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID}).Info("Session opened")
	return &LoginResult{
		Token:            token,
		ExpiresInSeconds: int(s.sessions.TTL().Seconds()),
		User:             &user,
	}, nil
}

// Logout revokes the session. Unknown tokens succeed.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return apperror.Unauthorized("missing session token")
	}
	if err := s.sessions.Revoke(ctx, token); err != nil {
		return apperror.Unavailable("session store", err)
	}
	return nil
}

// Authenticate resolves a session token to its user and slides the session expiry.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, apperror.Unauthorized("missing session token")
	}
	invalid := apperror.Unauthorized("invalid session")

	rawID, found, err := s.sessions.Lookup(ctx, token)
	switch {
	case errors.Is(err, session.ErrMalformed):
		return nil, invalid
	case err != nil:
		return nil, apperror.Unavailable("session store", err)
	case !found:
		return nil, invalid
	}

	userID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, invalid
	}

	var user domain.User
	err = s.db.WithContext(ctx).Take(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, db.Unavailable(err)
	}

	// Only ever lengthens validity, so a lost race with another request is harmless.
	if err := s.sessions.Touch(ctx, token); err != nil {
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "error": err.Error()}).Warn("Session refresh failed")
	}
	return &user, nil
}

// RequireAdmin is Authenticate plus the admin capability check.
func (s *AuthService) RequireAdmin(ctx context.Context, token string) (*domain.User, error) {
	user, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin {
		return nil, apperror.Forbidden("admin access required")
	}
	return user, nil
}

// EnsureAdmin creates or resets the bootstrap administrator.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (*domain.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	var admin domain.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", email).Take(&admin).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			admin = domain.User{Name: "Administrator", Email: email}
		case err != nil:
			return err
		}
		admin.PasswordHash = hash
		admin.IsAdmin = true
		admin.PreferredCurrency = s.defaultCurrency
		return tx.Save(&admin).Error
	})
	if err != nil {
		return nil, db.Unavailable(err)
	}
	return &admin, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperror.InvalidInput("email", "email address is not valid")
	}
	return email, nil
}
