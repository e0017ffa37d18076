// Package services – UserService
//
// This file implements registration and authentication. Passwords are hashed
// with bcrypt before they reach the repository; successful logins are
// exchanged for an HS256 JWT whose subject is the user ID. Token verification
// lives in the HTTP middleware; this service only issues tokens.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/contactly/go-contacts-backend/internal/domain"
	"github.com/contactly/go-contacts-backend/internal/repo"
)

// minPasswordLen is the minimum accepted password length for registration.
const minPasswordLen = 6

// bcryptCost is deliberately modest; the original deployment used the same
// work factor and login latency matters more than brute-force margin here.
const bcryptCost = 6

// UserRepo defines the repository contract required by UserService.
type UserRepo interface {
	// CreateUser inserts a user with an already-hashed password.
	CreateUser(ctx context.Context, db *gorm.DB, name, email, passwordHash string) (*domain.User, error)

	// FindUserByEmail fetches a user by email, or repo.ErrNotFound.
	FindUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error)

	// FindUserByID fetches a user by ID, or repo.ErrNotFound.
	FindUserByID(ctx context.Context, db *gorm.DB, id string) (*domain.User, error)
}

// UserService provides account registration and credential verification.
type UserService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the user repository used by this service.
	Repo UserRepo

	// JWTSecret signs issued tokens (HS256).
	JWTSecret string
	// TokenTTL bounds the issued token lifetime.
	TokenTTL time.Duration
}

// NewUserService constructs a UserService issuing tokens with the given
// secret and lifetime.
func NewUserService(db *gorm.DB, r UserRepo, secret string, ttl time.Duration) *UserService {
	return &UserService{DB: db, Repo: r, JWTSecret: secret, TokenTTL: ttl}
}

// Register creates a new account. The password must be at least six
// characters; the email must not belong to an existing user.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}
	if _, err := s.Repo.FindUserByEmail(ctx, s.DB, email); err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}
	return s.Repo.CreateUser(ctx, s.DB, name, email, string(hash))
}

// Authenticate verifies credentials and returns the user plus a signed JWT.
// Unknown email and wrong password both yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.Repo.FindUserByEmail(ctx, s.DB, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Profile fetches a user by ID, mapping repository misses to ErrUserNotFound.
func (s *UserService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.Repo.FindUserByID(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// issueToken signs an HS256 JWT with sub=userID and the configured TTL.
func (s *UserService) issueToken(userID string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.TokenTTL)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(s.JWTSecret))
}
