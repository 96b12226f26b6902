package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/go-messagely/config"
	"github.com/FACorreiaa/go-messagely/internal/api"
)

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService defines the interface for authentication operations.
type AuthService interface {
	// Register creates a new user with a hashed password and returns the
	// stored profile. Fails with api.ErrConflict on a taken username.
	Register(ctx context.Context, req RegisterRequest) (*api.UserProfile, error)

	// Authenticate reports whether the username/password pair is valid.
	// An unknown username or a wrong password is (false, nil), not an error.
	Authenticate(ctx context.Context, username, password string) (bool, error)

	// RecordLogin updates and returns last_login_at.
	RecordLogin(ctx context.Context, username string) (time.Time, error)

	// IssueToken produces a signed token binding the username.
	IssueToken(username string) (string, error)

	// VerifyToken validates signature and expiry, returning the identity the
	// token asserts. Any failure maps to api.ErrUnauthenticated.
	VerifyToken(tokenString string) (*api.Identity, error)
}

// AuthServiceImpl implements AuthService on top of an AuthRepo and an
// init-once auth configuration.
type AuthServiceImpl struct {
	logger *slog.Logger
	repo   AuthRepo
	cfg    config.AuthConfig
}

func NewAuthService(repo AuthRepo, cfg config.AuthConfig, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		cfg:    cfg,
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, req RegisterRequest) (*api.UserProfile, error) {
	l := s.logger.With(slog.String("method", "Register"), slog.String("username", req.Username))

	if req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("username and password are required: %w", api.ErrBadRequest)
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		l.ErrorContext(ctx, "Failed to hash password", slog.Any("error", err))
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	stored, err := s.repo.InsertUser(ctx, User{
		Username:     req.Username,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
	})
	if err != nil {
		return nil, err
	}

	l.InfoContext(ctx, "User registered")
	return stored.Profile(), nil
}

func (s *AuthServiceImpl) Authenticate(ctx context.Context, username, password string) (bool, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		// An unknown username is a legitimate negative, not an error.
		if errors.Is(err, api.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	return err == nil, nil
}

func (s *AuthServiceImpl) RecordLogin(ctx context.Context, username string) (time.Time, error) {
	return s.repo.UpdateLastLogin(ctx, username)
}

func (s *AuthServiceImpl) IssueToken(username string) (string, error) {
	now := time.Now()
	claims := &api.Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *AuthServiceImpl) VerifyToken(tokenString string) (*api.Identity, error) {
	claims := &api.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.SecretKey), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("token has expired: %w", api.ErrUnauthenticated)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("malformed token: %w", api.ErrUnauthenticated)
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return nil, fmt.Errorf("invalid token signature: %w", api.ErrUnauthenticated)
		default:
			return nil, fmt.Errorf("invalid token: %w", api.ErrUnauthenticated)
		}
	}

	if !token.Valid || claims.Username == "" {
		return nil, fmt.Errorf("invalid token claims: %w", api.ErrUnauthenticated)
	}
	if s.cfg.Issuer != "" && claims.Issuer != s.cfg.Issuer {
		return nil, fmt.Errorf("invalid token issuer: %w", api.ErrUnauthenticated)
	}

	return &api.Identity{Username: claims.Username}, nil
}

// hashPassword applies the configured bcrypt work factor.
func (s *AuthServiceImpl) hashPassword(password string) (string, error) {
	cost := s.cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
