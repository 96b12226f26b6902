package api

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors shared by every feature package. Repositories and services
// return these wrapped; handlers map them to HTTP statuses with errors.Is.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrForbidden       = errors.New("action forbidden")
	ErrBadRequest      = errors.New("invalid request payload")
)

// PGXPool is the subset of pgxpool.Pool the repositories use. Declared as an
// interface so repository tests can run against pgxmock.
type PGXPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Claims represents the custom claims included in the JWT access token.
type Claims struct {
	Username             string `json:"username"`
	jwt.RegisteredClaims        // Embed standard claims (ExpiresAt, IssuedAt, Issuer, etc.).
}

// Identity is the authenticated identity derived from a verified token.
// Transient, one request's lifetime.
type Identity struct {
	Username string
}

// UserSummary is the public profile subset denormalized into message
// projections: never includes the password hash or timestamps.
type UserSummary struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// UserProfile is the full stored profile, excluding the password hash.
type UserProfile struct {
	Username    string     `json:"username"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Phone       string     `json:"phone"`
	JoinedAt    time.Time  `json:"joined_at"`
	LastLoginAt *time.Time `json:"last_login_at"`
}
