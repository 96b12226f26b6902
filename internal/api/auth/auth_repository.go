package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-messagely/internal/api"
)

const uniqueViolationCode = "23505"

var _ AuthRepo = (*PostgresAuthRepo)(nil)

// AuthRepo defines the contract for credential persistence.
type AuthRepo interface {
	// InsertUser stores a new user with an already-hashed password.
	// Returns api.ErrConflict if the username is taken.
	InsertUser(ctx context.Context, user User) (*User, error)

	// GetUserByUsername retrieves the full credential record.
	// Returns api.ErrNotFound if the username is unknown.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// UpdateLastLogin sets last_login_at to now and returns the new value.
	// Returns api.ErrNotFound if the username is unknown.
	UpdateLastLogin(ctx context.Context, username string) (time.Time, error)
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	pgpool api.PGXPool
}

func NewPostgresAuthRepo(pgpool api.PGXPool, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresAuthRepo) InsertUser(ctx context.Context, user User) (*User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "InsertUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "InsertUser"), slog.String("username", user.Username))

	query := `
        INSERT INTO users (username, password_hash, first_name, last_name, phone, joined_at)
        VALUES ($1, $2, $3, $4, $5, current_timestamp)
        RETURNING username, first_name, last_name, phone, joined_at, last_login_at`

	var stored User
	err := r.pgpool.QueryRow(ctx, query,
		user.Username, user.PasswordHash, user.FirstName, user.LastName, user.Phone,
	).Scan(&stored.Username, &stored.FirstName, &stored.LastName, &stored.Phone,
		&stored.JoinedAt, &stored.LastLoginAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			l.WarnContext(ctx, "Username already taken")
			span.SetStatus(codes.Error, "duplicate username")
			return nil, fmt.Errorf("username %q: %w", user.Username, api.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		return nil, fmt.Errorf("database error inserting user: %w", err)
	}

	span.SetStatus(codes.Ok, "User inserted")
	return &stored, nil
}

func (r *PostgresAuthRepo) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetUserByUsername", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "GetUserByUsername"), slog.String("username", username))

	query := `
        SELECT username, password_hash, first_name, last_name, phone, joined_at, last_login_at
        FROM users
        WHERE username = $1`

	var user User
	err := r.pgpool.QueryRow(ctx, query, username).Scan(
		&user.Username, &user.PasswordHash, &user.FirstName, &user.LastName,
		&user.Phone, &user.JoinedAt, &user.LastLoginAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "user not found")
			return nil, fmt.Errorf("user %q: %w", username, api.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to query user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}

	span.SetStatus(codes.Ok, "User fetched")
	return &user, nil
}

func (r *PostgresAuthRepo) UpdateLastLogin(ctx context.Context, username string) (time.Time, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "UpdateLastLogin", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "UpdateLastLogin"), slog.String("username", username))

	query := `
        UPDATE users
        SET last_login_at = current_timestamp
        WHERE username = $1
        RETURNING last_login_at`

	var lastLogin time.Time
	err := r.pgpool.QueryRow(ctx, query, username).Scan(&lastLogin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "user not found")
			return time.Time{}, fmt.Errorf("user %q: %w", username, api.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to update last login", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB update failed")
		return time.Time{}, fmt.Errorf("database error updating last login: %w", err)
	}

	span.SetStatus(codes.Ok, "Last login updated")
	return lastLogin, nil
}
