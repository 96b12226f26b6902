package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-messagely/internal/api"
)

var _ UserRepo = (*PostgresUserRepo)(nil)

// UserRepo defines the contract for user profile reads.
type UserRepo interface {
	// ListUsers returns the public summary of every user, ordered by username.
	ListUsers(ctx context.Context) ([]api.UserSummary, error)

	// GetUserProfile returns the full profile (no credentials).
	// Returns api.ErrNotFound if the username is unknown.
	GetUserProfile(ctx context.Context, username string) (*api.UserProfile, error)
}

type PostgresUserRepo struct {
	logger *slog.Logger
	pgpool api.PGXPool
}

func NewPostgresUserRepo(pgpool api.PGXPool, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresUserRepo) ListUsers(ctx context.Context) ([]api.UserSummary, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "ListUsers", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "ListUsers"))

	query := `
        SELECT username, first_name, last_name, phone
        FROM users
        ORDER BY username`

	rows, err := r.pgpool.Query(ctx, query)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query users", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching users: %w", err)
	}
	defer rows.Close()

	var users []api.UserSummary
	for rows.Next() {
		var u api.UserSummary
		if err := rows.Scan(&u.Username, &u.FirstName, &u.LastName, &u.Phone); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("database error scanning user: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("database error reading users: %w", err)
	}

	span.SetStatus(codes.Ok, "Users fetched")
	return users, nil
}

func (r *PostgresUserRepo) GetUserProfile(ctx context.Context, username string) (*api.UserProfile, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "GetUserProfile", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "GetUserProfile"), slog.String("username", username))

	query := `
        SELECT username, first_name, last_name, phone, joined_at, last_login_at
        FROM users
        WHERE username = $1`

	var profile api.UserProfile
	err := r.pgpool.QueryRow(ctx, query, username).Scan(
		&profile.Username, &profile.FirstName, &profile.LastName,
		&profile.Phone, &profile.JoinedAt, &profile.LastLoginAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "user not found")
			return nil, fmt.Errorf("user %q: %w", username, api.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to query user profile", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching user profile: %w", err)
	}

	span.SetStatus(codes.Ok, "User profile fetched")
	return &profile, nil
}
