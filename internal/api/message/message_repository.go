package message

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-messagely/app/observability/metrics"
	"github.com/FACorreiaa/go-messagely/internal/api"
)

var _ MessageRepo = (*PostgresMessageRepo)(nil)

// MessageRepo defines the contract for message persistence.
type MessageRepo interface {
	// InsertMessage persists a new message; id and sent_at are assigned by
	// the store and read_at starts null.
	InsertMessage(ctx context.Context, fromUsername, toUsername, body string) (uuid.UUID, time.Time, error)

	// GetMessageByID returns the hydrated message with both parties' public
	// profiles. Returns api.ErrNotFound for an unknown id.
	GetMessageByID(ctx context.Context, id uuid.UUID) (*Message, error)

	// UpdateMessageReadAt sets read_at once. A message already read is left
	// untouched; read_at never moves backward.
	UpdateMessageReadAt(ctx context.Context, id uuid.UUID) error

	// ListMessagesFrom returns messages sent by the user, recipient profile
	// embedded, ordered by sent_at ascending.
	ListMessagesFrom(ctx context.Context, username string) ([]SentMessage, error)

	// ListMessagesTo returns messages received by the user, sender profile
	// embedded, ordered by sent_at ascending.
	ListMessagesTo(ctx context.Context, username string) ([]ReceivedMessage, error)
}

type PostgresMessageRepo struct {
	logger *slog.Logger
	pgpool api.PGXPool
}

func NewPostgresMessageRepo(pgpool api.PGXPool, logger *slog.Logger) *PostgresMessageRepo {
	return &PostgresMessageRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresMessageRepo) InsertMessage(ctx context.Context, fromUsername, toUsername, body string) (uuid.UUID, time.Time, error) {
	ctx, span := otel.Tracer("MessageRepo").Start(ctx, "InsertMessage", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "messages"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "InsertMessage"),
		slog.String("from", fromUsername), slog.String("to", toUsername))

	start := time.Now()
	query := `
        INSERT INTO messages (from_username, to_username, body, sent_at)
        VALUES ($1, $2, $3, current_timestamp)
        RETURNING id, sent_at`

	var id uuid.UUID
	var sentAt time.Time
	err := r.pgpool.QueryRow(ctx, query, fromUsername, toUsername, body).Scan(&id, &sentAt)
	metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			// Recipient (or sender) no longer exists.
			span.SetStatus(codes.Error, "unknown message party")
			return uuid.Nil, time.Time{}, fmt.Errorf("unknown message party: %w", api.ErrNotFound)
		}
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		l.ErrorContext(ctx, "Failed to insert message", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		return uuid.Nil, time.Time{}, fmt.Errorf("database error inserting message: %w", err)
	}

	span.SetStatus(codes.Ok, "Message inserted")
	return id, sentAt, nil
}

func (r *PostgresMessageRepo) GetMessageByID(ctx context.Context, id uuid.UUID) (*Message, error) {
	ctx, span := otel.Tracer("MessageRepo").Start(ctx, "GetMessageByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "messages, users"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "GetMessageByID"), slog.String("messageID", id.String()))

	query := `
        SELECT m.id, m.body, m.sent_at, m.read_at,
               f.username, f.first_name, f.last_name, f.phone,
               t.username, t.first_name, t.last_name, t.phone
        FROM messages m
        JOIN users f ON f.username = m.from_username
        JOIN users t ON t.username = m.to_username
        WHERE m.id = $1`

	var m Message
	err := r.pgpool.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.Body, &m.SentAt, &m.ReadAt,
		&m.FromUser.Username, &m.FromUser.FirstName, &m.FromUser.LastName, &m.FromUser.Phone,
		&m.ToUser.Username, &m.ToUser.FirstName, &m.ToUser.LastName, &m.ToUser.Phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "message not found")
			return nil, fmt.Errorf("message %s: %w", id, api.ErrNotFound)
		}
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		l.ErrorContext(ctx, "Failed to query message", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching message: %w", err)
	}

	span.SetStatus(codes.Ok, "Message fetched")
	return &m, nil
}

func (r *PostgresMessageRepo) UpdateMessageReadAt(ctx context.Context, id uuid.UUID) error {
	ctx, span := otel.Tracer("MessageRepo").Start(ctx, "UpdateMessageReadAt", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "messages"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "UpdateMessageReadAt"), slog.String("messageID", id.String()))

	// The read_at IS NULL guard makes repeated marks a no-op: the timestamp
	// is set exactly once and never reverted.
	query := `
        UPDATE messages
        SET read_at = current_timestamp
        WHERE id = $1 AND read_at IS NULL`

	tag, err := r.pgpool.Exec(ctx, query, id)
	if err != nil {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		l.ErrorContext(ctx, "Failed to update read_at", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB update failed")
		return fmt.Errorf("database error marking message read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Already read, or unknown id; the caller resolves which by re-reading.
		l.DebugContext(ctx, "No rows updated marking message read")
	}

	span.SetStatus(codes.Ok, "Message marked read")
	return nil
}

func (r *PostgresMessageRepo) ListMessagesFrom(ctx context.Context, username string) ([]SentMessage, error) {
	ctx, span := otel.Tracer("MessageRepo").Start(ctx, "ListMessagesFrom", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "messages, users"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "ListMessagesFrom"), slog.String("username", username))

	query := `
        SELECT m.id, m.body, m.sent_at, m.read_at,
               u.username, u.first_name, u.last_name, u.phone
        FROM messages m
        JOIN users u ON u.username = m.to_username
        WHERE m.from_username = $1
        ORDER BY m.sent_at`

	rows, err := r.pgpool.Query(ctx, query, username)
	if err != nil {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		l.ErrorContext(ctx, "Failed to query sent messages", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching sent messages: %w", err)
	}
	defer rows.Close()

	var messages []SentMessage
	for rows.Next() {
		var m SentMessage
		err := rows.Scan(&m.ID, &m.Body, &m.SentAt, &m.ReadAt,
			&m.ToUser.Username, &m.ToUser.FirstName, &m.ToUser.LastName, &m.ToUser.Phone)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("database error scanning sent message: %w", err)
		}
		messages = append(messages, m)
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("database error reading sent messages: %w", err)
	}

	l.DebugContext(ctx, "Fetched sent messages", slog.Int("count", len(messages)))
	span.SetStatus(codes.Ok, "Sent messages fetched")
	return messages, nil
}

func (r *PostgresMessageRepo) ListMessagesTo(ctx context.Context, username string) ([]ReceivedMessage, error) {
	ctx, span := otel.Tracer("MessageRepo").Start(ctx, "ListMessagesTo", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "messages, users"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "ListMessagesTo"), slog.String("username", username))

	query := `
        SELECT m.id, m.body, m.sent_at, m.read_at,
               u.username, u.first_name, u.last_name, u.phone
        FROM messages m
        JOIN users u ON u.username = m.from_username
        WHERE m.to_username = $1
        ORDER BY m.sent_at`

	rows, err := r.pgpool.Query(ctx, query, username)
	if err != nil {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		l.ErrorContext(ctx, "Failed to query received messages", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching received messages: %w", err)
	}
	defer rows.Close()

	var messages []ReceivedMessage
	for rows.Next() {
		var m ReceivedMessage
		err := rows.Scan(&m.ID, &m.Body, &m.SentAt, &m.ReadAt,
			&m.FromUser.Username, &m.FromUser.FirstName, &m.FromUser.LastName, &m.FromUser.Phone)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("database error scanning received message: %w", err)
		}
		messages = append(messages, m)
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("database error reading received messages: %w", err)
	}

	l.DebugContext(ctx, "Fetched received messages", slog.Int("count", len(messages)))
	span.SetStatus(codes.Ok, "Received messages fetched")
	return messages, nil
}
