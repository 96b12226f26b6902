package message

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-messagely/app/observability/metrics"
	"github.com/FACorreiaa/go-messagely/internal/api"
)

func TestPostgresMessageRepo_InsertMessage(t *testing.T) {
	metrics.InitAppMetrics()
	logger := slog.Default()

	t.Run("Success", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPostgresMessageRepo(mockPool, logger)
		id := uuid.New()
		sentAt := time.Now()

		mockPool.ExpectQuery("INSERT INTO messages").
			WithArgs("alice", "bob", "hi bob").
			WillReturnRows(pgxmock.NewRows([]string{"id", "sent_at"}).AddRow(id, sentAt))

		gotID, gotSentAt, err := repo.InsertMessage(context.Background(), "alice", "bob", "hi bob")
		assert.NoError(t, err)
		assert.Equal(t, id, gotID)
		assert.Equal(t, sentAt, gotSentAt)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("UnknownRecipient", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPostgresMessageRepo(mockPool, logger)

		mockPool.ExpectQuery("INSERT INTO messages").
			WithArgs("alice", "nobody", "hello?").
			WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "messages_to_username_fkey"})

		_, _, err = repo.InsertMessage(context.Background(), "alice", "nobody", "hello?")
		assert.ErrorIs(t, err, api.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPostgresMessageRepo_GetMessageByID(t *testing.T) {
	metrics.InitAppMetrics()
	logger := slog.Default()

	t.Run("Found", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPostgresMessageRepo(mockPool, logger)
		id := uuid.New()
		sentAt := time.Now()

		mockPool.ExpectQuery("SELECT m.id, m.body").
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows([]string{
				"id", "body", "sent_at", "read_at",
				"f_username", "f_first_name", "f_last_name", "f_phone",
				"t_username", "t_first_name", "t_last_name", "t_phone"}).
				AddRow(id, "hi bob", sentAt, (*time.Time)(nil),
					"alice", "Alice", "Liddell", "+15551111111",
					"bob", "Bob", "Builder", "+15552222222"))

		msg, err := repo.GetMessageByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "hi bob", msg.Body)
		assert.Equal(t, "alice", msg.FromUser.Username)
		assert.Equal(t, "bob", msg.ToUser.Username)
		assert.Nil(t, msg.ReadAt)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPostgresMessageRepo(mockPool, logger)
		id := uuid.New()

		mockPool.ExpectQuery("SELECT m.id, m.body").
			WithArgs(id).
			WillReturnError(pgx.ErrNoRows)

		msg, err := repo.GetMessageByID(context.Background(), id)
		assert.Nil(t, msg)
		assert.ErrorIs(t, err, api.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPostgresMessageRepo_UpdateMessageReadAt(t *testing.T) {
	metrics.InitAppMetrics()
	logger := slog.Default()

	t.Run("FirstMark", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPostgresMessageRepo(mockPool, logger)
		id := uuid.New()

		mockPool.ExpectExec("UPDATE messages").
			WithArgs(id).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err = repo.UpdateMessageReadAt(context.Background(), id)
		assert.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("AlreadyReadIsNoOp", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPostgresMessageRepo(mockPool, logger)
		id := uuid.New()

		mockPool.ExpectExec("UPDATE messages").
			WithArgs(id).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err = repo.UpdateMessageReadAt(context.Background(), id)
		assert.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPostgresMessageRepo_Listings(t *testing.T) {
	metrics.InitAppMetrics()
	logger := slog.Default()

	t.Run("ListMessagesFrom", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPostgresMessageRepo(mockPool, logger)
		first := uuid.New()
		second := uuid.New()
		sentAt := time.Now()
		readAt := sentAt.Add(time.Minute)

		mockPool.ExpectQuery("SELECT m.id, m.body").
			WithArgs("alice").
			WillReturnRows(pgxmock.NewRows([]string{
				"id", "body", "sent_at", "read_at",
				"username", "first_name", "last_name", "phone"}).
				AddRow(first, "hi bob", sentAt, &readAt,
					"bob", "Bob", "Builder", "+15552222222").
				AddRow(second, "hi carol", sentAt.Add(time.Hour), (*time.Time)(nil),
					"carol", "Carol", "Danvers", "+15553333333"))

		sent, err := repo.ListMessagesFrom(context.Background(), "alice")
		require.NoError(t, err)
		require.Len(t, sent, 2)
		assert.Equal(t, "bob", sent[0].ToUser.Username)
		assert.NotNil(t, sent[0].ReadAt)
		assert.Equal(t, "carol", sent[1].ToUser.Username)
		assert.Nil(t, sent[1].ReadAt)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("ListMessagesToEmpty", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPostgresMessageRepo(mockPool, logger)

		mockPool.ExpectQuery("SELECT m.id, m.body").
			WithArgs("loner").
			WillReturnRows(pgxmock.NewRows([]string{
				"id", "body", "sent_at", "read_at",
				"username", "first_name", "last_name", "phone"}))

		received, err := repo.ListMessagesTo(context.Background(), "loner")
		assert.NoError(t, err)
		assert.Empty(t, received)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
