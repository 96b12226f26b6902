package message

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-messagely/app/observability/metrics"
	"github.com/FACorreiaa/go-messagely/internal/api"
	"github.com/FACorreiaa/go-messagely/internal/notify"
)

const notifyTimeout = 10 * time.Second

var _ MessageService = (*MessageServiceImpl)(nil)

// MessageService defines the message domain operations. Access-control
// decisions come from the guard predicates; operations taking an identity
// convert a negative guard answer into api.ErrUnauthenticated.
type MessageService interface {
	// Create persists a new message from the authenticated sender and kicks
	// off the post-creation notification. Notification delivery has its own
	// failure domain: the message send succeeds regardless.
	Create(ctx context.Context, fromUsername, toUsername, body string) (*Message, error)

	// Get returns the hydrated message iff the identity is sender or recipient.
	Get(ctx context.Context, identity api.Identity, id uuid.UUID) (*Message, error)

	// MarkRead sets read_at iff the identity is the recipient. Repeated calls
	// leave the original timestamp untouched; the guard is re-checked on
	// every invocation.
	MarkRead(ctx context.Context, identity api.Identity, id uuid.UUID) (*Message, error)

	// MessagesFrom lists messages the user has sent, recipient profile embedded.
	MessagesFrom(ctx context.Context, username string) ([]SentMessage, error)

	// MessagesTo lists messages the user has received, sender profile embedded.
	MessagesTo(ctx context.Context, username string) ([]ReceivedMessage, error)
}

type MessageServiceImpl struct {
	logger   *slog.Logger
	repo     MessageRepo
	notifier notify.Notifier
}

func NewMessageService(repo MessageRepo, notifier notify.Notifier, logger *slog.Logger) *MessageServiceImpl {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &MessageServiceImpl{
		logger:   logger,
		repo:     repo,
		notifier: notifier,
	}
}

func (s *MessageServiceImpl) Create(ctx context.Context, fromUsername, toUsername, body string) (*Message, error) {
	l := s.logger.With(slog.String("method", "Create"),
		slog.String("from", fromUsername), slog.String("to", toUsername))

	if toUsername == "" {
		return nil, fmt.Errorf("to_username is required: %w", api.ErrBadRequest)
	}
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("message body must not be empty: %w", api.ErrBadRequest)
	}

	start := time.Now()
	id, _, err := s.repo.InsertMessage(ctx, fromUsername, toUsername, body)
	if err != nil {
		return nil, err
	}

	msg, err := s.repo.GetMessageByID(ctx, id)
	if err != nil {
		return nil, err
	}

	metrics.Get().MessagesSentTotal.Add(ctx, 1)
	metrics.Get().SendDurationSeconds.Record(ctx, time.Since(start).Seconds())
	l.InfoContext(ctx, "Message created", slog.String("messageID", id.String()))

	// Fire-and-forget: the notification outlives the request and its failure
	// never surfaces to the sender.
	go s.notifyRecipient(msg.FromUser.Username, msg.ToUser.Phone)

	return msg, nil
}

func (s *MessageServiceImpl) notifyRecipient(fromUsername, recipientPhone string) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	if err := s.notifier.Notify(ctx, fromUsername, recipientPhone); err != nil {
		metrics.Get().NotifyFailuresTotal.Add(ctx, 1)
		s.logger.WarnContext(ctx, "New-message notification failed",
			slog.String("from", fromUsername), slog.Any("error", err))
	}
}

func (s *MessageServiceImpl) Get(ctx context.Context, identity api.Identity, id uuid.UUID) (*Message, error) {
	msg, err := s.repo.GetMessageByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanReadMessage(identity, msg) {
		return nil, fmt.Errorf("user %q may not read message %s: %w",
			identity.Username, id, api.ErrUnauthenticated)
	}

	return msg, nil
}

func (s *MessageServiceImpl) MarkRead(ctx context.Context, identity api.Identity, id uuid.UUID) (*Message, error) {
	msg, err := s.repo.GetMessageByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanMarkRead(identity, msg) {
		return nil, fmt.Errorf("user %q may not mark message %s read: %w",
			identity.Username, id, api.ErrUnauthenticated)
	}

	if err := s.repo.UpdateMessageReadAt(ctx, id); err != nil {
		return nil, err
	}

	msg, err = s.repo.GetMessageByID(ctx, id)
	if err != nil {
		return nil, err
	}

	metrics.Get().MessagesReadTotal.Add(ctx, 1)
	return msg, nil
}

func (s *MessageServiceImpl) MessagesFrom(ctx context.Context, username string) ([]SentMessage, error) {
	return s.repo.ListMessagesFrom(ctx, username)
}

func (s *MessageServiceImpl) MessagesTo(ctx context.Context, username string) ([]ReceivedMessage, error) {
	return s.repo.ListMessagesTo(ctx, username)
}
