package message

import (
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-messagely/internal/api"
)

// Message is the fully hydrated record: both parties' public profiles are
// denormalized into the projection returned to callers.
type Message struct {
	ID       uuid.UUID       `json:"id"`
	FromUser api.UserSummary `json:"from_user"`
	ToUser   api.UserSummary `json:"to_user"`
	Body     string          `json:"body"`
	SentAt   time.Time       `json:"sent_at"`
	ReadAt   *time.Time      `json:"read_at"`
}

// SentMessage is a listing entry from the sender's perspective: only the
// other party (the recipient) is embedded.
type SentMessage struct {
	ID     uuid.UUID       `json:"id"`
	ToUser api.UserSummary `json:"to_user"`
	Body   string          `json:"body"`
	SentAt time.Time       `json:"sent_at"`
	ReadAt *time.Time      `json:"read_at"`
}

// ReceivedMessage is a listing entry from the recipient's perspective.
type ReceivedMessage struct {
	ID       uuid.UUID       `json:"id"`
	FromUser api.UserSummary `json:"from_user"`
	Body     string          `json:"body"`
	SentAt   time.Time       `json:"sent_at"`
	ReadAt   *time.Time      `json:"read_at"`
}

// CreateMessageRequest represents the send-message request body
type CreateMessageRequest struct {
	ToUsername string `json:"to_username"`
	Body       string `json:"body"`
}
