package message

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/FACorreiaa/go-messagely/internal/api"
	"github.com/FACorreiaa/go-messagely/internal/api/auth"
)

// MockMessageService is a mock implementation of the MessageService interface
type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) Create(ctx context.Context, fromUsername, toUsername, body string) (*Message, error) {
	args := m.Called(ctx, fromUsername, toUsername, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Message), args.Error(1)
}

func (m *MockMessageService) Get(ctx context.Context, identity api.Identity, id uuid.UUID) (*Message, error) {
	args := m.Called(ctx, identity, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Message), args.Error(1)
}

func (m *MockMessageService) MarkRead(ctx context.Context, identity api.Identity, id uuid.UUID) (*Message, error) {
	args := m.Called(ctx, identity, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Message), args.Error(1)
}

func (m *MockMessageService) MessagesFrom(ctx context.Context, username string) ([]SentMessage, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]SentMessage), args.Error(1)
}

func (m *MockMessageService) MessagesTo(ctx context.Context, username string) ([]ReceivedMessage, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ReceivedMessage), args.Error(1)
}

func authedRequest(method, target, body string, identity *api.Identity, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if identity != nil {
		ctx = auth.ContextWithIdentity(ctx, *identity)
	}
	return req.WithContext(ctx)
}

func TestCreateHandler(t *testing.T) {
	logger := slog.Default()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockMessageService)
		handler := NewMessageHandler(mockService, logger)

		id := uuid.New()
		mockService.On("Create", mock.Anything, "alice", "bob", "hi bob").
			Return(hydratedMessage(id, nil), nil).Once()

		req := authedRequest(http.MethodPost, "/api/v1/messages",
			`{"to_username":"bob","body":"hi bob"}`,
			&api.Identity{Username: "alice"}, nil)
		rr := httptest.NewRecorder()

		handler.Create(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Contains(t, rr.Body.String(), id.String())
		mockService.AssertExpectations(t)
	})

	t.Run("SenderFieldInBodyRejected", func(t *testing.T) {
		mockService := new(MockMessageService)
		handler := NewMessageHandler(mockService, logger)

		// The sender comes from the token; a from_username in the body is an
		// unknown field and the strict decoder refuses it.
		req := authedRequest(http.MethodPost, "/api/v1/messages",
			`{"from_username":"mallory","to_username":"bob","body":"hi"}`,
			&api.Identity{Username: "alice"}, nil)
		rr := httptest.NewRecorder()

		handler.Create(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("EmptyBodyRejected", func(t *testing.T) {
		mockService := new(MockMessageService)
		handler := NewMessageHandler(mockService, logger)

		mockService.On("Create", mock.Anything, "alice", "bob", "").
			Return(nil, fmt.Errorf("message body must not be empty: %w", api.ErrBadRequest)).Once()

		req := authedRequest(http.MethodPost, "/api/v1/messages",
			`{"to_username":"bob","body":""}`,
			&api.Identity{Username: "alice"}, nil)
		rr := httptest.NewRecorder()

		handler.Create(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("NoIdentity", func(t *testing.T) {
		mockService := new(MockMessageService)
		handler := NewMessageHandler(mockService, logger)

		req := authedRequest(http.MethodPost, "/api/v1/messages",
			`{"to_username":"bob","body":"hi"}`, nil, nil)
		rr := httptest.NewRecorder()

		handler.Create(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetHandler(t *testing.T) {
	logger := slog.Default()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockMessageService)
		handler := NewMessageHandler(mockService, logger)

		id := uuid.New()
		mockService.On("Get", mock.Anything, api.Identity{Username: "bob"}, id).
			Return(hydratedMessage(id, nil), nil).Once()

		req := authedRequest(http.MethodGet, "/api/v1/messages/"+id.String(), "",
			&api.Identity{Username: "bob"}, map[string]string{"id": id.String()})
		rr := httptest.NewRecorder()

		handler.Get(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "hi bob")
	})

	t.Run("ThirdPartyRejected", func(t *testing.T) {
		mockService := new(MockMessageService)
		handler := NewMessageHandler(mockService, logger)

		id := uuid.New()
		mockService.On("Get", mock.Anything, api.Identity{Username: "mallory"}, id).
			Return(nil, fmt.Errorf("forbidden: %w", api.ErrUnauthenticated)).Once()

		req := authedRequest(http.MethodGet, "/api/v1/messages/"+id.String(), "",
			&api.Identity{Username: "mallory"}, map[string]string{"id": id.String()})
		rr := httptest.NewRecorder()

		handler.Get(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("InvalidID", func(t *testing.T) {
		mockService := new(MockMessageService)
		handler := NewMessageHandler(mockService, logger)

		req := authedRequest(http.MethodGet, "/api/v1/messages/not-a-uuid", "",
			&api.Identity{Username: "bob"}, map[string]string{"id": "not-a-uuid"})
		rr := httptest.NewRecorder()

		handler.Get(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockService := new(MockMessageService)
		handler := NewMessageHandler(mockService, logger)

		id := uuid.New()
		mockService.On("Get", mock.Anything, api.Identity{Username: "bob"}, id).
			Return(nil, fmt.Errorf("message %s: %w", id, api.ErrNotFound)).Once()

		req := authedRequest(http.MethodGet, "/api/v1/messages/"+id.String(), "",
			&api.Identity{Username: "bob"}, map[string]string{"id": id.String()})
		rr := httptest.NewRecorder()

		handler.Get(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestMarkReadHandler(t *testing.T) {
	logger := slog.Default()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockMessageService)
		handler := NewMessageHandler(mockService, logger)

		id := uuid.New()
		mockService.On("MarkRead", mock.Anything, api.Identity{Username: "bob"}, id).
			Return(hydratedMessage(id, nil), nil).Once()

		req := authedRequest(http.MethodPost, "/api/v1/messages/"+id.String()+"/read", "",
			&api.Identity{Username: "bob"}, map[string]string{"id": id.String()})
		rr := httptest.NewRecorder()

		handler.MarkRead(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("SenderRejected", func(t *testing.T) {
		mockService := new(MockMessageService)
		handler := NewMessageHandler(mockService, logger)

		id := uuid.New()
		mockService.On("MarkRead", mock.Anything, api.Identity{Username: "alice"}, id).
			Return(nil, fmt.Errorf("forbidden: %w", api.ErrUnauthenticated)).Once()

		req := authedRequest(http.MethodPost, "/api/v1/messages/"+id.String()+"/read", "",
			&api.Identity{Username: "alice"}, map[string]string{"id": id.String()})
		rr := httptest.NewRecorder()

		handler.MarkRead(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
