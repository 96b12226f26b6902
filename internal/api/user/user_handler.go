package user

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/go-messagely/internal/api"
	"github.com/FACorreiaa/go-messagely/internal/api/auth"
	"github.com/FACorreiaa/go-messagely/internal/api/message"
)

type UserHandler struct {
	service  UserService
	messages message.MessageService
	logger   *slog.Logger
}

func NewUserHandler(service UserService, messages message.MessageService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		service:  service,
		messages: messages,
		logger:   logger,
	}
}

// List handles GET /users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "List"))

	users, err := h.service.ListUsers(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list users", slog.Any("error", err))
		api.ErrorResponse(w, r, api.StatusFromError(err), "Failed to list users")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"users": users})
}

// Get handles GET /users/{username}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Get"))

	username := chi.URLParam(r, "username")
	profile, err := h.service.GetUserProfile(ctx, username)
	if err != nil {
		l.WarnContext(ctx, "Failed to fetch user", slog.Any("error", err))
		api.ErrorResponse(w, r, api.StatusFromError(err), "Failed to fetch user")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"user": profile})
}

// MessagesFrom handles GET /users/{username}/from. Users may only list their
// own outbox.
func (h *UserHandler) MessagesFrom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "MessagesFrom"))

	username, ok := h.correctUser(w, r)
	if !ok {
		return
	}

	messages, err := h.messages.MessagesFrom(ctx, username)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list sent messages", slog.Any("error", err))
		api.ErrorResponse(w, r, api.StatusFromError(err), "Failed to list sent messages")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"messages": messages})
}

// MessagesTo handles GET /users/{username}/to. Users may only list their own
// inbox.
func (h *UserHandler) MessagesTo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "MessagesTo"))

	username, ok := h.correctUser(w, r)
	if !ok {
		return
	}

	messages, err := h.messages.MessagesTo(ctx, username)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list received messages", slog.Any("error", err))
		api.ErrorResponse(w, r, api.StatusFromError(err), "Failed to list received messages")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"messages": messages})
}

// correctUser verifies the authenticated identity matches the {username}
// route parameter, writing the error response itself when it does not.
func (h *UserHandler) correctUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return "", false
	}

	username := chi.URLParam(r, "username")
	if identity.Username != username {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Cannot access another user's messages")
		return "", false
	}

	return username, true
}
