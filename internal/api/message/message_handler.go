package message

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-messagely/internal/api"
	"github.com/FACorreiaa/go-messagely/internal/api/auth"
)

type MessageHandler struct {
	service MessageService
	logger  *slog.Logger
}

func NewMessageHandler(service MessageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		service: service,
		logger:  logger,
	}
}

// Create handles POST /messages. The sender is always the authenticated user.
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Create"))

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateMessageRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.service.Create(ctx, identity.Username, req.ToUsername, req.Body)
	if err != nil {
		l.WarnContext(ctx, "Failed to create message", slog.Any("error", err))
		api.ErrorResponse(w, r, api.StatusFromError(err), "Failed to send message")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, map[string]interface{}{"message": msg})
}

// Get handles GET /messages/{id}; only the sender or recipient may read.
func (h *MessageHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Get"))

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid message id")
		return
	}

	msg, err := h.service.Get(ctx, identity, id)
	if err != nil {
		l.WarnContext(ctx, "Failed to fetch message", slog.Any("error", err))
		api.ErrorResponse(w, r, api.StatusFromError(err), "Failed to fetch message")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"message": msg})
}

// MarkRead handles POST /messages/{id}/read; only the recipient may mark.
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "MarkRead"))

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid message id")
		return
	}

	msg, err := h.service.MarkRead(ctx, identity, id)
	if err != nil {
		l.WarnContext(ctx, "Failed to mark message read", slog.Any("error", err))
		api.ErrorResponse(w, r, api.StatusFromError(err), "Failed to mark message read")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"message": msg})
}
