package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/go-messagely/app/observability/metrics"
	"github.com/FACorreiaa/go-messagely/internal/api"
)

type AuthHandler struct {
	service AuthService
	logger  *slog.Logger
}

func NewAuthHandler(service AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

// Register creates the user, records the first login and returns a token.
// Registration and "log the user in" stay separate service operations; only
// the transport composes them.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Register"))

	var req RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.service.Register(ctx, req)
	if err != nil {
		l.WarnContext(ctx, "Registration failed", slog.Any("error", err))
		if errors.Is(err, api.ErrConflict) {
			api.ErrorResponse(w, r, http.StatusConflict, "Username already taken")
			return
		}
		api.ErrorResponse(w, r, api.StatusFromError(err), "Registration failed")
		return
	}

	if _, err := h.service.RecordLogin(ctx, profile.Username); err != nil {
		l.ErrorContext(ctx, "Failed to record login after registration", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Registration failed")
		return
	}

	token, err := h.service.IssueToken(profile.Username)
	if err != nil {
		l.ErrorContext(ctx, "Failed to issue token", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Registration failed")
		return
	}

	metrics.Get().RegistrationsTotal.Add(ctx, 1)
	api.WriteJSONResponse(w, r, http.StatusCreated, TokenResponse{Token: token})
}

// Login authenticates the credentials and returns a token. A wrong password
// or unknown username both answer 401; the two are indistinguishable to the
// caller.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Login"))

	var req LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ok, err := h.service.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		l.ErrorContext(ctx, "Authentication errored", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Login failed")
		return
	}
	if !ok {
		metrics.Get().LoginFailuresTotal.Add(ctx, 1)
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid username/password")
		return
	}

	if _, err := h.service.RecordLogin(ctx, req.Username); err != nil {
		l.ErrorContext(ctx, "Failed to record login", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Login failed")
		return
	}

	token, err := h.service.IssueToken(req.Username)
	if err != nil {
		l.ErrorContext(ctx, "Failed to issue token", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Login failed")
		return
	}

	metrics.Get().LoginsTotal.Add(ctx, 1)
	api.WriteJSONResponse(w, r, http.StatusOK, TokenResponse{Token: token})
}
