package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/FACorreiaa/go-messagely/internal/api"
)

// Typed context key for the authenticated identity.
type contextKey string

const identityKey contextKey = "identity"

// Authenticate validates the bearer token and stores the resulting identity
// in the request context. Requests without a valid token are rejected.
func Authenticate(service AuthService, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			tokenString, ok := bearerToken(r)
			if !ok {
				l.WarnContext(ctx, "Missing or malformed Authorization header")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
				return
			}

			identity, err := service.VerifyToken(tokenString)
			if err != nil {
				l.WarnContext(ctx, "Token verification failed", slog.Any("error", err))
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, identityKey, *identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthenticateOptional attaches an identity when a valid token is present and
// leaves the request unauthenticated otherwise. A bad token on a route that
// requires no identity is non-fatal.
func AuthenticateOptional(service AuthService, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if tokenString, ok := bearerToken(r); ok {
				if identity, err := service.VerifyToken(tokenString); err == nil {
					ctx = context.WithValue(ctx, identityKey, *identity)
				} else {
					logger.DebugContext(ctx, "Ignoring invalid token on optional route", slog.Any("error", err))
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the authenticated identity, if any.
func IdentityFromContext(ctx context.Context) (api.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(api.Identity)
	return identity, ok
}

// ContextWithIdentity is a test helper mirroring what the middleware does.
func ContextWithIdentity(ctx context.Context, identity api.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	headerParts := strings.Split(authHeader, " ")
	if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "bearer") {
		return "", false
	}
	return headerParts[1], true
}
