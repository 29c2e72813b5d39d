package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"cedrus/internal/domain"
	"cedrus/pkg/requestcontext"
)

// TokenValidator validates a bearer token and returns the actor it names.
type TokenValidator interface {
	ValidateToken(tokenString string) (domain.User, error)
}

type contextKeyActor struct{}

// Actor retrieves the authenticated user from the context. The zero value
// means the request did not pass RequireAuth.
func Actor(ctx context.Context) domain.User {
	if u, ok := ctx.Value(contextKeyActor{}).(domain.User); ok {
		return u
	}
	return domain.User{}
}

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated actor in the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			actor, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, contextKeyActor{}, actor)
			ctx = requestcontext.WithActorID(ctx, actor.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
