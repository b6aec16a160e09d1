package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/skillshare/skillshare-backend/internal/domain"
	"github.com/skillshare/skillshare-backend/internal/service"
)

type contextKey string

const (
	UserIDKey contextKey = "userID"
	UserKey   contextKey = "user"
)

// Auth requires a valid, current bearer token. The identity placed on the
// request context is the one read from the store during authentication.
func Auth(authService *service.AuthService, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With("component", "middleware.auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			scheme, tokenString, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
				http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}

			user, err := authService.Authenticate(r.Context(), tokenString)
			if err != nil {
				switch {
				case errors.Is(err, domain.ErrInvalidToken),
					errors.Is(err, domain.ErrStaleToken),
					errors.Is(err, domain.ErrAccountDeactivated):
					logger.DebugContext(r.Context(), "token rejected", "error", err)
					http.Error(w, "Invalid token", http.StatusUnauthorized)
				default:
					logger.ErrorContext(r.Context(), "authentication failed", "error", err)
					http.Error(w, "Internal server error", http.StatusInternalServerError)
				}
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, user.ID)
			ctx = context.WithValue(ctx, UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

func GetUser(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(UserKey).(*domain.User)
	return user, ok
}

