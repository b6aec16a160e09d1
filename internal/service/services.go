package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/skillshare/skillshare-backend/internal/config"
	"github.com/skillshare/skillshare-backend/internal/media"
	"github.com/skillshare/skillshare-backend/internal/metrics"
	"github.com/skillshare/skillshare-backend/internal/password"
	"github.com/skillshare/skillshare-backend/internal/repository"
	"github.com/skillshare/skillshare-backend/internal/token"
)

// SessionCloser drops the live connections a user holds open.
type SessionCloser interface {
	DisconnectUser(userID uuid.UUID) int
}

// Feed is the live story channel: it takes events and can evict a user.
type Feed interface {
	EventPublisher
	SessionCloser
}

type Services struct {
	Auth    *AuthService
	Account *AccountService
	Story   *StoryService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, store media.Store, feed Feed, m *metrics.Metrics, logger *slog.Logger) (*Services, error) {
	codec, err := token.NewCodec([]byte(cfg.JWTSecret), cfg.TokenTTL())
	if err != nil {
		return nil, err
	}

	auth, err := NewAuthService(repos.User, password.NewHasher(cfg.BcryptCost), codec, m, logger)
	if err != nil {
		return nil, err
	}
	auth.SetSessionCloser(feed)

	return &Services{
		Auth:    auth,
		Account: NewAccountService(repos.User, repos.Story, store, feed, logger),
		Story:   NewStoryService(repos.Story, repos.User, store, feed, logger),
	}, nil
}

func closeSessions(ctx context.Context, sessions SessionCloser, logger *slog.Logger, userID uuid.UUID) {
	if sessions == nil {
		return
	}
	if n := sessions.DisconnectUser(userID); n > 0 {
		logger.InfoContext(ctx, "closed live connections", "user_id", userID, "connections", n)
	}
}
