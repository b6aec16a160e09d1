package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/skillshare/skillshare-backend/internal/domain"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")

	// ErrStoreUnavailable is the same sentinel as domain.ErrStoreUnavailable so
	// callers can test either.
	ErrStoreUnavailable = domain.ErrStoreUnavailable
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Update writes every mutable field except the token version.
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	// IncrementTokenVersion atomically adds one to the stored token version and returns the new value.
	IncrementTokenVersion(ctx context.Context, id uuid.UUID) (int64, error)
	SearchByName(ctx context.Context, name string, limit int) ([]*domain.User, error)
}

type StoryRepository interface {
	Create(ctx context.Context, story *domain.Story) error
	GetByID(ctx context.Context, id string) (*domain.Story, error)
	// List returns every story with its viewers, newest first.
	List(ctx context.Context) ([]*domain.Story, error)
	// ListAll returns every story without viewers, in no particular order.
	ListAll(ctx context.Context) ([]*domain.Story, error)
	UpdateText(ctx context.Context, id string, text string) error
	// AddView records viewerID as having seen the story. Repeated calls are no-ops.
	AddView(ctx context.Context, storyID string, viewerID uuid.UUID) error
	Delete(ctx context.Context, id string) error
	// DeleteMany returns the ids it removed; ids already gone are skipped.
	DeleteMany(ctx context.Context, ids []string) ([]string, error)
	DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
}

type Repositories struct {
	User  UserRepository
	Story StoryRepository
}
