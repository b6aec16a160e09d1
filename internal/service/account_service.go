package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/skillshare/skillshare-backend/internal/domain"
	"github.com/skillshare/skillshare-backend/internal/media"
	"github.com/skillshare/skillshare-backend/internal/repository"
)

const defaultSearchLimit = 50

// AccountService manages profile fields and account lifecycle. None of its
// operations touch the token version.
type AccountService struct {
	userRepo  repository.UserRepository
	storyRepo repository.StoryRepository
	media     media.Store
	sessions  SessionCloser
	logger    *slog.Logger
}

// NewAccountService builds the account service. sessions may be nil when no
// live feed is attached.
func NewAccountService(userRepo repository.UserRepository, storyRepo repository.StoryRepository, store media.Store, sessions SessionCloser, logger *slog.Logger) *AccountService {
	return &AccountService{
		userRepo:  userRepo,
		storyRepo: storyRepo,
		media:     store,
		sessions:  sessions,
		logger:    logger.With("component", "service.account"),
	}
}

// Upload is a file handed over by the transport layer.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type UpdateProfileInput struct {
	Name       *string
	LastName   *string
	ProfilePic *Upload
	CoverPic   *Upload
}

func (s *AccountService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}

	var replaced []string
	if input.ProfilePic != nil {
		url, err := s.media.Save(ctx, "profiles", input.ProfilePic.Filename, input.ProfilePic.Body, input.ProfilePic.ContentType)
		if err != nil {
			return nil, err
		}
		if user.ProfilePic != "" {
			replaced = append(replaced, user.ProfilePic)
		}
		user.ProfilePic = url
	}
	if input.CoverPic != nil {
		url, err := s.media.Save(ctx, "covers", input.CoverPic.Filename, input.CoverPic.Body, input.CoverPic.ContentType)
		if err != nil {
			return nil, err
		}
		if user.CoverPic != "" {
			replaced = append(replaced, user.CoverPic)
		}
		user.CoverPic = url
	}

	if err := s.update(ctx, user); err != nil {
		return nil, err
	}

	s.removeMedia(ctx, replaced...)
	return user, nil
}

func (s *AccountService) SaveCategories(ctx context.Context, userID uuid.UUID, categories []string) (*domain.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	cleaned := make([]string, 0, len(categories))
	seen := make(map[string]bool, len(categories))
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		cleaned = append(cleaned, c)
	}
	user.Categories = cleaned

	if err := s.update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Search matches name case-insensitively as a substring of the first name.
func (s *AccountService) Search(ctx context.Context, name string) ([]*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return []*domain.User{}, nil
	}
	return s.userRepo.SearchByName(ctx, name, defaultSearchLimit)
}

// ChangeEmail moves the identity to newEmail, which must not belong to anyone.
// Tokens reference the immutable user id, so existing sessions survive.
func (s *AccountService) ChangeEmail(ctx context.Context, userID uuid.UUID, newEmail string) (*domain.User, error) {
	newEmail = strings.TrimSpace(newEmail)
	if newEmail == "" {
		return nil, domain.ErrMissingField
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Email == newEmail {
		return user, nil
	}

	_, err = s.userRepo.GetByEmail(ctx, newEmail)
	switch {
	case err == nil:
		return nil, domain.ErrEmailExists
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	user.Email = newEmail
	if err := s.update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.ErrEmailExists
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "email changed", "user_id", userID)
	return user, nil
}

// Deactivate flags the account and drops its live connections. Authentication
// rejects deactivated accounts until the owner logs in again.
func (s *AccountService) Deactivate(ctx context.Context, userID uuid.UUID) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsDeactivated() {
		return nil
	}

	user.Status = domain.UserStatusDeactivated
	if err := s.update(ctx, user); err != nil {
		return err
	}

	closeSessions(ctx, s.sessions, s.logger, userID)
	s.logger.InfoContext(ctx, "account deactivated", "user_id", userID)
	return nil
}

// DeleteAccount permanently removes the identity along with its stories and uploads.
func (s *AccountService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	if _, err := s.storyRepo.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	closeSessions(ctx, s.sessions, s.logger, userID)
	s.removeMedia(ctx, user.ProfilePic, user.CoverPic)
	s.logger.InfoContext(ctx, "account deleted", "user_id", userID)
	return nil
}

func (s *AccountService) update(ctx context.Context, user *domain.User) error {
	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}
	return nil
}

// removeMedia is best effort; an orphaned file is not worth failing the request.
func (s *AccountService) removeMedia(ctx context.Context, urls ...string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := s.media.Delete(ctx, url); err != nil {
			s.logger.WarnContext(ctx, "failed to delete media", "url", url, "error", err)
		}
	}
}
