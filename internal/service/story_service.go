package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skillshare/skillshare-backend/internal/domain"
	"github.com/skillshare/skillshare-backend/internal/media"
	"github.com/skillshare/skillshare-backend/internal/repository"
)

// EventPublisher receives story feed events. Implementations must not block.
type EventPublisher interface {
	Publish(event domain.StoryEvent)
}

type noopPublisher struct{}

func (noopPublisher) Publish(domain.StoryEvent) {}

type StoryService struct {
	storyRepo repository.StoryRepository
	userRepo  repository.UserRepository
	media     media.Store
	events    EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewStoryService(storyRepo repository.StoryRepository, userRepo repository.UserRepository, store media.Store, events EventPublisher, logger *slog.Logger) *StoryService {
	if events == nil {
		events = noopPublisher{}
	}
	return &StoryService{
		storyRepo: storyRepo,
		userRepo:  userRepo,
		media:     store,
		events:    events,
		logger:    logger.With("component", "service.story"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type CreateStoryInput struct {
	UserID uuid.UUID
	Text   string
	Media  *Upload
}

func (s *StoryService) Create(ctx context.Context, input CreateStoryInput) (*domain.Story, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" && input.Media == nil {
		return nil, domain.ErrEmptyStory
	}

	owner, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	story := &domain.Story{
		ID:             domain.NewStoryID(),
		UserID:         owner.ID,
		UserName:       owner.DisplayName(),
		UserProfilePic: owner.ProfilePic,
		Text:           text,
		CreatedAt:      s.now(),
	}

	if input.Media != nil {
		url, err := s.media.Save(ctx, "stories", input.Media.Filename, input.Media.Body, input.Media.ContentType)
		if err != nil {
			return nil, err
		}
		story.MediaURL = url
	}

	if err := s.storyRepo.Create(ctx, story); err != nil {
		if story.MediaURL != "" {
			s.removeMedia(ctx, story.MediaURL)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "story created", "story_id", story.ID, "user_id", owner.ID)
	s.events.Publish(domain.StoryEvent{Type: domain.StoryEventCreated, StoryID: story.ID, Story: story})
	return story, nil
}

// List returns every story still in the store, newest first. Stories past
// their TTL remain visible until the next sweep removes them.
func (s *StoryService) List(ctx context.Context) ([]*domain.Story, error) {
	return s.storyRepo.List(ctx)
}

func (s *StoryService) Get(ctx context.Context, id string) (*domain.Story, error) {
	story, err := s.storyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrStoryNotFound
		}
		return nil, err
	}
	return story, nil
}

// RegisterView adds viewerID to the story's viewer set. A view racing with
// deletion either lands before the delete or fails with ErrStoryNotFound.
func (s *StoryService) RegisterView(ctx context.Context, storyID string, viewerID uuid.UUID) error {
	if err := s.storyRepo.AddView(ctx, storyID, viewerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrStoryNotFound
		}
		return err
	}
	return nil
}

func (s *StoryService) UpdateText(ctx context.Context, storyID string, actorID uuid.UUID, text string) (*domain.Story, error) {
	story, err := s.Get(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if !story.OwnedBy(actorID) {
		return nil, domain.ErrUnauthorized
	}

	text = strings.TrimSpace(text)
	if text == "" && story.MediaURL == "" {
		return nil, domain.ErrEmptyStory
	}

	if err := s.storyRepo.UpdateText(ctx, storyID, text); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrStoryNotFound
		}
		return nil, err
	}
	story.Text = text

	s.events.Publish(domain.StoryEvent{Type: domain.StoryEventUpdated, StoryID: story.ID, Story: story})
	return story, nil
}

func (s *StoryService) Delete(ctx context.Context, storyID string, actorID uuid.UUID) error {
	story, err := s.Get(ctx, storyID)
	if err != nil {
		return err
	}
	if !story.OwnedBy(actorID) {
		return domain.ErrUnauthorized
	}

	if err := s.storyRepo.Delete(ctx, storyID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrStoryNotFound
		}
		return err
	}

	if story.MediaURL != "" {
		s.removeMedia(ctx, story.MediaURL)
	}

	s.logger.InfoContext(ctx, "story deleted", "story_id", storyID, "user_id", actorID)
	s.events.Publish(domain.StoryEvent{Type: domain.StoryEventDeleted, StoryID: storyID})
	return nil
}

func (s *StoryService) Viewers(ctx context.Context, storyID string) ([]uuid.UUID, error) {
	story, err := s.Get(ctx, storyID)
	if err != nil {
		return nil, err
	}
	return story.ViewerIDs(), nil
}

func (s *StoryService) removeMedia(ctx context.Context, url string) {
	if err := s.media.Delete(ctx, url); err != nil {
		s.logger.WarnContext(ctx, "failed to delete story media", "url", url, "error", err)
	}
}
