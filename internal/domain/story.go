package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Story is an ephemeral content item. It lives until its owner deletes it or
// the expiry sweeper removes it once its age exceeds the configured TTL.
type Story struct {
	ID             string      `json:"id" gorm:"type:varchar(26);primaryKey"`
	UserID         uuid.UUID   `json:"userId" gorm:"type:uuid;not null;index"`
	UserName       string      `json:"userName"`
	UserProfilePic string      `json:"userProfilePic"`
	Text           string      `json:"text"`
	MediaURL       string      `json:"mediaUrl"`
	CreatedAt      time.Time   `json:"createdAt" gorm:"not null;index"`
	Views          []StoryView `json:"-" gorm:"foreignKey:StoryID;constraint:OnDelete:CASCADE"`
}

// StoryView records that a viewer has seen a story. The composite primary key
// keeps the viewer set free of duplicates.
type StoryView struct {
	StoryID  string    `json:"storyId" gorm:"type:varchar(26);primaryKey"`
	ViewerID uuid.UUID `json:"viewerId" gorm:"type:uuid;primaryKey"`
	ViewedAt time.Time `json:"viewedAt"`
}

// NewStoryID returns a lexicographically time-ordered identifier.
func NewStoryID() string {
	return ulid.Make().String()
}

func (s *Story) Age(now time.Time) time.Duration {
	return now.Sub(s.CreatedAt)
}

// Expired reports whether the story is strictly older than ttl.
func (s *Story) Expired(now time.Time, ttl time.Duration) bool {
	return s.Age(now) > ttl
}

func (s *Story) ViewerIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Views))
	for _, v := range s.Views {
		ids = append(ids, v.ViewerID)
	}
	return ids
}

func (s *Story) OwnedBy(userID uuid.UUID) bool {
	return s.UserID == userID
}

type StoryEventType string

const (
	StoryEventCreated StoryEventType = "STORY_CREATED"
	StoryEventUpdated StoryEventType = "STORY_UPDATED"
	StoryEventDeleted StoryEventType = "STORY_DELETED"
	StoryEventExpired StoryEventType = "STORY_EXPIRED"
)

// StoryEvent is published to the live feed whenever a story changes.
// Story is nil for deletions and expirations.
type StoryEvent struct {
	Type    StoryEventType `json:"type"`
	StoryID string         `json:"storyId"`
	Story   *Story         `json:"story,omitempty"`
}
