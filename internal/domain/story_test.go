package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestStory_Expired(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	story := &Story{CreatedAt: t0}
	ttl := 24 * time.Hour

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"fresh", t0.Add(time.Minute), false},
		{"just before ttl", t0.Add(23 * time.Hour), false},
		{"exactly ttl", t0.Add(ttl), false},
		{"past ttl", t0.Add(ttl + time.Nanosecond), true},
		{"long gone", t0.Add(25 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, story.Expired(tt.now, ttl))
		})
	}
}

func TestStory_ViewerIDsAndOwner(t *testing.T) {
	owner := uuid.New()
	viewer := uuid.New()
	story := &Story{
		UserID: owner,
		Views:  []StoryView{{ViewerID: viewer}},
	}

	assert.Equal(t, []uuid.UUID{viewer}, story.ViewerIDs())
	assert.True(t, story.OwnedBy(owner))
	assert.False(t, story.OwnedBy(viewer))
}

func TestNewStoryID_Ordered(t *testing.T) {
	a := NewStoryID()
	b := NewStoryID()

	assert.Len(t, a, 26)
	assert.Less(t, a, b)
}

func TestUser_DisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&User{Name: "Ada", LastName: "Lovelace"}).DisplayName())
	assert.Equal(t, "Ada", (&User{Name: "Ada"}).DisplayName())
}
