package websocket

import (
	"encoding/json"
	"time"

	"github.com/skillshare/skillshare-backend/internal/domain"
)

type MessageType string

const (
	// Server to Client
	MessageTypeStoryCreated MessageType = MessageType(domain.StoryEventCreated)
	MessageTypeStoryUpdated MessageType = MessageType(domain.StoryEventUpdated)
	MessageTypeStoryDeleted MessageType = MessageType(domain.StoryEventDeleted)
	MessageTypeStoryExpired MessageType = MessageType(domain.StoryEventExpired)
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

type StoryPayload struct {
	StoryID string        `json:"storyId"`
	Story   *domain.Story `json:"story,omitempty"`
}
