package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/skillshare/skillshare-backend/internal/domain"
)

const broadcastBuffer = 256

// Hub fans story events out to every connected client. Membership changes
// happen under mu so a client is either fed or closed, never both.
type Hub struct {
	clients   map[*Client]bool
	broadcast chan []byte
	stop      chan struct{}
	done      chan struct{} // closed when Run() exits
	stopped   bool
	logger    *slog.Logger
	mu        sync.RWMutex
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:   make(map[*Client]bool),
		broadcast: make(chan []byte, broadcastBuffer),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.With("component", "websocket.hub"),
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for client := range h.clients {
				client.Close()
			}
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()
			return

		case data := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.trySend(data) {
					// Slow consumer; drop it rather than stall the feed.
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop shuts the hub down and disconnects every client. It blocks until Run exits.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	close(h.stop)
	<-h.done
}

// Register adds client to the feed. Once it returns, a DisconnectUser for the
// client's user is guaranteed to reach it.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		client.Close()
		return
	}
	h.clients[client] = true
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.Close()
	}
}

// DisconnectUser closes every connection opened by userID and reports how
// many there were.
func (h *Hub) DisconnectUser(userID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	closed := 0
	for client := range h.clients {
		if client.userID != userID {
			continue
		}
		delete(h.clients, client)
		client.Close()
		closed++
	}
	if closed > 0 {
		h.logger.Debug("disconnected user from feed", "user_id", userID, "connections", closed)
	}
	return closed
}

// Publish queues a story event for all clients. It never blocks; events are
// dropped when the hub is stopped or its queue is full.
func (h *Hub) Publish(event domain.StoryEvent) {
	msg, err := NewMessage(MessageType(event.Type), StoryPayload{
		StoryID: event.StoryID,
		Story:   event.Story,
	})
	if err != nil {
		h.logger.Error("failed to build story message", "error", err)
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal story message", "error", err)
		return
	}

	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()
	if stopped {
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("story feed queue full, dropping event", "type", event.Type, "story_id", event.StoryID)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
