package testutil

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	gorillaWS "github.com/gorilla/websocket"
	"github.com/skillshare/skillshare-backend/internal/websocket"
	"github.com/stretchr/testify/require"
)

// FeedEvent is one story feed message as a subscriber sees it.
type FeedEvent struct {
	Type    websocket.MessageType
	Payload websocket.StoryPayload
	SentAt  time.Time
}

// FeedClient subscribes to /api/v1/ws and queues the story events it
// receives. The queue is closed once the server ends the connection.
type FeedClient struct {
	t      *testing.T
	conn   *gorillaWS.Conn
	events chan FeedEvent
	done   chan struct{}
	once   sync.Once
}

// NewFeedClient subscribes to the feed at url. The subscription ends with the test.
func NewFeedClient(t *testing.T, url string) *FeedClient {
	t.Helper()

	conn, err := DialFeed(url)
	require.NoError(t, err, "subscribe to story feed")

	c := &FeedClient{
		t:      t,
		conn:   conn,
		events: make(chan FeedEvent, 64),
		done:   make(chan struct{}),
	}
	go c.receive()
	t.Cleanup(c.Close)
	return c
}

// DialFeed performs the bare handshake, for asserting that a token is refused.
func DialFeed(url string) (*gorillaWS.Conn, error) {
	dialer := *gorillaWS.DefaultDialer
	dialer.HandshakeTimeout = 5 * time.Second

	conn, resp, err := dialer.Dial(url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

func (c *FeedClient) receive() {
	defer close(c.events)
	for {
		var msg websocket.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		ev := FeedEvent{Type: msg.Type, SentAt: time.UnixMilli(msg.Timestamp)}
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &ev.Payload); err != nil {
				return
			}
		}

		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
}

// Close unsubscribes with a normal closure.
func (c *FeedClient) Close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.WriteControl(gorillaWS.CloseMessage,
			gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.conn.Close()
	})
}

// ExpectStoryEvent waits for the next event of msgType, skipping any other
// story events, and returns its payload.
func (c *FeedClient) ExpectStoryEvent(msgType websocket.MessageType, timeout time.Duration) *websocket.StoryPayload {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case ev, ok := <-c.events:
			if !ok {
				c.t.Fatalf("feed closed while waiting for %s", msgType)
			}
			if ev.Type == msgType {
				return &ev.Payload
			}
		case <-deadline:
			c.t.Fatalf("no %s event within %s", msgType, timeout)
		}
	}
}

// ExpectNoEvent fails if any story event arrives within timeout.
func (c *FeedClient) ExpectNoEvent(timeout time.Duration) {
	c.t.Helper()

	select {
	case ev, ok := <-c.events:
		if ok {
			c.t.Fatalf("unexpected %s event for story %s", ev.Type, ev.Payload.StoryID)
		}
	case <-time.After(timeout):
	}
}

// ExpectClosed waits for the server to end the subscription. Events still in
// flight are discarded.
func (c *FeedClient) ExpectClosed(timeout time.Duration) {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case _, ok := <-c.events:
			if !ok {
				return
			}
		case <-deadline:
			c.t.Fatalf("feed still open after %s", timeout)
		}
	}
}
