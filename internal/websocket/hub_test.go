package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/skillshare/skillshare-backend/internal/domain"
	"github.com/skillshare/skillshare-backend/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFeed(t *testing.T) (*Hub, string) {
	t.Helper()

	hub := NewHub(logging.Discard())
	go hub.Run()
	t.Cleanup(hub.Stop)

	upgrader := gorillaWS.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		userID, err := uuid.Parse(r.URL.Query().Get("user"))
		if err != nil {
			userID = uuid.New()
		}
		client := NewClient(hub, conn, userID)
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}))
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *gorillaWS.Conn {
	t.Helper()

	conn, _, err := gorillaWS.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *gorillaWS.Conn) *Message {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return &msg
}

func TestHub_BroadcastsStoryEvents(t *testing.T) {
	hub, url := newTestFeed(t)

	first := dial(t, url)
	second := dial(t, url)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	story := &domain.Story{ID: domain.NewStoryID(), Text: "hello"}
	hub.Publish(domain.StoryEvent{Type: domain.StoryEventCreated, StoryID: story.ID, Story: story})
	hub.Publish(domain.StoryEvent{Type: domain.StoryEventExpired, StoryID: story.ID})

	for _, conn := range []*gorillaWS.Conn{first, second} {
		created := readMessage(t, conn)
		assert.Equal(t, MessageTypeStoryCreated, created.Type)

		var payload StoryPayload
		require.NoError(t, json.Unmarshal(created.Payload, &payload))
		assert.Equal(t, story.ID, payload.StoryID)
		require.NotNil(t, payload.Story)
		assert.Equal(t, "hello", payload.Story.Text)

		expired := readMessage(t, conn)
		assert.Equal(t, MessageTypeStoryExpired, expired.Type)
	}
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub, url := newTestFeed(t)

	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_StopDisconnectsClients(t *testing.T) {
	hub, url := newTestFeed(t)

	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Stop()
	hub.Stop() // idempotent

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	assert.NotPanics(t, func() {
		hub.Publish(domain.StoryEvent{Type: domain.StoryEventDeleted, StoryID: "x"})
	})
}

func TestHub_DisconnectUserClosesOnlyThatUsersConnections(t *testing.T) {
	hub, url := newTestFeed(t)

	alice := uuid.New()
	bob := uuid.New()
	aliceLaptop := dial(t, url+"?user="+alice.String())
	alicePhone := dial(t, url+"?user="+alice.String())
	bobConn := dial(t, url+"?user="+bob.String())
	require.Eventually(t, func() bool { return hub.ClientCount() == 3 }, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 2, hub.DisconnectUser(alice))
	assert.Equal(t, 1, hub.ClientCount())
	assert.Zero(t, hub.DisconnectUser(alice), "already disconnected")
	assert.Zero(t, hub.DisconnectUser(uuid.New()))

	for _, conn := range []*gorillaWS.Conn{aliceLaptop, alicePhone} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, _, err := conn.ReadMessage()
		assert.True(t, gorillaWS.IsCloseError(err, gorillaWS.CloseNoStatusReceived, gorillaWS.CloseNormalClosure, gorillaWS.CloseAbnormalClosure),
			"expected the server to close the connection, got %v", err)
	}

	hub.Publish(domain.StoryEvent{Type: domain.StoryEventDeleted, StoryID: "s1"})
	msg := readMessage(t, bobConn)
	assert.Equal(t, MessageTypeStoryDeleted, msg.Type)
}

func TestHub_RegisterAfterStopClosesClient(t *testing.T) {
	hub := NewHub(logging.Discard())
	go hub.Run()
	hub.Stop()

	client := &Client{hub: hub, send: make(chan []byte, 1), userID: uuid.New()}
	hub.Register(client)

	assert.Zero(t, hub.ClientCount())
	_, ok := <-client.send
	assert.False(t, ok, "send channel must be closed")
}
