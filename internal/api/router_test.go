package api_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/skillshare/skillshare-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_Health(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp, err := http.Get(ts.BaseURL() + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body := testutil.AssertStatusAndBody(t, resp, http.StatusOK)
	assert.Equal(t, "OK", body)
}

func TestRouter_MetricsExposeAuthCounters(t *testing.T) {
	ts := testutil.NewTestServer(t)

	user, raw := testutil.NewUserBuilder().Build(t, ts.DB.DB)
	testutil.Login(t, ts, user.Email, raw)

	resp, err := http.Get(ts.BaseURL() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body := testutil.AssertStatusAndBody(t, resp, http.StatusOK)
	assert.Contains(t, body, `skillshare_auth_logins_total{result="success"} 1`)
}

func TestRouter_CORSPreflight(t *testing.T) {
	ts := testutil.NewTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.APIURL("/stories"), nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp := testutil.Do(t, req)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

// lockedBuffer collects log output written from server goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRouter_AccessLogRedactsWebSocketToken(t *testing.T) {
	logs := &lockedBuffer{}
	ts := testutil.NewTestServerWithLogger(t, slog.New(slog.NewJSONHandler(logs, nil)))

	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	// Rejected handshake.
	_, err := testutil.DialFeed(ts.WebSocketURL(token + "tampered"))
	require.Error(t, err)

	// Accepted handshake; its record is written once the upgrade handler returns.
	feed := testutil.NewFeedClient(t, ts.WebSocketURL(token))
	defer feed.Close()
	require.Eventually(t, func() bool {
		return strings.Count(logs.String(), `"uri":"/api/v1/ws?token=REDACTED"`) >= 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.NotContains(t, logs.String(), token)
}
