package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Handlers answer with a JSON document on success and with http.Error's
// plain text on failure. These helpers check both shapes.

// AssertStatusCode checks the status. On a mismatch the handler's error text
// is included in the failure.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()

	if resp.StatusCode == expected {
		return
	}
	body, _ := io.ReadAll(resp.Body)
	assert.Failf(t, "unexpected status code", "want %d, got %d: %s",
		expected, resp.StatusCode, strings.TrimSpace(string(body)))
}

// AssertJSONResponse requires a JSON content type and decodes the body into v.
func AssertJSONResponse(t *testing.T, resp *http.Response, v any) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "read response body")
	require.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json"),
		"want a JSON response, got %q: %s", resp.Header.Get("Content-Type"), string(body))
	require.NoError(t, json.Unmarshal(body, v), "decode response: %s", string(body))
}

// AssertErrorResponse checks a plain-text rejection carrying expectedMessage.
func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedMessage string) {
	t.Helper()

	body := AssertStatusAndBody(t, resp, expectedStatus)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"),
		"error responses are plain text, got %q", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, expectedMessage)
}

// AssertStatusAndBody checks the status and hands back the body.
func AssertStatusAndBody(t *testing.T, resp *http.Response, expected int) string {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "read response body")
	assert.Equal(t, expected, resp.StatusCode, "unexpected status code, body: %s", string(body))
	return string(body)
}
