package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.Login(ResultSuccess)
	m.Login(ResultRejected)
	m.Login(ResultRejected)
	m.Authentication(ResultStale)
	m.LogoutAll()
	m.Sweep(ResultSuccess, 3, 20*time.Millisecond)
	m.Sweep(ResultError, 0, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.logins.WithLabelValues(ResultRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authentications.WithLabelValues(ResultStale)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.logoutAll))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.sweepDeleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sweeps.WithLabelValues(ResultError)))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.Login(ResultSuccess)
		m.Authentication(ResultSuccess)
		m.LogoutAll()
		m.Sweep(ResultSuccess, 1, time.Second)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.LogoutAll()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "skillshare_auth_logout_all_total 1")
}
