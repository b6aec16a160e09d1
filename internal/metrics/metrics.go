// Package metrics holds the Prometheus collectors for session control and
// story expiry. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "skillshare"

// Result labels.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultStale    = "stale"
	ResultError    = "error"
	ResultSkipped  = "skipped"
)

type Metrics struct {
	registry *prometheus.Registry

	logins          *prometheus.CounterVec
	authentications *prometheus.CounterVec
	logoutAll       prometheus.Counter
	sweeps          *prometheus.CounterVec
	sweepDeleted    prometheus.Counter
	sweepDuration   prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		authentications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "authentications_total",
			Help:      "Bearer token checks by result.",
		}, []string{"result"}),
		logoutAll: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "logout_all_total",
			Help:      "Global token invalidations.",
		}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "story",
			Name:      "sweeps_total",
			Help:      "Expiry sweep runs by result.",
		}, []string{"result"}),
		sweepDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "story",
			Name:      "sweep_deleted_total",
			Help:      "Stories removed by the expiry sweeper.",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "story",
			Name:      "sweep_duration_seconds",
			Help:      "Wall time of one expiry sweep.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.logins,
		m.authentications,
		m.logoutAll,
		m.sweeps,
		m.sweepDeleted,
		m.sweepDuration,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) Authentication(result string) {
	if m == nil {
		return
	}
	m.authentications.WithLabelValues(result).Inc()
}

func (m *Metrics) LogoutAll() {
	if m == nil {
		return
	}
	m.logoutAll.Inc()
}

func (m *Metrics) Sweep(result string, deleted int64, took time.Duration) {
	if m == nil {
		return
	}
	m.sweeps.WithLabelValues(result).Inc()
	if deleted > 0 {
		m.sweepDeleted.Add(float64(deleted))
	}
	if result != ResultSkipped {
		m.sweepDuration.Observe(took.Seconds())
	}
}
