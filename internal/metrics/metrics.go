// Package metrics exposes Prometheus counters for the session
// lifecycle. The collector feeds off the session event bus, so any
// component that publishes events is measured without knowing about
// metrics at all.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openlearn/courseware/internal/session"
)

// Collector counts session lifecycle events.
type Collector struct {
	logins    prometheus.Counter
	logouts   prometheus.Counter
	refreshes prometheus.Counter
	restores  prometheus.Counter
	authErrs  prometheus.Counter
	events    *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "courseware_logins_total",
			Help: "Total successful logins.",
		}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "courseware_logouts_total",
			Help: "Total logouts.",
		}),
		refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "courseware_token_refreshes_total",
			Help: "Total successful access token refreshes.",
		}),
		restores: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "courseware_session_restores_total",
			Help: "Total completed session restorations.",
		}),
		authErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "courseware_auth_errors_total",
			Help: "Total session-fatal authentication errors.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courseware_session_events_total",
			Help: "Session lifecycle events by type.",
		}, []string{"type"}),
	}

	reg.MustRegister(c.logins, c.logouts, c.refreshes, c.restores, c.authErrs, c.events)
	return c
}

// Observe attaches the collector to a session event bus. It returns the
// unsubscribe function.
func (c *Collector) Observe(bus *session.Bus) func() {
	return bus.Subscribe(func(event session.Event) {
		c.events.WithLabelValues(string(event.Type)).Inc()

		switch event.Type {
		case session.EventLogin:
			c.logins.Inc()
		case session.EventLogout:
			c.logouts.Inc()
		case session.EventTokenRefreshed:
			c.refreshes.Inc()
		case session.EventSessionRestored:
			c.restores.Inc()
		case session.EventAuthError:
			c.authErrs.Inc()
		}
	})
}

// Handler returns the HTTP handler Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
