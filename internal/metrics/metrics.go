// Package metrics provides Prometheus metrics for the reacji-tweeter.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	ReactionEventsTotal *prometheus.CounterVec
	TweetsPostedTotal   prometheus.Counter
	TweetsDeletedTotal  prometheus.Counter
	ErrorsTotal         *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		ReactionEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reacji_reaction_events_total",
				Help: "Reaction events processed, by direction and outcome.",
			},
			[]string{"direction", "outcome"},
		),
		TweetsPostedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "reacji_tweets_posted_total",
				Help: "Tweets successfully created.",
			},
		),
		TweetsDeletedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "reacji_tweets_deleted_total",
				Help: "Tweets successfully deleted.",
			},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reacji_errors_total",
				Help: "Total errors by module and type.",
			},
			[]string{"module", "type"},
		),
		registry: reg,
	}

	reg.MustRegister(m.ReactionEventsTotal)
	reg.MustRegister(m.TweetsPostedTotal)
	reg.MustRegister(m.TweetsDeletedTotal)
	reg.MustRegister(m.ErrorsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordReactionEvent increments the event counter. Nil-safe so wiring
// without metrics (tests) stays quiet.
func (m *Metrics) RecordReactionEvent(direction, outcome string) {
	if m == nil {
		return
	}
	m.ReactionEventsTotal.WithLabelValues(direction, outcome).Inc()
}

// RecordTweetPosted increments the posted-tweet counter.
func (m *Metrics) RecordTweetPosted() {
	if m == nil {
		return
	}
	m.TweetsPostedTotal.Inc()
}

// RecordTweetDeleted increments the deleted-tweet counter.
func (m *Metrics) RecordTweetDeleted() {
	if m == nil {
		return
	}
	m.TweetsDeletedTotal.Inc()
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(module, errType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(module, errType).Inc()
}
