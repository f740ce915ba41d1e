// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Venue REST metrics
	VenueRequests *prometheus.CounterVec
	VenueLatency  *prometheus.HistogramVec

	// Realtime feed metrics
	FeedConnects     prometheus.Counter
	FeedDisconnects  prometheus.Counter
	FeedEvents       prometheus.Counter
	FeedDropped      prometheus.Counter
	SubscriberPanics prometheus.Counter

	// Scoring metrics
	SignalsComputed *prometheus.CounterVec

	// Pipeline metrics
	LaunchesStored prometheus.Counter
	PipelineErrors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "pandora_market_feed"
	}

	return &Metrics{
		VenueRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "venue",
			Name:      "requests_total",
			Help:      "Venue REST requests by operation and outcome (live, fallback, miss)",
		}, []string{"operation", "outcome"}),
		VenueLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "venue",
			Name:      "request_latency_seconds",
			Help:      "Venue REST request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		FeedConnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "connects_total",
			Help:      "Total successful feed connections",
		}),
		FeedDisconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "disconnects_total",
			Help:      "Total feed connection losses observed with subscribers remaining",
		}),
		FeedEvents: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "events_total",
			Help:      "Total new_token events fanned out to subscribers",
		}),
		FeedDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "dropped_messages_total",
			Help:      "Total inbound feed messages dropped as malformed",
		}),
		SubscriberPanics: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "subscriber_panics_total",
			Help:      "Total recovered panics in launch subscriber callbacks",
		}),

		SignalsComputed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signal",
			Name:      "computed_total",
			Help:      "Total analyses computed by recommendation",
		}, []string{"recommendation"}),

		LaunchesStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "launches_stored_total",
			Help:      "Total launch events written to storage",
		}),
		PipelineErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "errors_total",
			Help:      "Total pipeline stage errors by component",
		}, []string{"component"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordVenueRequest counts one venue REST call by operation and outcome.
func RecordVenueRequest(operation, outcome string) {
	DefaultMetrics.VenueRequests.WithLabelValues(operation, outcome).Inc()
}

// RecordVenueLatency records one venue REST call duration.
func RecordVenueLatency(operation string, seconds float64) {
	DefaultMetrics.VenueLatency.WithLabelValues(operation).Observe(seconds)
}

// RecordFeedConnect increments the feed connect counter.
func RecordFeedConnect() {
	DefaultMetrics.FeedConnects.Inc()
}

// RecordFeedDisconnect increments the feed disconnect counter.
func RecordFeedDisconnect() {
	DefaultMetrics.FeedDisconnects.Inc()
}

// RecordFeedEvent increments the fanned-out event counter.
func RecordFeedEvent() {
	DefaultMetrics.FeedEvents.Inc()
}

// RecordFeedDropped increments the malformed-message counter.
func RecordFeedDropped() {
	DefaultMetrics.FeedDropped.Inc()
}

// RecordSubscriberPanic increments the recovered-panic counter.
func RecordSubscriberPanic() {
	DefaultMetrics.SubscriberPanics.Inc()
}

// RecordSignal counts one computed analysis by recommendation.
func RecordSignal(recommendation string) {
	DefaultMetrics.SignalsComputed.WithLabelValues(recommendation).Inc()
}

// RecordLaunchStored increments the stored-launch counter.
func RecordLaunchStored() {
	DefaultMetrics.LaunchesStored.Inc()
}

// RecordPipelineError counts one pipeline stage error.
func RecordPipelineError(component string) {
	DefaultMetrics.PipelineErrors.WithLabelValues(component).Inc()
}
