// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

/*
Package metrics registers the Prometheus collectors exported at /metrics.

Collectors are promauto globals, registered with the default registry at
package init. Callers either use the Record* helpers or the collectors
directly when they need extra labels.

Groups:
  - api_*: HTTP requests, latency, in-flight requests, rate limit rejections
  - websocket_*: live connections, messages, errors, broadcasts
  - nats_*: publish, consume and message processing
  - ingest_*: candidate post outcomes (new, duplicate, malformed, failed)
  - feed_*: feed resolution and parsing
  - fetcher_*: fetch requests handled and candidates published
  - circuit_breaker_*: publisher breaker state and transitions
*/
package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of registered WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages written to clients",
		},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket messages received from clients",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"}, // upgrade, send_buffer_full, write, read
	)

	WSBroadcasts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_broadcasts_total",
			Help: "Total number of per-list new_posts broadcasts",
		},
	)

	WSBroadcastDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_broadcast_deliveries_total",
			Help: "Broadcast sends by result",
		},
		[]string{"result"}, // delivered, pruned
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// NATS Metrics
	NATSMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_messages_published_total",
			Help: "Total number of messages published to NATS",
		},
		[]string{"topic"},
	)

	NATSPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_publish_errors_total",
			Help: "Total number of failed NATS publishes",
		},
		[]string{"topic"},
	)

	NATSMessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_messages_consumed_total",
			Help: "Total number of messages consumed from NATS",
		},
		[]string{"handler"},
	)

	NATSMessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_messages_processed_total",
			Help: "Total number of messages handled without error",
		},
		[]string{"handler"},
	)

	NATSProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nats_processing_duration_seconds",
			Help:    "Duration of NATS message processing in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
		},
		[]string{"handler"},
	)

	// Ingestion Metrics
	IngestNewPosts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_new_posts_total",
			Help: "Candidate posts stored as new posts",
		},
	)

	IngestDuplicates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_duplicates_total",
			Help: "Candidate posts skipped as already stored",
		},
	)

	IngestMalformed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_malformed_total",
			Help: "Candidate posts dropped as undecodable or invalid",
		},
	)

	IngestFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_failures_total",
			Help: "Candidate posts that failed processing",
		},
		[]string{"reason"}, // store, stats, unknown_blog, fanout
	)

	// Feed Metrics
	FeedResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_resolutions_total",
			Help: "Feed URL resolutions by outcome",
		},
		[]string{"outcome"}, // direct, discovered, cached, not_found, invalid
	)

	FeedResolveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_resolve_duration_seconds",
			Help:    "Duration of feed URL resolution in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		},
	)

	FeedParses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_parses_total",
			Help: "Feed fetch-and-parse attempts by result",
		},
		[]string{"result"}, // success, error
	)

	// Fetcher Metrics
	FetcherRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetcher_requests_total",
			Help: "Fetch requests handled by result",
		},
		[]string{"result"}, // success, malformed, error
	)

	FetcherCandidatesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fetcher_candidates_published_total",
			Help: "Candidate posts published by the fetch worker",
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordNATSPublish records a publish attempt on topic.
func RecordNATSPublish(topic string, err error) {
	if err != nil {
		NATSPublishErrors.WithLabelValues(topic).Inc()
		return
	}
	NATSMessagesPublished.WithLabelValues(topic).Inc()
}

// RecordNATSHandled records one message passing through handler.
func RecordNATSHandled(handler string, duration time.Duration, err error) {
	NATSMessagesConsumed.WithLabelValues(handler).Inc()
	NATSProcessingDuration.WithLabelValues(handler).Observe(duration.Seconds())
	if err == nil {
		NATSMessagesProcessed.WithLabelValues(handler).Inc()
	}
}

// RecordFeedResolution records a resolution outcome and its latency.
func RecordFeedResolution(outcome string, duration time.Duration) {
	FeedResolutions.WithLabelValues(outcome).Inc()
	FeedResolveDuration.Observe(duration.Seconds())
}

// RecordBroadcast records one list broadcast and its per-connection results.
func RecordBroadcast(delivered, pruned int) {
	WSBroadcasts.Inc()
	WSBroadcastDeliveries.WithLabelValues("delivered").Add(float64(delivered))
	WSBroadcastDeliveries.WithLabelValues("pruned").Add(float64(pruned))
	WSMessagesSent.Add(float64(delivered))
}

// SetAppInfo publishes the build version.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

// UpdateUptime sets app_uptime_seconds from the process start time.
func UpdateUptime(started time.Time) {
	AppUptime.Set(time.Since(started).Seconds())
}
