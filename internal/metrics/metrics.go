// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
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
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of requests currently being served",
		},
	)

	// Store Metrics
	StoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of store operations in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation", "collection"},
	)

	StoreOpErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operation_errors_total",
			Help: "Total number of failed store operations",
		},
		[]string{"operation", "collection"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSBroadcasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_broadcasts_total",
			Help: "Total number of broadcast events by type",
		},
		[]string{"type"},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket frames written to subscribers",
		},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket frames received (and discarded)",
		},
	)

	WSDisconnects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_disconnects_total",
			Help: "Total number of subscriber removals by reason",
		},
		[]string{"reason"}, // "closed", "overflow", "write_error", "shutdown"
	)

	// Shop Metrics
	OrdersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total number of orders accepted",
		},
	)

	ChatMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Total number of chat messages accepted",
		},
	)

	// Print Metrics
	PrintJobsDispatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "print_jobs_dispatched_total",
			Help: "Total number of label jobs handed to the dispatcher",
		},
	)

	PrintOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "print_outcomes_total",
			Help: "Terminal outcome of label jobs",
		},
		[]string{"outcome"}, // "printed", "print-failed", "agent-unreachable"
	)

	PrintAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "print_attempts_total",
			Help: "Total number of HTTP attempts against the print agent",
		},
	)

	PrintJobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "print_job_duration_seconds",
			Help:    "Time from dispatch to terminal outcome",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	// Print agent side
	SpoolSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spool_submissions_total",
			Help: "Spool submissions on the print agent by result",
		},
		[]string{"result"}, // "submitted", "failed", "no_printer"
	)

	// Media Metrics
	MediaRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_requests_total",
			Help: "Calls to the media vendor by operation and result",
		},
		[]string{"provider", "operation", "result"},
	)

	// Event Publisher Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domain_events_published_total",
			Help: "Domain events published by topic and result",
		},
		[]string{"topic", "result"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
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

// RecordStoreOp records a store operation and counts it as failed when err
// is non-nil.
func RecordStoreOp(operation, collection string, duration time.Duration, err error) {
	StoreOpDuration.WithLabelValues(operation, collection).Observe(duration.Seconds())
	if err != nil {
		StoreOpErrors.WithLabelValues(operation, collection).Inc()
	}
}

// RecordPrintOutcome records the terminal outcome of a label job.
func RecordPrintOutcome(outcome string, elapsed time.Duration) {
	PrintOutcomes.WithLabelValues(outcome).Inc()
	PrintJobDuration.Observe(elapsed.Seconds())
}

// RecordMediaRequest records one vendor call.
func RecordMediaRequest(provider, operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	MediaRequests.WithLabelValues(provider, operation, result).Inc()
}

// RecordEventPublished records one domain event publication.
func RecordEventPublished(topic string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	EventsPublished.WithLabelValues(topic, result).Inc()
}

// SetBreakerState maps a breaker state name to the gauge value.
func SetBreakerState(name, from, to string) {
	var v float64
	switch to {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	CircuitBreakerState.WithLabelValues(name).Set(v)
	if from != "" {
		CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	}
}
