// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Login outcomes.
const (
	OutcomeSuccess        = "success"
	OutcomeInvalidRequest = "invalid_request"
	OutcomeUpstreamError  = "upstream_error"
	OutcomeInternalError  = "internal_error"
)

// Calendar sync results.
const (
	CalendarStored  = "stored"
	CalendarFailed  = "failed"
	CalendarDropped = "dropped"
)

var (
	LoginRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookback_login_requests_total",
			Help: "Total number of POST /login requests by outcome",
		},
		[]string{"outcome"}, // success, invalid_request, upstream_error, internal_error
	)

	LoginDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lookback_login_duration_seconds",
			Help:    "Time spent handling POST /login, including Google round trips",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	UsersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lookback_users_created_total",
			Help: "Number of users created on first login",
		},
	)

	CalendarSyncs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookback_calendar_sync_total",
			Help: "Calendar list persistence attempts by result",
		},
		[]string{"result"}, // stored, failed, dropped
	)

	CalendarQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lookback_calendar_queue_depth",
			Help: "Calendar sync jobs waiting for a worker",
		},
	)

	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookback_events_processed_total",
			Help: "Queued events handled by the event processor",
		},
		[]string{"status"}, // sent, failed, dead_letter
	)
)
