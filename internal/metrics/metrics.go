package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripmate_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripmate_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	ThreadsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripmate_threads_created_total",
			Help: "Total conversation threads created",
		},
	)

	ThreadsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripmate_threads_deleted_total",
			Help: "Total conversation threads deleted",
		},
	)

	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripmate_turns_total",
			Help: "Total conversational turns handled",
		},
		[]string{"mode", "outcome"}, // mode: "full" or "stream"
	)

	StreamFragments = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripmate_stream_fragments_total",
			Help: "Total streamed response fragments forwarded to callers",
		},
	)
)
