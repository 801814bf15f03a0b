// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values for ModelRequests.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusEmpty   = "error_empty_response"
)

var (
	// Turns counts processed turns by the phase they were narrated in and
	// the recognized intent.
	Turns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tales_turns_total",
			Help: "Total number of player turns processed.",
		},
		[]string{"phase", "intent"},
	)

	// PhaseTransitions counts phase changes by target phase.
	PhaseTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tales_phase_transitions_total",
			Help: "Total number of game phase transitions.",
		},
		[]string{"to"},
	)

	// ModelRequests counts calls to the generative model.
	ModelRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tales_model_requests_total",
			Help: "Total number of requests to the generative model.",
		},
		[]string{"provider", "status"},
	)

	// ModelRequestDuration observes model latency.
	ModelRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tales_model_request_duration_seconds",
			Help:    "Histogram of generative model request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// DegradedTurns counts turns that fell back to the canned payload.
	DegradedTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tales_degraded_turns_total",
			Help: "Total number of turns answered with the degraded payload.",
		},
		[]string{"reason"},
	)

	// ParseFallbacks counts replies shown verbatim because they carried no
	// usable JSON.
	ParseFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tales_parse_fallbacks_total",
			Help: "Total number of model replies that could not be parsed.",
		},
		[]string{"reason"},
	)

	// MemoryRecords counts records written by the engine, by kind.
	MemoryRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tales_memory_records_total",
			Help: "Total number of memory records written.",
		},
		[]string{"kind"},
	)

	// ActiveSessions tracks sessions held by the API server.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tales_active_sessions",
			Help: "Number of game sessions held in memory.",
		},
	)

	// TraceRecordsDropped counts trace records discarded by a full async queue.
	TraceRecordsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tales_trace_records_dropped_total",
			Help: "Total number of turn trace records dropped because a sink queue was full.",
		},
		[]string{"sink"},
	)
)
