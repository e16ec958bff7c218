package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsTotal counts finished sessions.
	// Labels: result (success, failed, cancelled, invalid)
	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coachd",
			Subsystem: "orchestrator",
			Name:      "sessions_total",
			Help:      "Total number of coaching sessions by result",
		},
		[]string{"result"},
	)

	// PhaseDuration tracks time spent in each session phase.
	// Labels: phase
	PhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "coachd",
			Subsystem: "orchestrator",
			Name:      "phase_duration_seconds",
			Help:      "Duration of session phases in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"phase"},
	)
)

const (
	resultSuccess   = "success"
	resultFailed    = "failed"
	resultCancelled = "cancelled"
	resultInvalid   = "invalid"
)
