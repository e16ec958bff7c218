package memory

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AppendsTotal counts snapshot appends.
	// Labels: backend (memory, badger), result (success, error)
	AppendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coachd",
			Subsystem: "memory",
			Name:      "appends_total",
			Help:      "Total number of session snapshot appends",
		},
		[]string{"backend", "result"},
	)

	// LookupsTotal counts latest/history reads.
	// Labels: backend, result (hit, miss, error)
	LookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coachd",
			Subsystem: "memory",
			Name:      "lookups_total",
			Help:      "Total number of session history lookups",
		},
		[]string{"backend", "result"},
	)
)

func observeAppend(backend string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	AppendsTotal.WithLabelValues(backend, result).Inc()
}

func observeLookup(backend string, found bool, err error) {
	result := "hit"
	switch {
	case err != nil:
		result = "error"
	case !found:
		result = "miss"
	}
	LookupsTotal.WithLabelValues(backend, result).Inc()
}
