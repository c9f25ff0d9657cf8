package hashsearch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors updated by the search loop.
type Metrics struct {
	CandidatesDispatched prometheus.Counter
	Outcomes             *prometheus.CounterVec
	OutcomesDiscarded    prometheus.Counter
	InFlightWorkers      prometheus.Gauge
	SearchDuration       prometheus.Gauge
}

// NewMetrics registers the search collectors with registerer. A nil
// registerer creates collectors that are never exported.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		CandidatesDispatched: factory.NewCounter(prometheus.CounterOpts{
			Name: "hashsearch_candidates_dispatched_total",
			Help: "Total number of candidates handed to a hash worker",
		}),
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hashsearch_outcomes_total",
			Help: "Total number of worker outcomes drained by the aggregator",
		}, []string{"outcome"}), // outcome: match, no_match
		OutcomesDiscarded: factory.NewCounter(prometheus.CounterOpts{
			Name: "hashsearch_outcomes_discarded_total",
			Help: "Outcomes still in flight when the search stopped",
		}),
		InFlightWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hashsearch_in_flight_workers",
			Help: "Number of dispatched workers whose outcome has not been drained",
		}),
		SearchDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hashsearch_search_duration_seconds",
			Help: "Wall-clock duration of the last completed search",
		}),
	}
}
