package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all engine metrics
type Metrics struct {
	// Dispatch metrics
	DispatchesTotal   *prometheus.CounterVec
	AlertsCreated     prometheus.Counter
	NoCandidateRounds prometheus.Counter

	// Claim race metrics
	ClaimsWon  prometheus.Counter
	ClaimsLost prometheus.Counter

	// Side-effect metrics
	EmailFailures *prometheus.CounterVec

	// Scheduler metrics
	SweepDuration *prometheus.HistogramVec
	SweepErrors   *prometheus.CounterVec
}

// New creates and registers all engine metrics
func New(namespace string) *Metrics {
	return &Metrics{
		DispatchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Total dispatch attempts by outcome",
		}, []string{"outcome"}),
		AlertsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_created_total",
			Help:      "Total alert records created",
		}),
		NoCandidateRounds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "no_candidate_rounds_total",
			Help:      "Dispatch rounds that matched zero candidates",
		}),
		ClaimsWon: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_won_total",
			Help:      "Accept responses that won the assignment race",
		}),
		ClaimsLost: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_lost_total",
			Help:      "Accept responses rejected because the job was already assigned",
		}),
		EmailFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "email_failures_total",
			Help:      "Outbound emails that failed to send, by kind",
		}, []string{"kind"}),
		SweepDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of scheduler sweeps",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"task"}),
		SweepErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_errors_total",
			Help:      "Scheduler sweep failures by task",
		}, []string{"task"}),
	}
}
