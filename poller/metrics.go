package poller

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records poll activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	attempts prometheus.Counter
	outcomes *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics creates the poller metrics under namespace and registers them
// with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_attempts_total",
			Help:      "Number of transaction status queries issued",
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_outcomes_total",
			Help:      "Number of finished awaits by final state",
		}, []string{"state"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_await_seconds",
			Help:      "Time spent waiting for a transaction outcome",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
	}

	err := errors.Join(
		reg.Register(m.attempts),
		reg.Register(m.outcomes),
		reg.Register(m.duration),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) observeAttempt() {
	if m == nil {
		return
	}
	m.attempts.Inc()
}

func (m *Metrics) observeResult(state State, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(state.String()).Inc()
	m.duration.Observe(elapsed.Seconds())
}
