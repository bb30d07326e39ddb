// Package metrics holds the Prometheus collectors recorded by the gateway.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Call outcomes.
const (
	OutcomeOK             = "ok"
	OutcomeRejected       = "rejected"
	OutcomeTransportError = "transport_error"
	OutcomeNotBound       = "not_bound"
	OutcomeInvalid        = "invalid"
)

// Gateway records per-operation call counts and latency.
type Gateway struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewGateway registers the gateway collectors on reg. A nil reg uses the
// default registerer.
func NewGateway(reg prometheus.Registerer) *Gateway {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Gateway{
		calls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "landreg_gateway_calls_total",
			Help: "Total ledger calls by operation and outcome",
		}, []string{"operation", "outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "landreg_gateway_call_duration_seconds",
			Help:    "Ledger call latency",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		}, []string{"operation"}),
	}
}

// Observe records one finished call. Calls that never reached the transport
// (not bound, invalid input) are counted but not timed.
func (g *Gateway) Observe(operation, outcome string, elapsed time.Duration) {
	if g == nil {
		return
	}
	g.calls.WithLabelValues(operation, outcome).Inc()
	if outcome == OutcomeNotBound || outcome == OutcomeInvalid {
		return
	}
	g.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}
