package sessions

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JaimeStill/clerk/internal/workflow"
)

const namespace = "clerk"

// Metrics holds the workflow collectors shared by every session.
type Metrics struct {
	transitions *prometheus.CounterVec
	operations  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "transitions_total",
			Help:      "Workflow phase transitions.",
		}, []string{"from", "to"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "operations_total",
			Help:      "Workflow operations by outcome.",
		}, []string{"op", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "operation_duration_seconds",
			Help:      "Workflow operation latency, including remote calls.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"op"}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.transitions, m.operations, m.duration} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) transition(from, to workflow.Phase) {
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

func (m *Metrics) operation(op workflow.Operation, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(string(op), result).Inc()
	if op != workflow.OpReset {
		m.duration.WithLabelValues(string(op)).Observe(elapsed.Seconds())
	}
}
