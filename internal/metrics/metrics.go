// Package metrics holds the Prometheus counters for settlement operations.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "amm"

// Result labels.
const (
	ResultCommitted = "committed"
	ResultRejected  = "rejected"
	ResultInternal  = "internal"
)

type Metrics struct {
	operations *prometheus.CounterVec
	events     prometheus.Counter
}

// New registers the counters with r.
func New(r prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "number of pool operations by kind and result",
		}, []string{"op", "result"}),
		events: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "number of settlement events emitted",
		}),
	}
	err := errors.Join(
		r.Register(m.operations),
		r.Register(m.events),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Operation counts one finished operation. A nil receiver is a no-op.
func (m *Metrics) Operation(op, result string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) Event() {
	if m == nil {
		return
	}
	m.events.Inc()
}

// OperationsCounter exposes one labelled operations counter for inspection.
func (m *Metrics) OperationsCounter(op, result string) prometheus.Counter {
	return m.operations.WithLabelValues(op, result)
}

func (m *Metrics) EventsCounter() prometheus.Counter {
	return m.events
}
