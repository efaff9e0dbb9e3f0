package query

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for poll execution.
type Metrics struct {
	// Poll latency by query name
	PollDuration *prometheus.HistogramVec

	// Failed polls by query name and error kind
	PollErrors *prometheus.CounterVec

	// Events returned by event type
	EventsReturned *prometheus.CounterVec
}

// NewMetrics registers the query metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PollDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "epcis_query_poll_duration_seconds",
			Help:    "Duration of query execution including hydration",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"query"}),

		PollErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "epcis_query_poll_errors_total",
			Help: "Failed query executions by error kind",
		}, []string{"query", "kind"}),

		EventsReturned: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "epcis_query_events_returned_total",
			Help: "Events returned by query executions",
		}, []string{"event_type"}),
	}
}

// ObservePoll records the duration of one query execution.
func (m *Metrics) ObservePoll(queryName string, d time.Duration) {
	if m != nil {
		m.PollDuration.WithLabelValues(queryName).Observe(d.Seconds())
	}
}

// IncrementError records a failed query execution.
func (m *Metrics) IncrementError(queryName, kind string) {
	if m != nil {
		m.PollErrors.WithLabelValues(queryName, kind).Inc()
	}
}

// AddEvents records the number of events of one type returned.
func (m *Metrics) AddEvents(eventType string, n int) {
	if m != nil && n > 0 {
		m.EventsReturned.WithLabelValues(eventType).Add(float64(n))
	}
}
