package subscription

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fire outcomes.
const (
	outcomeDelivered    = "delivered"
	outcomeEmpty        = "empty"
	outcomeError        = "error"
	outcomeNotTriggered = "not_triggered"
	outcomeCheckFailed  = "check_failed"
)

// Metrics provides observability for standing query execution.
type Metrics struct {
	// Fires by subscription kind (scheduled, triggered) and outcome
	Fires *prometheus.CounterVec

	// Deliveries by outcome (success, failure)
	Deliveries *prometheus.CounterVec

	// Time from timer fire to completion, by kind
	FireDuration *prometheus.HistogramVec

	// Active subscriptions in the registry
	Active prometheus.Gauge
}

// NewMetrics registers the subscription metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Fires: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "epcis_subscription_fires_total",
			Help: "Subscription timer fires by kind and outcome",
		}, []string{"kind", "outcome"}),

		Deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "epcis_subscription_deliveries_total",
			Help: "Result deliveries by outcome",
		}, []string{"outcome"}),

		FireDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "epcis_subscription_fire_duration_seconds",
			Help:    "Duration of one subscription fire including delivery",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),

		Active: factory.NewGauge(prometheus.GaugeOpts{
			Name: "epcis_subscriptions_active",
			Help: "Subscriptions currently armed",
		}),
	}
}

func (m *Metrics) recordFire(kind Kind, outcome string, d time.Duration) {
	if m != nil {
		m.Fires.WithLabelValues(string(kind), outcome).Inc()
		m.FireDuration.WithLabelValues(string(kind)).Observe(d.Seconds())
	}
}

func (m *Metrics) recordDelivery(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.Deliveries.WithLabelValues("failure").Inc()
		return
	}
	m.Deliveries.WithLabelValues("success").Inc()
}

func (m *Metrics) setActive(n int) {
	if m != nil {
		m.Active.Set(float64(n))
	}
}
