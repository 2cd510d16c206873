package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "payments_admin"

// Metrics counts table actions by outcome and tracks the collection size.
type Metrics struct {
	registry *prometheus.Registry
	actions  *prometheus.CounterVec
	records  prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Table actions by action and outcome.",
		}, []string{"action", "outcome"}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Payments currently held in the table.",
		}),
	}
	m.registry.MustRegister(
		m.actions,
		m.records,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Action(action, outcome string) {
	m.actions.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) Records(n int) {
	m.records.Set(float64(n))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
