package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"carwash-backend/internal/washbay"
)

const namespace = "lavadero"

// Rejection reasons reported on the start_rejections counter.
const (
	ReasonConflict       = "conflict"
	ReasonInvalidRequest = "invalid_request"
)

// Metrics holds the Prometheus collectors of the bay.
type Metrics struct {
	registry *prometheus.Registry

	washesStarted   prometheus.Counter
	washesBilled    *prometheus.CounterVec
	startRejections *prometheus.CounterVec
	revenue         prometheus.Gauge
	busy            prometheus.Gauge
}

// New registers the collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		washesStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "washes_started_total",
			Help:      "Washes accepted by the bay.",
		}),
		washesBilled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "washes_billed_total",
			Help:      "Washes that reached billing, by extras selection.",
		}, []string{"extras"}),
		startRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "start_rejections_total",
			Help:      "Wash requests rejected by the bay.",
		}, []string{"reason"}),
		revenue: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "revenue_total",
			Help:      "Revenue accumulated by the bay.",
		}),
		busy: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bay_busy",
			Help:      "1 while a wash is in flight.",
		}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) WashStarted() {
	m.washesStarted.Inc()
	m.busy.Set(1)
}

func (m *Metrics) StartRejected(reason string) {
	m.startRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) WashBilled(c washbay.Charge, revenue decimal.Decimal) {
	m.washesBilled.WithLabelValues(ExtrasLabel(c.Extras)).Inc()
	m.SetRevenue(revenue)
}

func (m *Metrics) SetRevenue(revenue decimal.Decimal) {
	m.revenue.Set(revenue.InexactFloat64())
}

func (m *Metrics) SetBusy(busy bool) {
	if busy {
		m.busy.Set(1)
		return
	}
	m.busy.Set(0)
}

// ExtrasLabel renders an extras selection as a stable label value, "none" when empty.
func ExtrasLabel(e washbay.Extras) string {
	label := ""
	add := func(name string) {
		if label != "" {
			label += "+"
		}
		label += name
	}
	if e.PreWashByHand {
		add("pre_wash_by_hand")
	}
	if e.HandDry {
		add("hand_dry")
	}
	if e.Waxing {
		add("waxing")
	}
	if label == "" {
		return "none"
	}
	return label
}
