// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

// Registry owns every collector. Each instance has its own Prometheus
// registry, so tests can create as many as they like.
type Registry struct {
	reg *prometheus.Registry

	CycleDuration   *prometheus.HistogramVec
	Cycles          *prometheus.CounterVec
	Evaluations     *prometheus.CounterVec
	PriceFallbacks  prometheus.Counter
	ActivePositions prometheus.Gauge
	OpenSlots       prometheus.Gauge
	DeadCapital     prometheus.Gauge
	ProviderErrors  *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		CycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "swingdesk_cycle_duration_seconds",
			Help:    "Duration of evaluation cycles.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"result"}),
		Cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swingdesk_cycles_total",
			Help: "Evaluation cycles by result.",
		}, []string{"result"}),
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swingdesk_evaluations_total",
			Help: "Position evaluations by recommendation.",
		}, []string{"recommendation"}),
		PriceFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swingdesk_price_fallbacks_total",
			Help: "Evaluations that used a stale or fallback price.",
		}),
		ActivePositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "swingdesk_active_positions",
			Help: "Active positions at the last cycle.",
		}),
		OpenSlots: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "swingdesk_open_slots",
			Help: "Open slots at the last cycle.",
		}),
		DeadCapital: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "swingdesk_dead_capital_positions",
			Help: "Positions flagged as dead capital at the last cycle.",
		}),
		ProviderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swingdesk_provider_errors_total",
			Help: "Failed calls to external providers.",
		}, []string{"provider"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swingdesk_http_requests_total",
			Help: "HTTP requests by method and status class.",
		}, []string{"method", "status"}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.CycleDuration, r.Cycles, r.Evaluations, r.PriceFallbacks,
		r.ActivePositions, r.OpenSlots, r.DeadCapital,
		r.ProviderErrors, r.HTTPRequests,
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ObserveCycle records one finished cycle.
func (r *Registry) ObserveCycle(started time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.Cycles.WithLabelValues(result).Inc()
	r.CycleDuration.WithLabelValues(result).Observe(time.Since(started).Seconds())
}

// ObserveBrief records the portfolio state a brief was built from.
func (r *Registry) ObserveBrief(evals []domain.Evaluation, b domain.Brief) {
	var stale, dead int
	for _, e := range evals {
		r.Evaluations.WithLabelValues(string(e.Recommendation)).Inc()
		if e.PriceStale {
			stale++
		}
		if e.DeadCapital != nil && e.DeadCapital.IsDeadCapital {
			dead++
		}
	}
	r.PriceFallbacks.Add(float64(stale))
	r.ActivePositions.Set(float64(b.Slots.ActiveCount))
	r.OpenSlots.Set(float64(b.Slots.OpenSlots))
	r.DeadCapital.Set(float64(dead))
}
