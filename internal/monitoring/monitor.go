// Package monitoring exposes the engine's prometheus metrics.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the engine's metric set on a private registry.
type Collector struct {
	registry *prometheus.Registry

	cycles        prometheus.Counter
	cycleDuration prometheus.Histogram
	scheduled     *prometheus.CounterVec
	executed      *prometheus.CounterVec
	activeAgents  prometheus.Gauge
	rosterSize    prometheus.Gauge
	healthScore   prometheus.Gauge
	fallbacks     prometheus.Counter
}

// NewCollector builds and registers the metric set.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engine_cycles_total",
			Help: "Completed control-loop cycles",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "engine_cycle_duration_seconds",
			Help:    "Wall time per control-loop cycle",
			Buckets: prometheus.LinearBuckets(0, 30, 12),
		}),
		scheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_actions_scheduled_total",
			Help: "Actions admitted by the coordinator",
		}, []string{"kind"}),
		executed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_actions_executed_total",
			Help: "Actions executed against the platform",
		}, []string{"kind", "outcome"}),
		activeAgents: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "engine_active_agents",
			Help: "Agents currently in active status",
		}),
		rosterSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "engine_roster_size",
			Help: "All managed agents including retired",
		}),
		healthScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "engine_ecosystem_health",
			Help: "Overall ecosystem health score",
		}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engine_generation_fallbacks_total",
			Help: "Generated outputs replaced by fallback phrases",
		}),
	}

	registry.MustRegister(c.cycles, c.cycleDuration, c.scheduled, c.executed,
		c.activeAgents, c.rosterSize, c.healthScore, c.fallbacks)
	return c
}

// Handler serves the registry for the metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordCycle counts a completed cycle and its duration in seconds.
func (c *Collector) RecordCycle(seconds float64) {
	c.cycles.Inc()
	c.cycleDuration.Observe(seconds)
}

// RecordScheduled counts a coordinator admission.
func (c *Collector) RecordScheduled(kind string) {
	c.scheduled.WithLabelValues(kind).Inc()
}

// RecordExecuted counts an execution attempt. outcome is "ok" or "error".
func (c *Collector) RecordExecuted(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.executed.WithLabelValues(kind, outcome).Inc()
}

// SetRoster updates the population gauges.
func (c *Collector) SetRoster(total, active int) {
	c.rosterSize.Set(float64(total))
	c.activeAgents.Set(float64(active))
}

// SetHealth updates the ecosystem health gauge.
func (c *Collector) SetHealth(score float64) {
	c.healthScore.Set(score)
}

// RecordFallback counts a generation fallback.
func (c *Collector) RecordFallback() {
	c.fallbacks.Inc()
}
