package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the engine
type Metrics struct {
	// Permission check metrics
	ChecksTotal   *prometheus.CounterVec
	CheckDuration prometheus.Histogram

	// Permission cache metrics
	CacheHitsTotal      prometheus.Counter
	CacheMissesTotal    prometheus.Counter
	CacheEvictionsTotal prometheus.Counter
	CacheSize           prometheus.Gauge

	// Navigation filter metrics
	FilterDuration     prometheus.Histogram
	FilteredNodesTotal *prometheus.CounterVec

	// Change event metrics
	EventsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		ChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_checks_total",
				Help: "Total number of permission checks",
			},
			[]string{"result", "source"},
		),
		CheckDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gatehouse_check_duration_seconds",
				Help:    "Permission check duration in seconds",
				Buckets: prometheus.ExponentialBuckets(1e-6, 10, 6),
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gatehouse_cache_hits_total",
				Help: "Total number of permission cache hits",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gatehouse_cache_misses_total",
				Help: "Total number of permission cache misses",
			},
		),
		CacheEvictionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gatehouse_cache_evictions_total",
				Help: "Total number of permission cache evictions",
			},
		),
		CacheSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gatehouse_cache_entries",
				Help: "Current number of permission cache entries",
			},
		),
		FilterDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gatehouse_nav_filter_duration_seconds",
				Help:    "Navigation tree filter duration in seconds",
				Buckets: prometheus.ExponentialBuckets(1e-6, 10, 6),
			},
		),
		FilteredNodesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_nav_nodes_total",
				Help: "Total number of navigation nodes considered by the filter",
			},
			[]string{"outcome"},
		),
		EventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_events_total",
				Help: "Total number of change events dispatched",
			},
			[]string{"type"},
		),
	}

	if registry != nil {
		registry.MustRegister(
			m.ChecksTotal,
			m.CheckDuration,
			m.CacheHitsTotal,
			m.CacheMissesTotal,
			m.CacheEvictionsTotal,
			m.CacheSize,
			m.FilterDuration,
			m.FilteredNodesTotal,
			m.EventsTotal,
		)
	}

	return m
}

// ObserveCheck records one permission check outcome.
func (m *Metrics) ObserveCheck(allowed, cacheHit bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	source := "computed"
	if cacheHit {
		source = "cached"
		m.CacheHitsTotal.Inc()
	} else {
		m.CacheMissesTotal.Inc()
	}
	m.ChecksTotal.WithLabelValues(result, source).Inc()
}

// ObserveFilter records one navigation filter pass.
func (m *Metrics) ObserveFilter(duration time.Duration, visible, pruned int) {
	m.FilterDuration.Observe(duration.Seconds())
	m.FilteredNodesTotal.WithLabelValues("visible").Add(float64(visible))
	m.FilteredNodesTotal.WithLabelValues("pruned").Add(float64(pruned))
}

// ObserveEvent records one dispatched change event.
func (m *Metrics) ObserveEvent(eventType string) {
	m.EventsTotal.WithLabelValues(eventType).Inc()
}
