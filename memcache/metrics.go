package memcache

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics receives cache observability events.
type Metrics interface {
	Hit()
	Miss()
	Evict(n int)
	Size(entries int)
}

// NoopMetrics discards every event. It is the default.
type NoopMetrics struct{}

func (NoopMetrics) Hit()      {}
func (NoopMetrics) Miss()     {}
func (NoopMetrics) Evict(int) {}
func (NoopMetrics) Size(int)  {}

var _ Metrics = NoopMetrics{}

// PromMetrics holds the Prometheus collectors for one or more caches,
// partitioned by the "cache" label.
type PromMetrics struct {
	hits      *prometheus.CounterVec
	misses    *prometheus.CounterVec
	evictions *prometheus.CounterVec
	entries   *prometheus.GaugeVec
}

// NewPromMetrics creates the collectors and registers them with reg
// (prometheus.DefaultRegisterer when nil).
func NewPromMetrics(reg prometheus.Registerer, namespace string) *PromMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &PromMetrics{
		hits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "memcache_hits_total",
				Help:      "Number of cache hits",
			},
			[]string{"cache"},
		),
		misses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "memcache_misses_total",
				Help:      "Number of cache misses",
			},
			[]string{"cache"},
		),
		evictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "memcache_evictions_total",
				Help:      "Number of keys removed by the eviction policy",
			},
			[]string{"cache"},
		),
		entries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "memcache_entries",
				Help:      "Number of keys in cache",
			},
			[]string{"cache"},
		),
	}

	reg.MustRegister(m.hits, m.misses, m.evictions, m.entries)

	return m
}

// For returns a Metrics implementation reporting under the given cache name.
func (m *PromMetrics) For(cache string) Metrics {
	return &promCache{
		hits:      m.hits.WithLabelValues(cache),
		misses:    m.misses.WithLabelValues(cache),
		evictions: m.evictions.WithLabelValues(cache),
		entries:   m.entries.WithLabelValues(cache),
	}
}

type promCache struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
	entries   prometheus.Gauge
}

func (p *promCache) Hit()             { p.hits.Inc() }
func (p *promCache) Miss()            { p.misses.Inc() }
func (p *promCache) Evict(n int)      { p.evictions.Add(float64(n)) }
func (p *promCache) Size(entries int) { p.entries.Set(float64(entries)) }
