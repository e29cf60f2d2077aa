package observability

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hapkiduki/shipping-quote/internal/application/port"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements port.Metrics on top of a Prometheus registry.
// Collectors are created lazily on first use; the tag keys seen first fix the
// label set for that metric name and later samples with other keys are dropped.
type PrometheusMetrics struct {
	namespace  string
	registerer prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

var _ port.Metrics = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates a metrics adapter registering into reg.
//
// Parameters:
//   - namespace: prefix for every metric name (e.g., "shipquote")
//   - reg: the registry, usually prometheus.DefaultRegisterer
//
// Returns:
//   - *PrometheusMetrics: the adapter
func NewPrometheusMetrics(namespace string, reg prometheus.Registerer) *PrometheusMetrics {
	return &PrometheusMetrics{
		namespace:  namespace,
		registerer: reg,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

// Counter implements port.Metrics.
func (m *PrometheusMetrics) Counter(name string, value float64, tags map[string]string) {
	m.mu.Lock()
	vec, ok := m.counters[name]
	if !ok {
		vec = register(m.registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace,
			Name:      sanitize(name),
			Help:      "Counter " + name,
		}, labelNames(tags)))
		m.counters[name] = vec
	}
	m.mu.Unlock()

	if c, err := vec.GetMetricWith(tags); err == nil {
		c.Add(value)
	}
}

// Gauge implements port.Metrics.
func (m *PrometheusMetrics) Gauge(name string, value float64, tags map[string]string) {
	m.mu.Lock()
	vec, ok := m.gauges[name]
	if !ok {
		vec = register(m.registerer, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: m.namespace,
			Name:      sanitize(name),
			Help:      "Gauge " + name,
		}, labelNames(tags)))
		m.gauges[name] = vec
	}
	m.mu.Unlock()

	if g, err := vec.GetMetricWith(tags); err == nil {
		g.Set(value)
	}
}

// Histogram implements port.Metrics.
func (m *PrometheusMetrics) Histogram(name string, value float64, tags map[string]string) {
	m.observe(name, prometheus.ExponentialBuckets(100, 2, 10), value, tags)
}

// Timing implements port.Metrics. Durations are recorded in seconds.
func (m *PrometheusMetrics) Timing(name string, duration time.Duration, tags map[string]string) {
	m.observe(name+"_seconds", prometheus.DefBuckets, duration.Seconds(), tags)
}

func (m *PrometheusMetrics) observe(name string, buckets []float64, value float64, tags map[string]string) {
	m.mu.Lock()
	vec, ok := m.histograms[name]
	if !ok {
		vec = register(m.registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: m.namespace,
			Name:      sanitize(name),
			Help:      "Histogram " + name,
			Buckets:   buckets,
		}, labelNames(tags)))
		m.histograms[name] = vec
	}
	m.mu.Unlock()

	if h, err := vec.GetMetricWith(tags); err == nil {
		h.Observe(value)
	}
}

// register returns the already registered collector when one exists, so two
// adapters sharing a registry reuse the same series.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

func labelNames(tags map[string]string) []string {
	names := make([]string, 0, len(tags))
	for k := range tags {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func sanitize(name string) string {
	return strings.NewReplacer(".", "_", "-", "_", " ", "_").Replace(name)
}
