// Package promadapters provides Prometheus implementations of the observability interfaces
// defined in the logging package.
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	collector := promadapters.NewCollector(registry, "warekit")
//	sink, err := logging.Configure(logging.ConfigFromEnv(), logging.WithMetrics(collector))
//	http.Handle("/metrics", promadapters.Handler(registry))
package promadapters

import (
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AntonStoeckl/warekit/ware/logging"
)

// Collector implements logging.MetricsCollector with Prometheus vectors:
//   - RecordDuration -> HistogramVec in seconds
//   - IncrementCounter -> CounterVec
//
// Vectors are registered on first use and cached per metric name. The label names of a metric
// are fixed by its first observation; later observations with other label names are dropped.
type Collector struct {
	registerer prometheus.Registerer
	namespace  string
	mu         sync.Mutex
	histograms map[string]*prometheus.HistogramVec
	counters   map[string]*prometheus.CounterVec
}

// NewCollector creates a Prometheus metrics collector registering its vectors on registerer.
// An empty namespace leaves metric names unprefixed.
func NewCollector(registerer prometheus.Registerer, namespace string) *Collector {
	return &Collector{
		registerer: registerer,
		namespace:  namespace,
		histograms: make(map[string]*prometheus.HistogramVec),
		counters:   make(map[string]*prometheus.CounterVec),
	}
}

// Handler exposes the metrics of gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// RecordDuration observes duration in the histogram named metricName.
func (c *Collector) RecordDuration(metricName string, duration time.Duration, labels map[string]string) {
	histogram := c.getOrCreateHistogram(metricName, labelNames(labels))
	if histogram == nil {
		return
	}

	observer, err := histogram.GetMetricWith(labels)
	if err != nil {
		return
	}

	observer.Observe(duration.Seconds())
}

// IncrementCounter adds one to the counter named metricName.
func (c *Collector) IncrementCounter(metricName string, labels map[string]string) {
	counter := c.getOrCreateCounter(metricName, labelNames(labels))
	if counter == nil {
		return
	}

	metric, err := counter.GetMetricWith(labels)
	if err != nil {
		return
	}

	metric.Inc()
}

func labelNames(labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

func (c *Collector) getOrCreateHistogram(name string, labelNames []string) *prometheus.HistogramVec {
	c.mu.Lock()
	defer c.mu.Unlock()

	if histogram, exists := c.histograms[name]; exists {
		return histogram
	}

	histogram := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.namespace,
		Name:      name,
		Help:      "Catch boundary duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, labelNames)

	registered, ok := register(c.registerer, histogram).(*prometheus.HistogramVec)
	if !ok {
		return nil
	}

	c.histograms[name] = registered

	return registered
}

func (c *Collector) getOrCreateCounter(name string, labelNames []string) *prometheus.CounterVec {
	c.mu.Lock()
	defer c.mu.Unlock()

	if counter, exists := c.counters[name]; exists {
		return counter
	}

	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.namespace,
		Name:      name,
		Help:      "Caught error counter.",
	}, labelNames)

	registered, ok := register(c.registerer, counter).(*prometheus.CounterVec)
	if !ok {
		return nil
	}

	c.counters[name] = registered

	return registered
}

// register returns the collector now registered under the descriptor of collector,
// which is the existing one if an equal collector was registered before, or nil on conflict.
func register(registerer prometheus.Registerer, collector prometheus.Collector) prometheus.Collector {
	err := registerer.Register(collector)
	if err == nil {
		return collector
	}

	var alreadyRegistered prometheus.AlreadyRegisteredError
	if errors.As(err, &alreadyRegistered) {
		return alreadyRegistered.ExistingCollector
	}

	return nil
}

// Ensure Collector implements logging.MetricsCollector.
var _ logging.MetricsCollector = (*Collector)(nil)
