// Package metrics provides Prometheus-compatible metrics for Git Cards.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// metricDesc carries the identity shared by every metric kind. The
// label set is fixed at construction and never mutated, so reads need
// no locking.
type metricDesc struct {
	name   string
	help   string
	labels map[string]string
}

func desc(name, help string, labels map[string]string) metricDesc {
	if labels == nil {
		labels = map[string]string{}
	}
	return metricDesc{name: name, help: help, labels: labels}
}

// Name returns the metric name.
func (d metricDesc) Name() string { return d.name }

// Help returns the metric help text.
func (d metricDesc) Help() string { return d.help }

// Labels returns a copy of the metric labels.
func (d metricDesc) Labels() map[string]string {
	out := make(map[string]string, len(d.labels))
	for k, v := range d.labels {
		out[k] = v
	}
	return out
}

// Counter is a monotonically increasing counter.
type Counter struct {
	metricDesc
	value atomic.Int64
}

// NewCounter creates a new counter.
func NewCounter(name, help string, labels map[string]string) *Counter {
	return &Counter{metricDesc: desc(name, help, labels)}
}

// Inc increments the counter by 1.
func (c *Counter) Inc() { c.value.Add(1) }

// Add adds delta to the counter. Negative deltas are dropped since
// counters only move forward.
func (c *Counter) Add(delta int64) {
	if delta < 0 {
		return
	}
	c.value.Add(delta)
}

// Value returns the current counter value.
func (c *Counter) Value() int64 { return c.value.Load() }

// Reset resets the counter to 0.
func (c *Counter) Reset() { c.value.Store(0) }

// Gauge is a metric that can go up and down. The value is stored as
// float64 bits so fractional gauges like memory ratios survive intact.
type Gauge struct {
	metricDesc
	bits atomic.Uint64
}

// NewGauge creates a new gauge.
func NewGauge(name, help string, labels map[string]string) *Gauge {
	return &Gauge{metricDesc: desc(name, help, labels)}
}

// Set sets the gauge to the given value.
func (g *Gauge) Set(value float64) { g.bits.Store(math.Float64bits(value)) }

// Inc increments the gauge by 1.
func (g *Gauge) Inc() { g.Add(1) }

// Dec decrements the gauge by 1.
func (g *Gauge) Dec() { g.Add(-1) }

// Add adds delta to the gauge.
func (g *Gauge) Add(delta float64) {
	for {
		old := g.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if g.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// Value returns the current gauge value.
func (g *Gauge) Value() float64 { return math.Float64frombits(g.bits.Load()) }

// Histogram counts observations into cumulative buckets.
type Histogram struct {
	metricDesc
	bounds []float64

	mu     sync.Mutex
	counts []int64 // per-bucket, last slot is +Inf
	sum    float64
	total  int64
}

// NewHistogram creates a new histogram with the given bucket upper
// bounds. Nil buckets get a default latency spread in milliseconds.
func NewHistogram(name, help string, buckets []float64) *Histogram {
	return newHistogram(name, help, buckets, nil)
}

func newHistogram(name, help string, buckets []float64, labels map[string]string) *Histogram {
	if len(buckets) == 0 {
		buckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}
	}
	bounds := append([]float64(nil), buckets...)
	sort.Float64s(bounds)

	return &Histogram{
		metricDesc: desc(name, help, labels),
		bounds:     bounds,
		counts:     make([]int64, len(bounds)+1),
	}
}

// Observe adds a single observation.
func (h *Histogram) Observe(value float64) {
	idx := sort.SearchFloat64s(h.bounds, value)

	h.mu.Lock()
	h.counts[idx]++
	h.sum += value
	h.total++
	h.mu.Unlock()
}

// Count returns the total count of observations.
func (h *Histogram) Count() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.total
}

// Sum returns the sum of all observed values.
func (h *Histogram) Sum() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sum
}

// Buckets returns the bucket upper bounds.
func (h *Histogram) Buckets() []float64 {
	out := make([]float64, len(h.bounds))
	copy(out, h.bounds)
	return out
}

// BucketCounts returns the cumulative count per bucket, the way
// Prometheus le buckets are exported.
func (h *Histogram) BucketCounts() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]int64, len(h.counts))
	var running int64
	for i, c := range h.counts {
		running += c
		out[i] = running
	}
	return out
}

// vec tracks one child metric per distinct label combination. It backs
// the CounterVec, GaugeVec and HistogramVec types.
type vec[M any] struct {
	name       string
	help       string
	labelNames []string
	build      func(labels map[string]string) M

	mu      sync.RWMutex
	members map[string]M
}

func newVec[M any](name, help string, labelNames []string, build func(map[string]string) M) *vec[M] {
	return &vec[M]{
		name:       name,
		help:       help,
		labelNames: labelNames,
		build:      build,
		members:    map[string]M{},
	}
}

func (v *vec[M]) withLabels(values ...string) M {
	if len(values) != len(v.labelNames) {
		panic(fmt.Sprintf("metric %s: expected %d label values, got %d",
			v.name, len(v.labelNames), len(values)))
	}

	labels := make(map[string]string, len(values))
	for i, n := range v.labelNames {
		labels[n] = values[i]
	}
	key := labelsToKey(labels)

	v.mu.RLock()
	m, ok := v.members[key]
	v.mu.RUnlock()
	if ok {
		return m
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if m, ok := v.members[key]; ok {
		return m
	}
	m = v.build(labels)
	v.members[key] = m
	return m
}

func (v *vec[M]) getAll() []M {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]M, 0, len(v.members))
	for _, m := range v.members {
		out = append(out, m)
	}
	return out
}

// CounterVec is a counter family keyed by label values.
type CounterVec struct {
	*vec[*Counter]
}

// NewCounterVec creates a new counter vector.
func NewCounterVec(name, help string, labelNames []string) *CounterVec {
	return &CounterVec{newVec(name, help, labelNames, func(labels map[string]string) *Counter {
		return NewCounter(name, help, labels)
	})}
}

// WithLabels returns the counter for the given label values, creating
// it on first use.
func (cv *CounterVec) WithLabels(values ...string) *Counter { return cv.withLabels(values...) }

// GetAll returns all counters in the vector.
func (cv *CounterVec) GetAll() []*Counter { return cv.getAll() }

// Name returns the metric name.
func (cv *CounterVec) Name() string { return cv.name }

// Help returns the metric help text.
func (cv *CounterVec) Help() string { return cv.help }

// GaugeVec is a gauge family keyed by label values.
type GaugeVec struct {
	*vec[*Gauge]
}

// NewGaugeVec creates a new gauge vector.
func NewGaugeVec(name, help string, labelNames []string) *GaugeVec {
	return &GaugeVec{newVec(name, help, labelNames, func(labels map[string]string) *Gauge {
		return NewGauge(name, help, labels)
	})}
}

// WithLabels returns the gauge for the given label values, creating it
// on first use.
func (gv *GaugeVec) WithLabels(values ...string) *Gauge { return gv.withLabels(values...) }

// GetAll returns all gauges in the vector.
func (gv *GaugeVec) GetAll() []*Gauge { return gv.getAll() }

// Name returns the metric name.
func (gv *GaugeVec) Name() string { return gv.name }

// Help returns the metric help text.
func (gv *GaugeVec) Help() string { return gv.help }

// HistogramVec is a histogram family keyed by label values.
type HistogramVec struct {
	*vec[*Histogram]
}

// NewHistogramVec creates a new histogram vector.
func NewHistogramVec(name, help string, labelNames []string, buckets []float64) *HistogramVec {
	return &HistogramVec{newVec(name, help, labelNames, func(labels map[string]string) *Histogram {
		return newHistogram(name, help, buckets, labels)
	})}
}

// WithLabels returns the histogram for the given label values, creating
// it on first use.
func (hv *HistogramVec) WithLabels(values ...string) *Histogram { return hv.withLabels(values...) }

// GetAll returns all histograms in the vector.
func (hv *HistogramVec) GetAll() []*Histogram { return hv.getAll() }

// Name returns the metric name.
func (hv *HistogramVec) Name() string { return hv.name }

// Help returns the metric help text.
func (hv *HistogramVec) Help() string { return hv.help }

// labelsToKey builds a stable map key from sorted label pairs.
func labelsToKey(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(labels[k])
	}
	return sb.String()
}
