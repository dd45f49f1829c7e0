package metrics

import (
	"fmt"
	"sort"
	"strings"
)

// PrometheusFormat exports all metrics in the Prometheus text
// exposition format.
// See: https://prometheus.io/docs/instrumenting/exposition_formats/
func (m *Metrics) PrometheusFormat() string {
	var sb strings.Builder

	// Scan metrics
	writeCounter(&sb, m.ScanRequests)
	writeHistogram(&sb, m.ScanLatency)
	writeCounterVec(&sb, m.ScanErrors)
	writeCounter(&sb, m.ReposScanned)
	writeCounter(&sb, m.FilesScanned)
	writeCounterVec(&sb, m.FilesSkipped)
	writeHistogramVec(&sb, m.ScanStage)
	writeHistogram(&sb, m.Identifiers)
	writeCounterVec(&sb, m.ExtractErrors)

	// Card metrics
	writeCounterVec(&sb, m.CardRenders)
	writeHistogramVec(&sb, m.CardLatency)

	// GitHub metrics
	writeCounterVec(&sb, m.GitHubRequests)
	writeCounterVec(&sb, m.GitHubErrors)
	writeHistogram(&sb, m.GitHubLatency)

	// Cache metrics
	writeCounterVec(&sb, m.CacheHits)
	writeCounterVec(&sb, m.CacheMisses)

	// Bus metrics
	writeCounterVec(&sb, m.BusEventsPublished)
	writeHistogramVec(&sb, m.BusEventLatency)
	writeCounterVec(&sb, m.BusErrors)

	// HTTP metrics
	writeCounterVec(&sb, m.HTTPRequests)
	writeHistogramVec(&sb, m.HTTPDuration)
	writeGauge(&sb, m.HTTPRequestsInFlight)
	writeHistogramVec(&sb, m.HTTPRequestSize)

	// System metrics
	writeGauge(&sb, m.GoroutineCount)
	writeGauge(&sb, m.MemoryUsage)
	writeCounter(&sb, m.Uptime)

	return sb.String()
}

func writeHeader(sb *strings.Builder, name, help, kind string) {
	fmt.Fprintf(sb, "# HELP %s %s\n", name, help)
	fmt.Fprintf(sb, "# TYPE %s %s\n", name, kind)
}

func writeCounter(sb *strings.Builder, c *Counter) {
	writeHeader(sb, c.Name(), c.Help(), "counter")
	fmt.Fprintf(sb, "%s%s %d\n", c.Name(), labelString(c.Labels()), c.Value())
}

func writeGauge(sb *strings.Builder, g *Gauge) {
	writeHeader(sb, g.Name(), g.Help(), "gauge")
	fmt.Fprintf(sb, "%s%s %.0f\n", g.Name(), labelString(g.Labels()), g.Value())
}

func writeHistogram(sb *strings.Builder, h *Histogram) {
	writeHeader(sb, h.Name(), h.Help(), "histogram")
	writeHistogramSeries(sb, h)
}

// writeHistogramSeries emits the bucket, sum and count lines for one
// histogram, merging an le label into whatever labels it carries.
func writeHistogramSeries(sb *strings.Builder, h *Histogram) {
	bounds := h.Buckets()
	counts := h.BucketCounts()
	base := h.Labels()

	for i, bound := range bounds {
		le := withLE(base, fmt.Sprintf("%.1f", bound))
		fmt.Fprintf(sb, "%s_bucket%s %d\n", h.Name(), labelString(le), counts[i])
	}
	fmt.Fprintf(sb, "%s_bucket%s %d\n", h.Name(), labelString(withLE(base, "+Inf")), counts[len(counts)-1])

	fmt.Fprintf(sb, "%s_sum%s %.2f\n", h.Name(), labelString(base), h.Sum())
	fmt.Fprintf(sb, "%s_count%s %d\n", h.Name(), labelString(base), h.Count())
}

func writeCounterVec(sb *strings.Builder, cv *CounterVec) {
	counters := cv.GetAll()
	if len(counters) == 0 {
		return
	}

	writeHeader(sb, cv.Name(), cv.Help(), "counter")
	for _, c := range counters {
		fmt.Fprintf(sb, "%s%s %d\n", c.Name(), labelString(c.Labels()), c.Value())
	}
}

func writeHistogramVec(sb *strings.Builder, hv *HistogramVec) {
	hists := hv.GetAll()
	if len(hists) == 0 {
		return
	}

	writeHeader(sb, hv.Name(), hv.Help(), "histogram")
	for _, h := range hists {
		writeHistogramSeries(sb, h)
	}
}

func withLE(labels map[string]string, le string) map[string]string {
	out := make(map[string]string, len(labels)+1)
	for k, v := range labels {
		out[k] = v
	}
	out["le"] = le
	return out
}

// labelString renders labels as {key="value",key2="value2"}, empty
// string for an empty set.
func labelString(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(",")
		}
		// %q escapes backslashes, quotes and newlines the way the
		// exposition format expects.
		fmt.Fprintf(&sb, "%s=%q", k, labels[k])
	}
	sb.WriteString("}")
	return sb.String()
}
