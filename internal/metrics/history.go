package metrics

import (
	"context"
	"sync"
	"time"
)

// DataPoint represents a single time-series data point.
type DataPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Aggregation selects how recorded values collapse into one data point
// per bucket.
type Aggregation int

const (
	// AggregateMean stores the bucket average, for latency-style series.
	AggregateMean Aggregation = iota

	// AggregateSum stores the bucket total, for rate-style series.
	AggregateSum
)

// MetricHistory stores one time series with fixed-size buckets and
// bounded retention.
type MetricHistory struct {
	bucketSize time.Duration
	maxBuckets int
	agg        Aggregation

	mu          sync.Mutex
	buckets     []DataPoint
	accumulator float64
	count       int64
	lastBucket  time.Time

	storage    *RedisStorage // optional persistence
	metricName string
}

// NewMetricHistory creates an in-memory history. bucketSize is the
// duration each data point covers, maxBuckets bounds retention.
func NewMetricHistory(bucketSize time.Duration, maxBuckets int, agg Aggregation) *MetricHistory {
	return &MetricHistory{
		bucketSize: bucketSize,
		maxBuckets: maxBuckets,
		agg:        agg,
		buckets:    make([]DataPoint, 0, maxBuckets),
		lastBucket: time.Now().Truncate(bucketSize),
	}
}

// NewMetricHistoryWithRedis creates a history that persists finalized
// buckets to Redis and seeds itself from whatever Redis still holds.
func NewMetricHistoryWithRedis(bucketSize time.Duration, maxBuckets int, agg Aggregation, storage *RedisStorage, metricName string) *MetricHistory {
	h := NewMetricHistory(bucketSize, maxBuckets, agg)
	h.storage = storage
	h.metricName = metricName

	if storage != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		since := time.Now().Add(-time.Duration(maxBuckets) * bucketSize)
		if points, err := storage.LoadHistory(ctx, metricName, since); err == nil && len(points) > 0 {
			h.buckets = points
		}
	}
	return h
}

// Record adds a value to the current bucket, finalizing the previous
// one if the bucket boundary has passed.
func (h *MetricHistory) Record(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.roll(time.Now())
	h.accumulator += value
	h.count++
}

// roll finalizes the open bucket when now falls past its boundary.
// Must be called with the lock held.
func (h *MetricHistory) roll(now time.Time) {
	current := now.Truncate(h.bucketSize)
	if !current.After(h.lastBucket) {
		return
	}
	h.finalize()
	h.lastBucket = current
}

// finalize turns the accumulated values into a data point and resets
// the accumulator. Must be called with the lock held.
func (h *MetricHistory) finalize() {
	if h.count == 0 {
		return
	}

	dp := DataPoint{Timestamp: h.lastBucket, Value: h.bucketValue()}
	h.buckets = append(h.buckets, dp)
	if len(h.buckets) > h.maxBuckets {
		h.buckets = h.buckets[len(h.buckets)-h.maxBuckets:]
	}

	if h.storage != nil && h.metricName != "" {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = h.storage.SaveDataPoint(ctx, h.metricName, dp)
		}()
	}

	h.accumulator = 0
	h.count = 0
}

func (h *MetricHistory) bucketValue() float64 {
	if h.agg == AggregateMean {
		return h.accumulator / float64(h.count)
	}
	return h.accumulator
}

// Points returns the data points at or after since, including the open
// bucket when it has data.
func (h *MetricHistory) Points(since time.Time) []DataPoint {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.roll(time.Now())

	out := make([]DataPoint, 0, len(h.buckets)+1)
	for _, dp := range h.buckets {
		if !dp.Timestamp.Before(since) {
			out = append(out, dp)
		}
	}
	if h.count > 0 && !h.lastBucket.Before(since) {
		out = append(out, DataPoint{Timestamp: h.lastBucket, Value: h.bucketValue()})
	}
	return out
}

// TimeSeriesData holds the scan time-series behind the dashboard
// charts. Five-minute buckets, one hour of retention.
type TimeSeriesData struct {
	ScanRate    *MetricHistory // scans per bucket
	ScanLatency *MetricHistory // average scan latency per bucket
	FileRate    *MetricHistory // files processed per bucket
}

const (
	historyBucketSize = 5 * time.Minute
	historyMaxBuckets = 12
)

// NewTimeSeriesData creates an in-memory time-series collection.
func NewTimeSeriesData() *TimeSeriesData {
	return &TimeSeriesData{
		ScanRate:    NewMetricHistory(historyBucketSize, historyMaxBuckets, AggregateSum),
		ScanLatency: NewMetricHistory(historyBucketSize, historyMaxBuckets, AggregateMean),
		FileRate:    NewMetricHistory(historyBucketSize, historyMaxBuckets, AggregateSum),
	}
}

// NewTimeSeriesDataWithRedis creates a time-series collection that
// survives restarts through Redis.
func NewTimeSeriesDataWithRedis(storage *RedisStorage) *TimeSeriesData {
	return &TimeSeriesData{
		ScanRate:    NewMetricHistoryWithRedis(historyBucketSize, historyMaxBuckets, AggregateSum, storage, "scan_rate"),
		ScanLatency: NewMetricHistoryWithRedis(historyBucketSize, historyMaxBuckets, AggregateMean, storage, "scan_latency"),
		FileRate:    NewMetricHistoryWithRedis(historyBucketSize, historyMaxBuckets, AggregateSum, storage, "file_rate"),
	}
}

// RecordScan records one finished scan across all series.
func (t *TimeSeriesData) RecordScan(latencyMs float64, fileCount int) {
	t.ScanRate.Record(1)
	t.ScanLatency.Record(latencyMs)
	t.FileRate.Record(float64(fileCount))
}

// Snapshot returns every series since the given time, keyed the same
// way the Redis storage keys them.
func (t *TimeSeriesData) Snapshot(since time.Time) map[string][]DataPoint {
	return map[string][]DataPoint{
		"scan_rate":    t.ScanRate.Points(since),
		"scan_latency": t.ScanLatency.Points(since),
		"file_rate":    t.FileRate.Points(since),
	}
}
