package metrics

import (
	"errors"
	"runtime"
	"sync"
	"time"

	apperrors "github.com/gitcards/git-cards/internal/pkg/errors"
)

// Metrics holds all application metrics.
type Metrics struct {
	// Scan metrics
	ScanRequests  *Counter
	ScanLatency   *Histogram
	ScanErrors    *CounterVec // labels: error_type
	ReposScanned  *Counter
	FilesScanned  *Counter
	FilesSkipped  *CounterVec   // labels: reason
	ScanStage     *HistogramVec // labels: stage
	Identifiers   *Histogram    // identifier groups per scan
	ExtractErrors *CounterVec   // labels: language

	// Card metrics
	CardRenders *CounterVec // labels: card
	CardLatency *HistogramVec

	// GitHub metrics
	GitHubRequests *CounterVec // labels: endpoint
	GitHubErrors   *CounterVec // labels: error_type
	GitHubLatency  *Histogram

	// Cache metrics
	CacheHits   *CounterVec // labels: type
	CacheMisses *CounterVec // labels: type

	// Bus metrics
	BusEventsPublished *CounterVec   // labels: topic
	BusEventLatency    *HistogramVec // labels: topic
	BusErrors          *CounterVec   // labels: topic

	// HTTP metrics
	HTTPRequests         *CounterVec   // labels: method, path, status
	HTTPDuration         *HistogramVec // labels: method, path
	HTTPRequestsInFlight *Gauge
	HTTPRequestSize      *HistogramVec // labels: method, path

	// System metrics
	GoroutineCount *Gauge
	MemoryUsage    *Gauge // in bytes
	Uptime         *Counter

	// Time-series data for charts
	TimeSeries *TimeSeriesData

	// Redis storage (optional)
	redisStorage *RedisStorage

	startTime time.Time
	mu        sync.RWMutex
}

// New creates a new metrics instance with all metrics initialized.
// Uses in-memory storage only.
func New() *Metrics {
	return NewWithConfig("memory", "")
}

// NewWithRedis creates a new metrics instance with Redis persistence.
// Falls back to in-memory if Redis connection fails.
func NewWithRedis(redisURL string) *Metrics {
	return NewWithConfig("redis", redisURL)
}

// NewWithConfig creates a new metrics instance with specified persistence.
// persistence: "memory" or "redis"
// redisURL: Redis URL (only used if persistence = "redis")
func NewWithConfig(persistence, redisURL string) *Metrics {
	var redisStorage *RedisStorage
	var timeSeries *TimeSeriesData

	// Try to initialize Redis if configured
	if persistence == "redis" && redisURL != "" {
		storage, err := NewRedisStorage(redisURL)
		if err != nil {
			println("WARNING: Failed to connect to Redis for metrics persistence:", err.Error())
			println("         Falling back to in-memory metrics")
		} else {
			redisStorage = storage
			timeSeries = NewTimeSeriesDataWithRedis(redisStorage)
		}
	}

	// If Redis not available, use in-memory
	if timeSeries == nil {
		timeSeries = NewTimeSeriesData()
	}

	m := &Metrics{
		// Scan metrics
		ScanRequests: NewCounter(
			"cards_scan_requests_total",
			"Total number of profile scans",
			nil,
		),
		ScanLatency: NewHistogram(
			"cards_scan_latency_ms",
			"Scan latency in milliseconds",
			[]float64{100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		),
		ScanErrors: NewCounterVec(
			"cards_scan_errors_total",
			"Total number of failed scans",
			[]string{"error_type"},
		),
		ReposScanned: NewCounter(
			"cards_repos_scanned_total",
			"Total number of repositories scanned",
			nil,
		),
		FilesScanned: NewCounter(
			"cards_files_scanned_total",
			"Total number of files fetched and parsed",
			nil,
		),
		FilesSkipped: NewCounterVec(
			"cards_files_skipped_total",
			"Total number of files skipped before fetch",
			[]string{"reason"},
		),
		ScanStage: NewHistogramVec(
			"cards_scan_stage_duration_ms",
			"Scan stage duration in milliseconds",
			[]string{"stage"},
			[]float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		),
		Identifiers: NewHistogram(
			"cards_identifier_groups",
			"Number of identifier groups per scan",
			[]float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		),
		ExtractErrors: NewCounterVec(
			"cards_extract_errors_total",
			"Total number of per-file extraction failures",
			[]string{"language"},
		),

		// Card metrics
		CardRenders: NewCounterVec(
			"cards_renders_total",
			"Total number of cards rendered",
			[]string{"card"},
		),
		CardLatency: NewHistogramVec(
			"cards_render_latency_ms",
			"Card render latency in milliseconds",
			[]string{"card"},
			[]float64{1, 5, 10, 25, 50, 100, 250, 500},
		),

		// GitHub metrics
		GitHubRequests: NewCounterVec(
			"cards_github_requests_total",
			"Total number of GitHub API requests",
			[]string{"endpoint"},
		),
		GitHubErrors: NewCounterVec(
			"cards_github_errors_total",
			"Total number of GitHub API errors",
			[]string{"error_type"},
		),
		GitHubLatency: NewHistogram(
			"cards_github_latency_ms",
			"GitHub API request latency in milliseconds",
			[]float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		),

		// Cache metrics
		CacheHits: NewCounterVec(
			"cards_cache_hits_total",
			"Total number of cache hits",
			[]string{"type"},
		),
		CacheMisses: NewCounterVec(
			"cards_cache_misses_total",
			"Total number of cache misses",
			[]string{"type"},
		),

		// Bus metrics
		BusEventsPublished: NewCounterVec(
			"cards_bus_events_published_total",
			"Total number of events published to the bus",
			[]string{"topic"},
		),
		BusEventLatency: NewHistogramVec(
			"cards_bus_event_latency_seconds",
			"Event bus latency in seconds",
			[]string{"topic"},
			[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		),
		BusErrors: NewCounterVec(
			"cards_bus_errors_total",
			"Total number of event bus errors",
			[]string{"topic"},
		),

		// HTTP metrics
		HTTPRequests: NewCounterVec(
			"cards_http_requests_total",
			"Total number of HTTP requests",
			[]string{"method", "path", "status"},
		),
		HTTPDuration: NewHistogramVec(
			"cards_http_request_duration_seconds",
			"HTTP request duration in seconds",
			[]string{"method", "path"},
			[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		),
		HTTPRequestsInFlight: NewGauge(
			"cards_http_requests_in_flight",
			"Number of HTTP requests currently being processed",
			nil,
		),
		HTTPRequestSize: NewHistogramVec(
			"cards_http_request_size_bytes",
			"HTTP request size in bytes",
			[]string{"method", "path"},
			[]float64{100, 1000, 10000, 100000, 1000000},
		),

		// System metrics
		GoroutineCount: NewGauge(
			"cards_goroutines",
			"Number of goroutines",
			nil,
		),
		MemoryUsage: NewGauge(
			"cards_memory_bytes",
			"Memory usage in bytes",
			nil,
		),
		Uptime: NewCounter(
			"cards_uptime_seconds",
			"Application uptime in seconds",
			nil,
		),

		// Time-series data for charts
		TimeSeries: timeSeries,

		// Redis storage
		redisStorage: redisStorage,

		startTime: time.Now(),
	}

	// Start background collector for system metrics
	go m.collectSystemMetrics()

	return m
}

// collectSystemMetrics periodically collects system metrics.
func (m *Metrics) collectSystemMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		// Update goroutine count
		m.GoroutineCount.Set(float64(runtime.NumGoroutine()))

		// Update memory usage
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)
		m.MemoryUsage.Set(float64(memStats.Alloc))

		// Update uptime (in seconds)
		m.Uptime.Add(15)
	}
}

// RecordScanStage records the duration of a specific scan stage.
// stage should be one of: "list_repos", "tree", "fetch", "extract", "rank"
func (m *Metrics) RecordScanStage(stage string, latencyMs int64) {
	m.ScanStage.WithLabels(stage).Observe(float64(latencyMs))
}

// RecordFileSkipped records a file excluded before fetching.
func (m *Metrics) RecordFileSkipped(reason string) {
	m.FilesSkipped.WithLabels(reason).Inc()
}

// RecordExtractError records a per-file extraction failure.
func (m *Metrics) RecordExtractError(language string) {
	m.ExtractErrors.WithLabels(language).Inc()
}

// RecordCardRender records one rendered card.
func (m *Metrics) RecordCardRender(card string, latencyMs int64) {
	m.CardRenders.WithLabels(card).Inc()
	m.CardLatency.WithLabels(card).Observe(float64(latencyMs))
}

// RecordGitHubRequest records one GitHub API request.
func (m *Metrics) RecordGitHubRequest(endpoint string, latencyMs int64, err error) {
	m.GitHubRequests.WithLabels(endpoint).Inc()
	m.GitHubLatency.Observe(float64(latencyMs))

	if err != nil {
		m.GitHubErrors.WithLabels(errorType(err)).Inc()
	}
}

// RecordBusPublish records event bus publish metrics.
func (m *Metrics) RecordBusPublish(topic string, latencyMs int64, err error) {
	m.BusEventsPublished.WithLabels(topic).Inc()

	// Convert milliseconds to seconds for Prometheus convention
	latencySeconds := float64(latencyMs) / 1000.0
	m.BusEventLatency.WithLabels(topic).Observe(latencySeconds)

	if err != nil {
		m.BusErrors.WithLabels(topic).Inc()
	}
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit(cacheType string) {
	m.CacheHits.WithLabels(cacheType).Inc()
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss(cacheType string) {
	m.CacheMisses.WithLabels(cacheType).Inc()
}

// RecordHTTP records HTTP request metrics.
// This is called by the HTTP middleware.
func (m *Metrics) RecordHTTP(method, path string, status int, durationSeconds float64, sizeBytes int64) {
	// Normalize path to reduce cardinality
	normalizedPath := normalizePath(path)

	// Record request count with labels
	m.HTTPRequests.WithLabels(method, normalizedPath, statusCode(status)).Inc()

	// Record duration
	m.HTTPDuration.WithLabels(method, normalizedPath).Observe(durationSeconds)

	// Record request size
	if sizeBytes > 0 {
		m.HTTPRequestSize.WithLabels(method, normalizedPath).Observe(float64(sizeBytes))
	}
}

// errorType extracts a low-cardinality error label.
func errorType(err error) string {
	if err == nil {
		return "unknown"
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "generic"
}

// Reset resets all metrics to zero (useful for testing).
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Reset counters
	m.ScanRequests.Reset()
	m.ReposScanned.Reset()
	m.FilesScanned.Reset()
	m.Uptime.Reset()

	// Reset gauges
	m.GoroutineCount.Set(0)
	m.MemoryUsage.Set(0)

	m.startTime = time.Now()
}

// Close closes the metrics instance and releases resources.
// Must be called when shutting down if Redis is used.
func (m *Metrics) Close() error {
	if m.redisStorage != nil {
		return m.redisStorage.Close()
	}
	return nil
}

// IsRedisPersisted returns true if metrics are persisted to Redis.
func (m *Metrics) IsRedisPersisted() bool {
	return m.redisStorage != nil
}
