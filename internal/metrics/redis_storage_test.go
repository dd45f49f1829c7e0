package metrics

import (
	"context"
	"testing"
	"time"
)

func TestNewRedisStorage_InvalidURL(t *testing.T) {
	if _, err := NewRedisStorage("invalid://url"); err == nil {
		t.Fatal("expected error for invalid URL")
	}
}

func TestNewRedisStorage_ConnectionFailure(t *testing.T) {
	if _, err := NewRedisStorage("redis://localhost:9999"); err == nil {
		t.Fatal("expected error for connection failure")
	}
}

// testRedisStorage connects to a local Redis test database or skips.
func testRedisStorage(t *testing.T) *RedisStorage {
	t.Helper()
	storage, err := NewRedisStorage("redis://localhost:6379/15")
	if err != nil {
		t.Skip("Redis not available:", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}

func TestRedisStorage_SaveAndLoad(t *testing.T) {
	storage := testRedisStorage(t)
	ctx := context.Background()
	defer storage.DeleteMetric(ctx, "scan_requests")

	now := time.Now()
	points := []DataPoint{
		{Timestamp: now.Add(-10 * time.Minute), Value: 4},
		{Timestamp: now.Add(-5 * time.Minute), Value: 9},
		{Timestamp: now, Value: 17},
	}

	for _, dp := range points {
		if err := storage.SaveDataPoint(ctx, "scan_requests", dp); err != nil {
			t.Fatalf("SaveDataPoint failed: %v", err)
		}
	}

	loaded, err := storage.LoadHistory(ctx, "scan_requests", now.Add(-15*time.Minute))
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if len(loaded) != len(points) {
		t.Fatalf("expected %d data points, got %d", len(points), len(loaded))
	}

	for i, dp := range loaded {
		want := points[i].Value
		if dp.Value < want-0.1 || dp.Value > want+0.1 {
			t.Errorf("data point %d: value = %.2f, want ~%.2f", i, dp.Value, want)
		}
	}
}

func TestRedisStorage_SaveBatch(t *testing.T) {
	storage := testRedisStorage(t)
	ctx := context.Background()
	defer storage.DeleteMetric(ctx, "card_renders")

	now := time.Now()
	batch := []DataPoint{
		{Timestamp: now.Add(-20 * time.Minute), Value: 1},
		{Timestamp: now.Add(-15 * time.Minute), Value: 2},
		{Timestamp: now.Add(-10 * time.Minute), Value: 3},
		{Timestamp: now.Add(-5 * time.Minute), Value: 5},
		{Timestamp: now, Value: 8},
	}

	if err := storage.SaveBatch(ctx, "card_renders", batch); err != nil {
		t.Fatalf("SaveBatch failed: %v", err)
	}

	loaded, err := storage.LoadHistory(ctx, "card_renders", now.Add(-30*time.Minute))
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if len(loaded) != len(batch) {
		t.Errorf("expected %d data points, got %d", len(batch), len(loaded))
	}
}

func TestRedisStorage_MetricNames(t *testing.T) {
	storage := testRedisStorage(t)
	ctx := context.Background()

	names := []string{"scan_latency", "files_scanned", "repos_scanned"}
	dp := DataPoint{Timestamp: time.Now(), Value: 1}
	for _, name := range names {
		if err := storage.SaveDataPoint(ctx, name, dp); err != nil {
			t.Fatalf("SaveDataPoint(%s) failed: %v", name, err)
		}
		defer storage.DeleteMetric(ctx, name)
	}

	got, err := storage.GetMetricNames(ctx)
	if err != nil {
		t.Fatalf("GetMetricNames failed: %v", err)
	}

	seen := make(map[string]bool, len(got))
	for _, name := range got {
		seen[name] = true
	}
	for _, name := range names {
		if !seen[name] {
			t.Errorf("metric %s missing from names", name)
		}
	}
}

func TestRedisStorage_DeleteMetric(t *testing.T) {
	storage := testRedisStorage(t)
	ctx := context.Background()

	dp := DataPoint{Timestamp: time.Now(), Value: 42}
	if err := storage.SaveDataPoint(ctx, "scan_errors", dp); err != nil {
		t.Fatalf("SaveDataPoint failed: %v", err)
	}

	loaded, _ := storage.LoadHistory(ctx, "scan_errors", time.Now().Add(-time.Minute))
	if len(loaded) == 0 {
		t.Fatal("metric should exist before delete")
	}

	if err := storage.DeleteMetric(ctx, "scan_errors"); err != nil {
		t.Fatalf("DeleteMetric failed: %v", err)
	}

	loaded, _ = storage.LoadHistory(ctx, "scan_errors", time.Now().Add(-time.Minute))
	if len(loaded) != 0 {
		t.Errorf("expected 0 data points after delete, got %d", len(loaded))
	}
}

func TestRedisStorage_TTLTrim(t *testing.T) {
	storage := testRedisStorage(t)
	ctx := context.Background()
	defer storage.DeleteMetric(ctx, "scan_rate")

	storage.SetTTL(time.Second)

	now := time.Now()
	stale := DataPoint{Timestamp: now.Add(-time.Minute), Value: 1}
	fresh := DataPoint{Timestamp: now, Value: 2}

	if err := storage.SaveDataPoint(ctx, "scan_rate", stale); err != nil {
		t.Fatalf("SaveDataPoint failed: %v", err)
	}
	// Saving the fresh point trims entries older than the TTL.
	if err := storage.SaveDataPoint(ctx, "scan_rate", fresh); err != nil {
		t.Fatalf("SaveDataPoint failed: %v", err)
	}

	loaded, err := storage.LoadHistory(ctx, "scan_rate", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Errorf("expected the stale point trimmed, got %d points", len(loaded))
	}
}

func TestRedisStorage_GetStats(t *testing.T) {
	storage := testRedisStorage(t)

	stats, err := storage.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}

	for _, field := range []string{"total_metrics", "redis_info", "prefix", "ttl_hours"} {
		if _, ok := stats[field]; !ok {
			t.Errorf("stats missing %s", field)
		}
	}
}
