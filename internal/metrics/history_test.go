package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMetricHistory_Aggregation(t *testing.T) {
	// Hour-sized buckets keep everything in the open bucket
	mean := NewMetricHistory(time.Hour, 12, AggregateMean)
	sum := NewMetricHistory(time.Hour, 12, AggregateSum)

	for _, v := range []float64{100, 200, 600} {
		mean.Record(v)
		sum.Record(v)
	}

	meanPoints := mean.Points(time.Time{})
	if len(meanPoints) != 1 || meanPoints[0].Value != 300 {
		t.Errorf("mean points = %v, want one point of 300", meanPoints)
	}

	sumPoints := sum.Points(time.Time{})
	if len(sumPoints) != 1 || sumPoints[0].Value != 900 {
		t.Errorf("sum points = %v, want one point of 900", sumPoints)
	}
}

func TestMetricHistory_BucketRoll(t *testing.T) {
	h := NewMetricHistory(10*time.Millisecond, 12, AggregateSum)

	h.Record(5)
	time.Sleep(25 * time.Millisecond)
	h.Record(7)

	points := h.Points(time.Time{})
	if len(points) != 2 {
		t.Fatalf("got %d points, want finalized bucket plus open bucket", len(points))
	}
	if points[0].Value != 5 || points[1].Value != 7 {
		t.Errorf("points = %v, want values 5 then 7", points)
	}
}

func TestMetricHistory_PointsSince(t *testing.T) {
	h := NewMetricHistory(time.Hour, 12, AggregateSum)
	h.Record(1)

	if got := h.Points(time.Now().Add(2 * time.Hour)); len(got) != 0 {
		t.Errorf("got %d points after future cutoff, want 0", len(got))
	}
}

func TestTimeSeriesData_Snapshot(t *testing.T) {
	ts := NewTimeSeriesData()
	ts.RecordScan(800, 30)
	ts.RecordScan(400, 10)

	snap := ts.Snapshot(time.Time{})

	rate := snap["scan_rate"]
	if len(rate) != 1 || rate[0].Value != 2 {
		t.Errorf("scan_rate = %v, want one point counting both scans", rate)
	}
	latency := snap["scan_latency"]
	if len(latency) != 1 || latency[0].Value != 600 {
		t.Errorf("scan_latency = %v, want one point averaging 600", latency)
	}
	files := snap["file_rate"]
	if len(files) != 1 || files[0].Value != 40 {
		t.Errorf("file_rate = %v, want one point totaling 40", files)
	}
}

func TestHistoryHandler(t *testing.T) {
	m := New()
	defer m.Close()

	m.TimeSeries.RecordScan(1200, 25)

	rec := httptest.NewRecorder()
	m.HistoryHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics/history", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body map[string][]DataPoint
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	for _, series := range []string{"scan_rate", "scan_latency", "file_rate"} {
		if _, ok := body[series]; !ok {
			t.Errorf("missing series %q", series)
		}
	}
	if got := body["file_rate"]; len(got) != 1 || got[0].Value != 25 {
		t.Errorf("file_rate = %v, want one point of 25", got)
	}

	rec = httptest.NewRecorder()
	m.HistoryHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics/history?window=nope", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad window status = %d, want 400", rec.Code)
	}
}
