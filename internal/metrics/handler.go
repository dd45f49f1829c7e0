package metrics

import (
	"encoding/json"
	"net/http"
	"time"
)

// Handler returns an HTTP handler that serves the current metrics
// snapshot in Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(m.PrometheusFormat()))
	})
}

// HistoryHandler serves the scan time-series as JSON for dashboard
// charts. An optional window query parameter, a Go duration, narrows
// the range; the default covers the full retention hour.
func (m *Metrics) HistoryHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		window := time.Hour
		if raw := r.URL.Query().Get("window"); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil || d <= 0 {
				http.Error(w, "invalid window", http.StatusBadRequest)
				return
			}
			window = d
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(m.TimeSeries.Snapshot(time.Now().Add(-window)))
	})
}
