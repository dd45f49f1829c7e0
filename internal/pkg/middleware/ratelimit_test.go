package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestDefaultRateLimiterConfig(t *testing.T) {
	cfg := DefaultRateLimiterConfig()

	if cfg.RequestsPerSecond != 100 {
		t.Errorf("RequestsPerSecond = %f, want 100", cfg.RequestsPerSecond)
	}
	if cfg.Burst != 200 {
		t.Errorf("Burst = %d, want 200", cfg.Burst)
	}
	if cfg.CleanupInterval != time.Minute {
		t.Errorf("CleanupInterval = %v, want 1m", cfg.CleanupInterval)
	}
}

func TestNewRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		RequestsPerSecond: 10,
		Burst:             20,
		CleanupInterval:   10 * time.Second,
	})

	if rl.rate != 10 {
		t.Errorf("rate = %f, want 10", rl.rate)
	}
	if rl.burst != 20 {
		t.Errorf("burst = %d, want 20", rl.burst)
	}
	if len(rl.clients) != 0 {
		t.Errorf("clients map should start empty, has %d entries", len(rl.clients))
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		RequestsPerSecond: 2,
		Burst:             2,
		CleanupInterval:   time.Minute,
	})

	ip := "192.168.1.100"

	// Burst of 2, then denied
	if !rl.Allow(ip) {
		t.Error("first request should be allowed")
	}
	if !rl.Allow(ip) {
		t.Error("second request should be allowed")
	}
	if rl.Allow(ip) {
		t.Error("third request should be denied, burst exhausted")
	}

	// At 2 rps one token refills within 600ms
	time.Sleep(600 * time.Millisecond)
	if !rl.Allow(ip) {
		t.Error("request should be allowed after refill")
	}
}

func TestRateLimiter_ClientsIndependent(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		RequestsPerSecond: 5,
		Burst:             5,
		CleanupInterval:   time.Minute,
	})

	a, b := "192.168.1.100", "192.168.1.101"

	for i := 0; i < 5; i++ {
		if !rl.Allow(a) {
			t.Errorf("client a request %d should be allowed", i)
		}
		if !rl.Allow(b) {
			t.Errorf("client b request %d should be allowed", i)
		}
	}

	if rl.Allow(a) || rl.Allow(b) {
		t.Error("both clients should be limited after exhausting their bursts")
	}
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		RequestsPerSecond: 100,
		Burst:             100,
		CleanupInterval:   time.Minute,
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ip := fmt.Sprintf("192.168.1.%d", n)
			for j := 0; j < 10; j++ {
				rl.Allow(ip)
			}
		}(i)
	}
	wg.Wait()

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	if len(rl.clients) != 10 {
		t.Errorf("clients = %d, want 10", len(rl.clients))
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		RequestsPerSecond: 2,
		Burst:             2,
		CleanupInterval:   time.Minute,
	})

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func() int {
		req := httptest.NewRequest("GET", "/api/code_identifiers?username=octocat", nil)
		req.RemoteAddr = "192.168.1.100:12345"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := send(); code != http.StatusOK {
			t.Errorf("request %d: status = %d, want 200", i, code)
		}
	}
	req := httptest.NewRequest("GET", "/api/code_identifiers?username=octocat", nil)
	req.RemoteAddr = "192.168.1.100:12345"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 response missing Retry-After header")
	}
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		RequestsPerSecond: 100,
		Burst:             100,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()

	rl.Allow("192.168.1.1")
	rl.Allow("192.168.1.2")

	// A threshold in the future makes every entry stale
	rl.evictIdle(time.Now().Add(time.Second))

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	if len(rl.clients) != 0 {
		t.Errorf("clients = %d after eviction, want 0", len(rl.clients))
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xRealIP    string
		want       string
	}{
		{"remote addr", "192.168.1.100:12345", "", "", "192.168.1.100"},
		{"x-forwarded-for first hop", "10.0.0.1:12345", "203.0.113.1, 198.51.100.1", "", "203.0.113.1"},
		{"x-real-ip", "10.0.0.1:12345", "", "203.0.113.50", "203.0.113.50"},
		{"x-forwarded-for beats x-real-ip", "10.0.0.1:12345", "203.0.113.1", "203.0.113.50", "203.0.113.1"},
		{"ipv6", "[2001:db8::1]:12345", "", "", "[2001:db8::1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}

			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRateLimiter_CleanupKeepsFreshClients(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		RequestsPerSecond: 100,
		Burst:             100,
		CleanupInterval:   100 * time.Millisecond,
	})

	for i := 0; i < 5; i++ {
		rl.Allow(fmt.Sprintf("192.168.1.%d", i))
	}

	// A cleanup pass runs but the entries are too fresh to evict.
	time.Sleep(200 * time.Millisecond)

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	if len(rl.clients) != 5 {
		t.Errorf("clients = %d after cleanup, want 5", len(rl.clients))
	}
}
