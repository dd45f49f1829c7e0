package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gitcards/git-cards/internal/cache"
	apperrors "github.com/gitcards/git-cards/internal/pkg/errors"
)

func testClient(t *testing.T, handler http.Handler, store cache.Cache) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	return New(Config{
		APIBaseURL:        ts.URL,
		RawBaseURL:        ts.URL,
		RequestsPerSecond: 1000,
		Burst:             1000,
	}, store)
}

func TestListRepos(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octocat/repos", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "git-cards" {
			t.Errorf("User-Agent = %q", got)
		}
		_, _ = w.Write([]byte(`[
			{"name":"old","fork":false,"default_branch":"main","pushed_at":"2023-01-01T00:00:00Z"},
			{"name":"forked","fork":true,"default_branch":"main","pushed_at":"2024-06-01T00:00:00Z"},
			{"name":"fresh","fork":false,"default_branch":"main","pushed_at":"2024-03-01T00:00:00Z"}
		]`))
	})

	c := testClient(t, mux, nil)
	repos, err := c.ListRepos(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("ListRepos: %v", err)
	}

	if len(repos) != 2 {
		t.Fatalf("got %d repos, want 2 (forks excluded)", len(repos))
	}
	if repos[0].Name != "fresh" || repos[1].Name != "old" {
		t.Errorf("repos not sorted by push time: %v, %v", repos[0].Name, repos[1].Name)
	}
}

func TestListRepos_NotFound(t *testing.T) {
	c := testClient(t, http.NotFoundHandler(), nil)

	_, err := c.ListRepos(context.Background(), "ghost")
	if !apperrors.IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestListRepos_RateLimited(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusForbidden)
	})

	c := testClient(t, mux, nil)
	_, err := c.ListRepos(context.Background(), "octocat")

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeRateLimited {
		t.Fatalf("err = %v, want rate limited", err)
	}
	if appErr.Details["retry_after"] != "30" {
		t.Errorf("retry_after = %q, want 30", appErr.Details["retry_after"])
	}
}

func TestTree(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/billing/git/trees/main", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("recursive") != "1" {
			t.Error("tree request missing recursive=1")
		}
		_, _ = w.Write([]byte(`{"tree":[
			{"path":"src/app.py","type":"blob","size":400},
			{"path":"src","type":"tree","size":0},
			{"path":"README.md","type":"blob","size":100}
		]}`))
	})

	c := testClient(t, mux, nil)
	entries, err := c.Tree(context.Background(), "octocat", "billing", "main")
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2 blobs", len(entries))
	}
	for _, e := range entries {
		if e.Type != "blob" {
			t.Errorf("non-blob entry survived: %v", e)
		}
	}
}

func TestRawFile_Truncation(t *testing.T) {
	big := strings.Repeat("x", MaxFileSize+5000)
	mux := http.NewServeMux()
	mux.HandleFunc("/octocat/billing/main/big.py", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(big))
	})

	c := testClient(t, mux, nil)
	body, err := c.RawFile(context.Background(), "octocat", "billing", "main", "big.py")
	if err != nil {
		t.Fatalf("RawFile: %v", err)
	}
	if len(body) != MaxFileSize {
		t.Errorf("body len = %d, want %d", len(body), MaxFileSize)
	}
}

func TestLanguages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/billing/languages", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Python":6000,"Shell":400}`))
	})

	c := testClient(t, mux, nil)
	langs, err := c.Languages(context.Background(), "octocat", "billing")
	if err != nil {
		t.Fatalf("Languages: %v", err)
	}
	if langs["Python"] != 6000 || langs["Shell"] != 400 {
		t.Errorf("langs = %v", langs)
	}
}

func TestCaching(t *testing.T) {
	var hits atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octocat/repos", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`[{"name":"r","fork":false,"default_branch":"main","pushed_at":"2024-01-01T00:00:00Z"}]`))
	})

	c := testClient(t, mux, cache.NewMemory())

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := c.ListRepos(ctx, "octocat"); err != nil {
			t.Fatalf("ListRepos: %v", err)
		}
	}

	if got := hits.Load(); got != 1 {
		t.Errorf("upstream hit %d times, want 1", got)
	}
}

type captureRecorder struct {
	requests map[string]int
	hits     map[string]int
	misses   map[string]int
	errors   int
}

func newCaptureRecorder() *captureRecorder {
	return &captureRecorder{
		requests: map[string]int{},
		hits:     map[string]int{},
		misses:   map[string]int{},
	}
}

func (r *captureRecorder) RecordGitHubRequest(endpoint string, latencyMs int64, err error) {
	r.requests[endpoint]++
	if err != nil {
		r.errors++
	}
}

func (r *captureRecorder) RecordCacheHit(cacheType string) { r.hits[cacheType]++ }

func (r *captureRecorder) RecordCacheMiss(cacheType string) { r.misses[cacheType]++ }

func TestMetricsRecording(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octocat/repos", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"name":"r","fork":false,"default_branch":"main","pushed_at":"2024-01-01T00:00:00Z"}]`))
	})
	mux.HandleFunc("/octocat/r/main/app.py", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("import os\n"))
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	rec := newCaptureRecorder()
	c := New(Config{
		APIBaseURL:        ts.URL,
		RawBaseURL:        ts.URL,
		RequestsPerSecond: 1000,
		Burst:             1000,
		Metrics:           rec,
	}, cache.NewMemory())

	ctx := context.Background()

	// Cold call goes upstream and records a miss plus one request.
	if _, err := c.ListRepos(ctx, "octocat"); err != nil {
		t.Fatalf("ListRepos: %v", err)
	}
	if rec.misses["repos"] != 1 || rec.requests["repos"] != 1 {
		t.Errorf("cold repos call: misses=%d requests=%d, want 1/1",
			rec.misses["repos"], rec.requests["repos"])
	}

	// Warm call is served from cache; no new request.
	if _, err := c.ListRepos(ctx, "octocat"); err != nil {
		t.Fatalf("ListRepos (cached): %v", err)
	}
	if rec.hits["repos"] != 1 {
		t.Errorf("warm repos call: hits=%d, want 1", rec.hits["repos"])
	}
	if rec.requests["repos"] != 1 {
		t.Errorf("warm repos call reached upstream: requests=%d, want 1", rec.requests["repos"])
	}

	// Raw content uses its own endpoint label.
	if _, err := c.RawFile(ctx, "octocat", "r", "main", "app.py"); err != nil {
		t.Fatalf("RawFile: %v", err)
	}
	if rec.misses["raw"] != 1 || rec.requests["raw"] != 1 {
		t.Errorf("raw fetch: misses=%d requests=%d, want 1/1",
			rec.misses["raw"], rec.requests["raw"])
	}

	// Failed requests are still recorded, with the error counted.
	if _, err := c.Tree(ctx, "octocat", "missing", "main"); err == nil {
		t.Fatal("Tree on missing repo should fail")
	}
	if rec.requests["tree"] != 1 || rec.errors != 1 {
		t.Errorf("failed tree call: requests=%d errors=%d, want 1/1",
			rec.requests["tree"], rec.errors)
	}
}

func TestAuthorizationHeader(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	c := New(Config{
		APIBaseURL:        ts.URL,
		RawBaseURL:        ts.URL,
		Token:             "tok123",
		RequestsPerSecond: 1000,
		Burst:             1000,
	}, nil)

	if _, err := c.ListRepos(context.Background(), "octocat"); err != nil {
		t.Fatalf("ListRepos: %v", err)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("Authorization = %q, want Bearer tok123", gotAuth)
	}
}
