package langstats

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gitcards/git-cards/internal/github"
	"github.com/gitcards/git-cards/internal/pkg/logger"
)

func fakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/users/octocat/repos", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"name":"api","full_name":"octocat/api","default_branch":"main","fork":false,"pushed_at":"2026-01-02T00:00:00Z"},
			{"name":"web","full_name":"octocat/web","default_branch":"main","fork":false,"pushed_at":"2026-01-01T00:00:00Z"},
			{"name":"forked","full_name":"octocat/forked","default_branch":"main","fork":true,"pushed_at":"2026-01-03T00:00:00Z"}
		]`)
	})
	mux.HandleFunc("/repos/octocat/api/languages", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Go":6000,"Python":2000}`)
	})
	mux.HandleFunc("/repos/octocat/web/languages", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"TypeScript":1500,"Python":500}`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	return httptest.NewServer(mux)
}

func newTestService(t *testing.T, baseURL string) *Service {
	t.Helper()

	gh := github.New(github.Config{
		APIBaseURL:        baseURL,
		RawBaseURL:        baseURL,
		Timeout:           5 * time.Second,
		RequestsPerSecond: 1000,
		Burst:             1000,
	}, nil)
	return New(gh, logger.New("error", "text"))
}

func TestStats(t *testing.T) {
	ts := fakeGitHub(t)
	defer ts.Close()

	svc := newTestService(t, ts.URL)

	entries, err := svc.Stats(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}

	// Total 10000 bytes: Go 6000, Python 2500, TypeScript 1500.
	if len(entries) != 3 {
		t.Fatalf("expected 3 languages, got %d", len(entries))
	}
	if entries[0].Name != "Go" || entries[0].Bytes != 6000 {
		t.Errorf("expected Go at 6000 bytes first, got %+v", entries[0])
	}
	if entries[0].Percent != 60.0 {
		t.Errorf("expected 60.0 percent for Go, got %v", entries[0].Percent)
	}
	if entries[1].Name != "Python" || entries[1].Bytes != 2500 {
		t.Errorf("expected Python at 2500 bytes second, got %+v", entries[1])
	}
}

func TestStats_UnknownUser(t *testing.T) {
	ts := fakeGitHub(t)
	defer ts.Close()

	svc := newTestService(t, ts.URL)

	_, err := svc.Stats(context.Background(), "nobody")
	if err == nil {
		t.Fatal("expected error for unknown user")
	}
}

func TestTopEntries_Cap(t *testing.T) {
	totals := map[string]int64{
		"A": 800, "B": 700, "C": 600, "D": 500,
		"E": 400, "F": 300, "G": 200, "H": 100,
	}

	entries := topEntries(totals)
	if len(entries) != TopLanguages {
		t.Fatalf("expected %d entries, got %d", TopLanguages, len(entries))
	}
	if entries[0].Name != "A" {
		t.Errorf("expected A first, got %s", entries[0].Name)
	}
	for _, e := range entries {
		if e.Name == "G" || e.Name == "H" {
			t.Errorf("language %s should have been cut", e.Name)
		}
	}
}

func TestTopEntries_Empty(t *testing.T) {
	if entries := topEntries(nil); entries != nil {
		t.Errorf("expected nil for empty totals, got %v", entries)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"percent", ModePercent},
		{"bytes", ModeBytes},
		{"both", ModeBoth},
		{"", ModePercent},
		{"garbage", ModePercent},
	}

	for _, tt := range tests {
		if got := ParseMode(tt.in); got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512"},
		{2048, "2.0 KB"},
		{1536000, "1.5 MB"},
	}

	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCard_Modes(t *testing.T) {
	entries := []Entry{
		{Name: "Go", Bytes: 6000, Percent: 60.0},
		{Name: "Python", Bytes: 4000, Percent: 40.0},
	}

	percent := Card("octocat", entries, ModePercent, 480)
	if !strings.Contains(percent, "60.0%") {
		t.Error("percent mode missing percent label")
	}

	bytes := Card("octocat", entries, ModeBytes, 480)
	if !strings.Contains(bytes, "5.9 KB") {
		t.Error("bytes mode missing byte label")
	}

	both := Card("octocat", entries, ModeBoth, 480)
	if !strings.Contains(both, "60.0% (5.9 KB)") {
		t.Error("both mode missing combined label")
	}
}
