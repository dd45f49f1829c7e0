package scan

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gitcards/git-cards/internal/extract"
	"github.com/gitcards/git-cards/internal/github"
	"github.com/gitcards/git-cards/internal/identity"
	"github.com/gitcards/git-cards/internal/noise"
	"github.com/gitcards/git-cards/internal/pkg/errors"
	"github.com/gitcards/git-cards/internal/pkg/logger"
	"github.com/gitcards/git-cards/internal/rank"
)

const pythonFile = `import os
from collections import Counter

class InvoiceLoader:
    def __init__(self, root):
        self.root = root

    def load_pending(self):
        pending_total = 0
        for entry in os.listdir(self.root):
            pending_total += 1
        return pending_total
`

// fakeGitHub serves just enough of the API and raw hosts for a scan.
func fakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/users/octocat/repos", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"name":"billing","full_name":"octocat/billing","default_branch":"main","fork":false,"size":10,"pushed_at":"2026-01-02T00:00:00Z"},
			{"name":"forked","full_name":"octocat/forked","default_branch":"main","fork":true,"size":10,"pushed_at":"2026-01-03T00:00:00Z"}
		]`)
	})
	mux.HandleFunc("/repos/octocat/billing/git/trees/main", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tree":[
			{"path":"billing/loader.py","type":"blob","size":400},
			{"path":"node_modules/dep/index.js","type":"blob","size":100},
			{"path":"README.md","type":"blob","size":50},
			{"path":"billing","type":"tree","size":0}
		],"truncated":false}`)
	})
	mux.HandleFunc("/octocat/billing/main/billing/loader.py", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pythonFile)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	return httptest.NewServer(mux)
}

func newTestScanner(t *testing.T, baseURL string) *Scanner {
	t.Helper()

	gh := github.New(github.Config{
		APIBaseURL:        baseURL,
		RawBaseURL:        baseURL,
		Timeout:           5 * time.Second,
		RequestsPerSecond: 1000,
		Burst:             1000,
	}, nil)

	return New(DefaultConfig(), gh, logger.New("error", "text"), nil, nil)
}

func TestScan(t *testing.T) {
	ts := fakeGitHub(t)
	defer ts.Close()

	s := newTestScanner(t, ts.URL)

	result, err := s.Scan(context.Background(), "octocat", Options{})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	// The fork is excluded, leaving one repository and one source file.
	if result.RepoCount != 1 {
		t.Errorf("expected 1 repo, got %d", result.RepoCount)
	}
	if result.FileCount != 1 {
		t.Errorf("expected 1 file, got %d", result.FileCount)
	}
	if len(result.Items) == 0 {
		t.Fatal("expected ranked items, got none")
	}

	names := make(map[string]bool)
	for _, it := range result.Items {
		names[it.Name] = true
	}

	for _, want := range []string{"InvoiceLoader", "load_pending", "pending_total"} {
		if !names[want] {
			t.Errorf("expected identifier %q in results, got %v", want, keys(names))
		}
	}
	for _, reject := range []string{"__init__", "self", "os", "Counter"} {
		if names[reject] {
			t.Errorf("identifier %q should have been filtered out", reject)
		}
	}

	for _, it := range result.Items {
		if it.Name == "InvoiceLoader" && it.Dominant != "python" {
			t.Errorf("expected python as dominant language, got %q", it.Dominant)
		}
	}

	if result.LanguageFiles["python"] != 1 {
		t.Errorf("expected 1 python file in legend counts, got %v", result.LanguageFiles)
	}
}

// TestPipeline_OccurrenceAggregation walks the extraction stages the
// scanner chains together. Occurrence counts must survive end to end: a
// name appearing once in a JavaScript file and twice in a TypeScript
// file aggregates to a total of three with per-language counts intact.
func TestPipeline_OccurrenceAggregation(t *testing.T) {
	files := []struct {
		code []byte
		lang string
		path string
	}{
		{[]byte("function runner() {}\n"), "javascript", "a.js"},
		{[]byte("function runner() {}\nconst runner = setup()\n"), "typescript", "b.ts"},
	}

	ex := extract.NewCompositeWith(extract.NewStructural())
	acc := identity.NewAccumulator()
	for _, f := range files {
		cands := ex.Extract(f.code, f.lang, f.path)
		cands = extract.FilterImports(string(f.code), cands, f.lang)
		for _, cand := range cands {
			if noise.IsNoise(cand.Text, cand.Language) {
				continue
			}
			acc.Add(cand.Text, cand.Language)
		}
	}

	var runner *identity.Group
	for _, g := range acc.Groups() {
		if g.Key == "runner" {
			runner = g
			break
		}
	}
	if runner == nil {
		t.Fatal("runner group missing from accumulator")
	}

	if runner.Total != 3 {
		t.Errorf("Total = %d, want 3", runner.Total)
	}
	if runner.PerLanguage["javascript"] != 1 || runner.PerLanguage["typescript"] != 2 {
		t.Errorf("PerLanguage = %v, want javascript:1 typescript:2", runner.PerLanguage)
	}

	items := rank.Rank([]rank.Group{{
		Display:     runner.Display,
		Total:       runner.Total,
		PerLanguage: runner.PerLanguage,
	}})
	if items[0].Count != 3 || items[0].Dominant != "typescript" {
		t.Errorf("ranked item = %+v, want Count 3 and typescript dominant", items[0])
	}
}

func TestScan_Limit(t *testing.T) {
	ts := fakeGitHub(t)
	defer ts.Close()

	s := newTestScanner(t, ts.URL)

	result, err := s.Scan(context.Background(), "octocat", Options{Limit: 2})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(result.Items) > 2 {
		t.Errorf("expected at most 2 items, got %d", len(result.Items))
	}
}

func TestScan_LanguageFilter(t *testing.T) {
	ts := fakeGitHub(t)
	defer ts.Close()

	s := newTestScanner(t, ts.URL)

	// Filtering to Go skips the only (python) file.
	result, err := s.Scan(context.Background(), "octocat", Options{Languages: []string{"go"}})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if result.FileCount != 0 {
		t.Errorf("expected 0 files with go filter, got %d", result.FileCount)
	}
	if len(result.Items) != 0 {
		t.Errorf("expected no items with go filter, got %d", len(result.Items))
	}
}

func TestScan_UnknownUser(t *testing.T) {
	ts := fakeGitHub(t)
	defer ts.Close()

	s := newTestScanner(t, ts.URL)

	_, err := s.Scan(context.Background(), "nobody", Options{})
	if err == nil {
		t.Fatal("expected error for unknown user")
	}
	if !errors.IsNotFound(err) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"simple", "octocat", false},
		{"with digits", "user123", false},
		{"with hyphen", "my-user", false},
		{"empty", "", true},
		{"leading hyphen", "-user", true},
		{"double hyphen", "a--b", true},
		{"path traversal", "../etc", true},
		{"too long", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUsername(%q) error = %v, wantErr %v", tt.username, err, tt.wantErr)
			}
		})
	}
}

func TestSelectFiles(t *testing.T) {
	s := New(DefaultConfig(), nil, logger.New("error", "text"), nil, nil)

	entries := []github.TreeEntry{
		{Path: "src/app.py", Type: "blob", Size: 100},
		{Path: "src", Type: "tree"},
		{Path: "vendor/lib.go", Type: "blob", Size: 100},
		{Path: "big.py", Type: "blob", Size: github.MaxFileSize + 1},
		{Path: "image.png", Type: "blob", Size: 100},
		{Path: "../escape.py", Type: "blob", Size: 100},
	}

	files := s.selectFiles(entries, nil)
	if len(files) != 1 {
		t.Fatalf("expected 1 selected file, got %d", len(files))
	}
	if files[0].entry.Path != "src/app.py" {
		t.Errorf("expected src/app.py, got %s", files[0].entry.Path)
	}
	if files[0].profile.Key != "python" {
		t.Errorf("expected python profile, got %s", files[0].profile.Key)
	}
}

func TestSelectFiles_Cap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFilesPerRepo = 3
	s := New(cfg, nil, logger.New("error", "text"), nil, nil)

	var entries []github.TreeEntry
	for i := 0; i < 10; i++ {
		entries = append(entries, github.TreeEntry{
			Path: fmt.Sprintf("file%d.py", i),
			Type: "blob",
			Size: 100,
		})
	}

	files := s.selectFiles(entries, nil)
	if len(files) != 3 {
		t.Errorf("expected cap at 3 files, got %d", len(files))
	}
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
