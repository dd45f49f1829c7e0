// Package scan orchestrates the full profile scan flow:
// Repositories → Trees → Files → Candidates → Groups → Ranked items.
package scan

import (
	"context"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gitcards/git-cards/internal/bus"
	"github.com/gitcards/git-cards/internal/extract"
	"github.com/gitcards/git-cards/internal/github"
	"github.com/gitcards/git-cards/internal/identity"
	"github.com/gitcards/git-cards/internal/lang"
	"github.com/gitcards/git-cards/internal/metrics"
	"github.com/gitcards/git-cards/internal/noise"
	"github.com/gitcards/git-cards/internal/pkg/errors"
	"github.com/gitcards/git-cards/internal/pkg/logger"
	"github.com/gitcards/git-cards/internal/pkg/security"
	"github.com/gitcards/git-cards/internal/rank"
)

// Config configures the scan pipeline.
type Config struct {
	// MaxRepos caps how many repositories one scan covers, newest
	// pushed first.
	MaxRepos int

	// MaxFilesPerRepo caps how many source files are fetched per
	// repository.
	MaxFilesPerRepo int

	// RepoWorkers is the number of repositories scanned in parallel.
	RepoWorkers int

	// FileWorkers is the number of files fetched and parsed in
	// parallel within one repository.
	FileWorkers int

	// FileTimeout bounds the fetch and parse of a single file. A file
	// that exceeds it is skipped, not fatal.
	FileTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxRepos:        30,
		MaxFilesPerRepo: 200,
		RepoWorkers:     8,
		FileWorkers:     6,
		FileTimeout:     3 * time.Second,
	}
}

// Scanner runs scans against a GitHub account.
type Scanner struct {
	cfg       Config
	gh        *github.Client
	extractor *extract.Composite
	bus       bus.Bus
	metrics   *metrics.Metrics
	log       *logger.Logger
}

// New creates a scanner. eventBus and m are optional; nil disables
// event publishing and metric recording respectively.
func New(cfg Config, gh *github.Client, log *logger.Logger, eventBus bus.Bus, m *metrics.Metrics) *Scanner {
	if cfg.MaxRepos == 0 {
		cfg = DefaultConfig()
	}
	return &Scanner{
		cfg:       cfg,
		gh:        gh,
		extractor: extract.NewComposite(),
		bus:       eventBus,
		metrics:   m,
		log:       log,
	}
}

// Options select what one scan returns.
type Options struct {
	// Limit caps the number of ranked items; zero selects the default.
	Limit int

	// Languages restricts the scan to the given language keys. Empty
	// scans every supported language.
	Languages []string
}

// Result is the outcome of one scan.
type Result struct {
	Username string      `json:"username"`
	Items    []rank.Item `json:"items"`

	// LanguageFiles counts successfully parsed files per language key,
	// feeding the card legend.
	LanguageFiles map[string]int `json:"language_files"`

	RepoCount  int           `json:"repo_count"`
	FileCount  int           `json:"file_count"`
	GroupCount int           `json:"group_count"`
	Duration   time.Duration `json:"duration"`
}

// langCounter tallies parsed files per language across workers.
type langCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func newLangCounter() *langCounter {
	return &langCounter{counts: make(map[string]int)}
}

func (lc *langCounter) add(key string) {
	lc.mu.Lock()
	lc.counts[key]++
	lc.mu.Unlock()
}

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9](?:-?[A-Za-z0-9]){0,38}$`)

// ValidateUsername checks that username is a plausible GitHub login.
func ValidateUsername(username string) error {
	if username == "" {
		return errors.ValidationError("username is required")
	}
	if !usernameRe.MatchString(username) {
		return errors.ValidationError("invalid username")
	}
	return nil
}

// Scan walks the user's repositories and returns ranked identifier
// items. langFilter restricts the scan to the given language keys; an
// empty filter scans every supported language.
//
// Only the repository listing is fatal. A repository whose tree cannot
// be fetched, or a file that fails to download or parse, is skipped and
// the scan continues with what it has.
func (s *Scanner) Scan(ctx context.Context, username string, opts Options) (*Result, error) {
	start := time.Now()

	if err := ValidateUsername(username); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, bus.TopicScanStarted, bus.NewEvent(bus.TopicScanStarted, username))

	listStart := time.Now()
	repos, err := s.gh.ListRepos(ctx, username)
	s.recordStage("list_repos", listStart)
	if err != nil {
		s.publishFailed(ctx, username, err)
		return nil, err
	}

	if len(repos) > s.cfg.MaxRepos {
		repos = repos[:s.cfg.MaxRepos]
	}

	filter := languageSet(opts.Languages)
	acc := identity.NewAccumulator()
	langFiles := newLangCounter()

	var fileCount atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.RepoWorkers)
	for _, repo := range repos {
		repo := repo
		g.Go(func() error {
			n := s.scanRepo(gctx, username, repo, filter, acc, langFiles)
			fileCount.Add(int64(n))
			return nil
		})
	}
	// Workers never return errors; Wait only surfaces ctx cancellation.
	if err := g.Wait(); err != nil {
		s.publishFailed(ctx, username, err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		terr := errors.TimeoutError("scan")
		s.publishFailed(ctx, username, terr)
		return nil, terr
	}

	rankStart := time.Now()
	groups := acc.Groups()
	ranked := make([]rank.Group, 0, len(groups))
	for _, grp := range groups {
		ranked = append(ranked, rank.Group{
			Display:     grp.Display,
			Total:       grp.Total,
			PerLanguage: grp.PerLanguage,
		})
	}
	items := rank.Top(rank.Rank(ranked), opts.Limit)
	s.recordStage("rank", rankStart)

	result := &Result{
		Username:      username,
		Items:         items,
		LanguageFiles: langFiles.counts,
		RepoCount:     len(repos),
		FileCount:     int(fileCount.Load()),
		GroupCount:    len(groups),
		Duration:      time.Since(start),
	}

	s.log.Info("Scan complete",
		"username", username,
		"repos", result.RepoCount,
		"files", result.FileCount,
		"groups", result.GroupCount,
		"duration", result.Duration,
	)

	completed := bus.NewEvent(bus.TopicScanCompleted, username)
	completed.RepoCount = result.RepoCount
	completed.FileCount = result.FileCount
	completed.IdentifierCount = result.GroupCount
	completed.DurationMs = result.Duration.Milliseconds()
	s.publishEvent(ctx, bus.TopicScanCompleted, completed)

	return result, nil
}

// scanRepo fetches one repository's tree and walks its source files.
// It returns the number of files successfully processed.
func (s *Scanner) scanRepo(ctx context.Context, username string, repo github.Repo, filter map[string]bool, acc *identity.Accumulator, langFiles *langCounter) int {
	treeStart := time.Now()
	entries, err := s.gh.Tree(ctx, username, repo.Name, repo.DefaultBranch)
	s.recordStage("tree", treeStart)
	if err != nil {
		s.log.Warn("Skipping repository, tree fetch failed",
			"username", username,
			"repo", repo.Name,
			"error", err,
		)
		return 0
	}

	files := s.selectFiles(entries, filter)

	var processed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.FileWorkers)
	for _, f := range files {
		f := f
		g.Go(func() error {
			if s.scanFile(gctx, username, repo, f, acc) {
				processed.Add(1)
				langFiles.add(f.profile.Key)
			}
			return nil
		})
	}
	_ = g.Wait()

	return int(processed.Load())
}

// fileTask pairs a tree entry with its detected language.
type fileTask struct {
	entry   github.TreeEntry
	profile *lang.Profile
}

// selectFiles filters a tree down to the source files worth fetching.
func (s *Scanner) selectFiles(entries []github.TreeEntry, filter map[string]bool) []fileTask {
	files := make([]fileTask, 0, s.cfg.MaxFilesPerRepo)
	for _, e := range entries {
		if len(files) >= s.cfg.MaxFilesPerRepo {
			break
		}
		if e.Type != "blob" {
			continue
		}
		profile, ok := lang.Detect(e.Path)
		if !ok {
			continue
		}
		if len(filter) > 0 && !filter[profile.Key] {
			s.recordSkip("language_filter")
			continue
		}
		if noise.IsPathExcluded(e.Path) {
			s.recordSkip("excluded_path")
			continue
		}
		// Tree paths come straight from the API and end up in raw
		// content URLs. Anything suspicious is skipped, not fetched.
		if err := security.ValidatePath(e.Path); err != nil {
			s.recordSkip("invalid_path")
			continue
		}
		if e.Size > github.MaxFileSize {
			s.recordSkip("too_large")
			continue
		}
		files = append(files, fileTask{entry: e, profile: profile})
	}
	return files
}

// scanFile downloads and parses one file, feeding surviving candidate
// names into the shared accumulator. Returns false when the file was
// skipped for any reason.
func (s *Scanner) scanFile(ctx context.Context, username string, repo github.Repo, f fileTask, acc *identity.Accumulator) bool {
	fctx, cancel := context.WithTimeout(ctx, s.cfg.FileTimeout)
	defer cancel()

	fetchStart := time.Now()
	code, err := s.gh.RawFile(fctx, username, repo.Name, repo.DefaultBranch, f.entry.Path)
	s.recordStage("fetch", fetchStart)
	if err != nil {
		s.log.Debug("Skipping file, fetch failed",
			"repo", repo.Name,
			"path", f.entry.Path,
			"error", err,
		)
		s.recordSkip("fetch_failed")
		return false
	}

	if security.IsBinaryContent(code) {
		// An extension match is no guarantee. Minified bundles and
		// checked-in binaries slip through language detection.
		s.recordSkip("binary_content")
		return false
	}

	extractStart := time.Now()
	candidates := s.extractor.Extract(code, f.profile.Key, f.entry.Path)
	candidates = extract.FilterImports(string(code), candidates, f.profile.Key)
	s.recordStage("extract", extractStart)

	if fctx.Err() != nil {
		// Extraction blew the per-file budget. Whatever was collected
		// before the deadline still counts.
		if s.metrics != nil {
			s.metrics.RecordExtractError(f.profile.Key)
		}
	}

	for _, cand := range candidates {
		if noise.IsNoise(cand.Text, cand.Language) {
			continue
		}
		acc.Add(cand.Text, cand.Language)
	}
	return true
}

// publishEvent publishes an event to the bus, if one is configured.
func (s *Scanner) publishEvent(ctx context.Context, topic string, event bus.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, topic, event); err != nil {
		s.log.Debug("Failed to publish scan event", "topic", topic, "error", err)
	}
}

func (s *Scanner) recordStage(stage string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordScanStage(stage, time.Since(start).Milliseconds())
}

func (s *Scanner) recordSkip(reason string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordFileSkipped(reason)
}

// publishFailed emits a scan.failed event carrying the error message.
func (s *Scanner) publishFailed(ctx context.Context, username string, err error) {
	event := bus.NewEvent(bus.TopicScanFailed, username)
	event.Error = err.Error()
	s.publishEvent(ctx, bus.TopicScanFailed, event)
}

// languageSet folds a language filter into a lookup set, dropping keys
// no profile owns.
func languageSet(keys []string) map[string]bool {
	if len(keys) == 0 {
		return nil
	}
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		if _, ok := lang.ByKey(k); ok {
			set[k] = true
		}
	}
	return set
}
