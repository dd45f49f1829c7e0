// Package langstats aggregates per-repository language byte counts into
// the data behind the language-usage card.
package langstats

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gitcards/git-cards/internal/github"
	"github.com/gitcards/git-cards/internal/pkg/logger"
	"github.com/gitcards/git-cards/internal/svg"
)

// TopLanguages caps how many languages the card shows.
const TopLanguages = 6

// Workers is the number of repositories queried in parallel.
const Workers = 10

// Mode selects the right-hand label of each bar.
type Mode string

const (
	ModePercent Mode = "percent"
	ModeBytes   Mode = "bytes"
	ModeBoth    Mode = "both"
)

// ParseMode maps a query value to a mode, defaulting to percent.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeBytes:
		return ModeBytes
	case ModeBoth:
		return ModeBoth
	default:
		return ModePercent
	}
}

// Entry is one language with its share of the user's total bytes.
type Entry struct {
	Name    string  `json:"name"`
	Bytes   int64   `json:"bytes"`
	Percent float64 `json:"percent"`
}

// GitHub's color map keyed by the display names the languages endpoint
// reports. Unlisted languages fall back to the accent color.
var languageColors = map[string]string{
	"Python":     "#3572A5",
	"JavaScript": "#f1e05a",
	"TypeScript": "#2b7489",
	"Java":       "#b07219",
	"C++":        "#f34b7d",
	"C":          "#555555",
	"C#":         "#178600",
	"Go":         "#00ADD8",
	"Rust":       "#dea584",
	"Ruby":       "#701516",
	"PHP":        "#4F5D95",
	"HTML":       "#e34c26",
	"CSS":        "#563d7c",
	"Shell":      "#89e051",
	"Swift":      "#F05138",
	"Kotlin":     "#A97BFF",
}

// Service computes language stats for a user.
type Service struct {
	gh  *github.Client
	log *logger.Logger
}

// New creates a service around the shared GitHub client.
func New(gh *github.Client, log *logger.Logger) *Service {
	return &Service{gh: gh, log: log}
}

// Stats sums language bytes across the user's repositories, forks
// excluded, and returns the top languages by share. A repository whose
// languages call fails is skipped.
func (s *Service) Stats(ctx context.Context, username string) ([]Entry, error) {
	repos, err := s.gh.ListRepos(ctx, username)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	totals := make(map[string]int64)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(Workers)
	for _, repo := range repos {
		repo := repo
		g.Go(func() error {
			langs, err := s.gh.Languages(gctx, username, repo.Name)
			if err != nil {
				s.log.Debug("Skipping repository, languages fetch failed",
					"username", username,
					"repo", repo.Name,
					"error", err,
				)
				return nil
			}
			mu.Lock()
			for name, count := range langs {
				totals[name] += count
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return topEntries(totals), nil
}

// topEntries folds raw byte totals into sorted, percent-annotated
// entries, keeping the top TopLanguages.
func topEntries(totals map[string]int64) []Entry {
	if len(totals) == 0 {
		return nil
	}

	var totalBytes int64
	for _, c := range totals {
		totalBytes += c
	}

	entries := make([]Entry, 0, len(totals))
	for name, count := range totals {
		entries = append(entries, Entry{
			Name:    name,
			Bytes:   count,
			Percent: round1(float64(count) / float64(totalBytes) * 100),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Bytes != entries[j].Bytes {
			return entries[i].Bytes > entries[j].Bytes
		}
		return entries[i].Name < entries[j].Name
	})

	if len(entries) > TopLanguages {
		entries = entries[:TopLanguages]
	}
	return entries
}

// Card renders entries as the language-usage card.
func Card(username string, entries []Entry, mode Mode, width int) string {
	stats := make([]svg.LangStat, 0, len(entries))
	for _, e := range entries {
		stats = append(stats, svg.LangStat{
			Name:    e.Name,
			Percent: e.Percent,
			Label:   label(e, mode),
			Color:   languageColors[e.Name],
		})
	}
	return svg.LanguagesCard(username, stats, width)
}

func label(e Entry, mode Mode) string {
	switch mode {
	case ModeBytes:
		return FormatBytes(e.Bytes)
	case ModeBoth:
		return fmt.Sprintf("%.1f%% (%s)", e.Percent, FormatBytes(e.Bytes))
	default:
		return fmt.Sprintf("%.1f%%", e.Percent)
	}
}

// FormatBytes converts raw byte counts into a short human-readable
// form.
func FormatBytes(size int64) string {
	const unit = 1024
	value := float64(size)
	labels := []string{"", "KB", "MB", "GB"}

	n := 0
	for value > unit && n < len(labels)-1 {
		value /= unit
		n++
	}
	if n == 0 {
		return fmt.Sprintf("%.0f", value)
	}
	return fmt.Sprintf("%.1f %s", value, labels[n])
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
