package identity

import (
	"sort"
	"sync"
)

// Group is a deduplicated identifier surviving to ranking.
type Group struct {
	// Key is the canonical folded form, e.g. "user_data".
	Key string

	// Display is the best observed spelling.
	Display string

	// Total is the number of occurrences across all files and repos.
	// Total always equals the sum of PerLanguage values.
	Total int

	// PerLanguage counts occurrences by language key.
	PerLanguage map[string]int
}

// Accumulator collects identifier occurrences across many files. Adds
// from parallel scan workers are serialized on an internal mutex; the
// rest of the pipeline is stateless, so this is the only shared mutable
// state in a scan.
type Accumulator struct {
	mu     sync.Mutex
	groups map[string]*Group
}

// NewAccumulator returns an empty accumulator for one scan session.
func NewAccumulator() *Accumulator {
	return &Accumulator{groups: make(map[string]*Group)}
}

// Add records one occurrence of a spelling in a language.
func (a *Accumulator) Add(name, langKey string) {
	key := Normalize(name)

	a.mu.Lock()
	defer a.mu.Unlock()

	g, ok := a.groups[key]
	if !ok {
		g = &Group{
			Key:         key,
			Display:     name,
			PerLanguage: make(map[string]int),
		}
		a.groups[key] = g
	} else {
		g.Display = PreferDisplay(g.Display, name)
	}
	g.Total++
	g.PerLanguage[langKey]++
}

// Len returns the number of distinct groups.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.groups)
}

// Groups returns a snapshot of all groups, sorted by key for
// determinism. The returned groups are copies; the accumulator can keep
// collecting afterwards.
func (a *Accumulator) Groups() []*Group {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]*Group, 0, len(a.groups))
	for _, g := range a.groups {
		langs := make(map[string]int, len(g.PerLanguage))
		for k, v := range g.PerLanguage {
			langs[k] = v
		}
		out = append(out, &Group{
			Key:         g.Key,
			Display:     g.Display,
			Total:       g.Total,
			PerLanguage: langs,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
