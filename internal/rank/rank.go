// Package rank orders deduplicated identifier groups for presentation.
//
// Ranking is primarily by raw occurrence count, with a small bounded
// stylistic bonus nudging descriptive or distinctive names above bland
// ones at near-equal counts. The bonus is clamped so it can reorder ties
// but never invert a real count gap (see TieBreakCap).
package rank

import (
	"sort"
	"strings"
)

const (
	// DefaultLimit is the number of items returned when the caller
	// does not ask for a specific count.
	DefaultLimit = 10

	// MaxLimit is the hard cap on returned items.
	MaxLimit = 50

	// TieBreakCap bounds the stylistic bonus: whenever
	// count(x) > count(y) + TieBreakCap, x ranks above y regardless of
	// style. The bonus spread is strictly below this value.
	TieBreakCap = 3
)

// boringTokens lightly penalize boilerplate vocabulary so it does not
// crowd the top of the card.
var boringTokens = map[string]bool{
	"data": true, "info": true, "config": true, "util": true,
	"helper": true, "manager": true, "handler": true, "service": true,
	"base": true, "impl": true, "client": true, "server": true,
	"common": true, "default": true, "core": true, "object": true,
	"value": true, "result": true, "item": true, "temp": true,
}

// Item is one ranked identifier as consumed by the rendering layer.
type Item struct {
	// Name is the display spelling.
	Name string `json:"name"`

	// Count is the total occurrence count.
	Count int `json:"count"`

	// Languages maps language key to occurrence count.
	Languages map[string]int `json:"languages"`

	// Dominant is the language with the most occurrences, used for
	// bar coloring.
	Dominant string `json:"dominant"`
}

// Group is the minimal input the ranker needs; it matches
// identity.Group structurally so either can be passed.
type Group struct {
	Display     string
	Total       int
	PerLanguage map[string]int
}

// Rank scores and sorts groups: count descending with the bounded
// stylistic bonus, then count, then name ascending for a total order.
func Rank(groups []Group) []Item {
	type scored struct {
		item  Item
		score float64
	}

	ranked := make([]scored, 0, len(groups))
	for _, g := range groups {
		it := Item{
			Name:      g.Display,
			Count:     g.Total,
			Languages: g.PerLanguage,
			Dominant:  dominantLanguage(g.PerLanguage),
		}
		ranked = append(ranked, scored{item: it, score: float64(it.Count) + styleBonus(it)})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if ranked[i].item.Count != ranked[j].item.Count {
			return ranked[i].item.Count > ranked[j].item.Count
		}
		return ranked[i].item.Name < ranked[j].item.Name
	})

	items := make([]Item, len(ranked))
	for i, r := range ranked {
		items[i] = r.item
	}
	return items
}

// Top truncates to the best n items, clamping n to [1, MaxLimit];
// n <= 0 selects DefaultLimit. Truncation is a view operation.
func Top(items []Item, n int) []Item {
	if n <= 0 {
		n = DefaultLimit
	}
	if n > MaxLimit {
		n = MaxLimit
	}
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}

// styleBonus computes the bounded stylistic nudge for an item. The
// clamp to [-1.0, 1.25] keeps the total spread under TieBreakCap, which
// the monotonicity property in the tests depends on.
func styleBonus(it Item) float64 {
	tokens := strings.Split(strings.ToLower(normalizeish(it.Name)), "_")

	var bonus float64
	if len(tokens) > 1 {
		bonus += 0.2
	}
	switch {
	case len(it.Name) >= 14:
		bonus += 0.15
	case len(it.Name) <= 4:
		bonus -= 0.1
	}
	if strings.ContainsAny(it.Name, "0123456789") {
		bonus += 0.05
	}
	if hasAcronym(it.Name) {
		bonus += 0.05
	}
	if n := len(it.Languages); n > 1 {
		if n > 3 {
			n = 3
		}
		bonus += 0.05 * float64(n)
	}

	boring := 0
	for _, tok := range tokens {
		if boringTokens[tok] {
			boring++
		}
	}
	if boring > 0 {
		bonus -= 0.3 + 0.05*float64(boring-1)
	}

	if bonus > 1.25 {
		bonus = 1.25
	}
	if bonus < -1.0 {
		bonus = -1.0
	}
	return bonus
}

// normalizeish splits camelCase into underscore-separated tokens for
// the boring/multi-word checks, without pulling in the identity package.
func normalizeish(name string) string {
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		if i > 0 && c >= 'A' && c <= 'Z' {
			prev := name[i-1]
			if prev >= 'a' && prev <= 'z' || prev >= '0' && prev <= '9' {
				b.WriteByte('_')
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// hasAcronym reports whether the name contains a run of 3+ uppercase
// letters (HTTP, JSON).
func hasAcronym(name string) bool {
	run := 0
	for i := 0; i < len(name); i++ {
		if name[i] >= 'A' && name[i] <= 'Z' {
			run++
			if run >= 3 {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}

func dominantLanguage(langs map[string]int) string {
	best, bestCount := "", -1
	for lang, count := range langs {
		if count > bestCount || (count == bestCount && lang < best) {
			best, bestCount = lang, count
		}
	}
	return best
}
