// Package extract turns raw source text into identifier candidates.
//
// Extraction favors recall: several strategies scan the same file and
// their outputs are unioned, trusting the noise filters and ranking
// downstream to suppress low-value names. Every strategy fails soft: a
// parse error yields whatever was collected, never an error for the file.
package extract

import "strings"

// Candidate is one identifier spelling observed in one file.
type Candidate struct {
	// Text is the identifier as it appeared in source.
	Text string

	// Language is the canonical language key of the file.
	Language string

	// Path is the originating file, kept for debugging only.
	Path string
}

// Strategy is one way of scanning code for identifier candidates.
type Strategy interface {
	// Supports reports whether the strategy can handle a language.
	// Unsupported languages are silently skipped by the composite.
	Supports(langKey string) bool

	// Extract scans code and returns raw candidates. It must tolerate
	// malformed or truncated input and never panic or fail the file.
	Extract(code []byte, langKey string) []Candidate
}

// Composite runs every applicable strategy and unions the results.
type Composite struct {
	strategies []Strategy
}

// NewComposite builds the default strategy set: structural regex
// scanning, syntax-tree extraction where a grammar is available, and the
// coarse lexer fallback.
func NewComposite() *Composite {
	return &Composite{
		strategies: []Strategy{
			NewStructural(),
			NewTreeSitter(),
			NewLexer(),
		},
	}
}

// NewCompositeWith builds a composite from explicit strategies, used by
// tests to pin down individual behaviors.
func NewCompositeWith(strategies ...Strategy) *Composite {
	return &Composite{strategies: strategies}
}

// Extract runs all supporting strategies over code and returns the
// unioned candidates. The union is a multiset: a name declared or
// assigned N times contributes N candidates, and those occurrence
// counts carry through to ranking. Distinct spellings of the same name
// ("Runner" and "runner") are both kept; merging case-style variants is
// the accumulator's job.
func (c *Composite) Extract(code []byte, langKey, path string) []Candidate {
	var out []Candidate

	for _, s := range c.strategies {
		if !s.Supports(langKey) {
			continue
		}
		for _, cand := range s.Extract(code, langKey) {
			name := strings.TrimPrefix(cand.Text, "@")
			name = strings.TrimPrefix(name, "$")
			if name == "" {
				continue
			}
			out = append(out, Candidate{Text: name, Language: langKey, Path: path})
		}
	}
	return out
}
