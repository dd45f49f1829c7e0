package extract

import (
	"github.com/gitcards/git-cards/internal/lang"
)

// Structural extracts candidates by applying a language's declaration
// patterns to comment- and string-stripped source. It is the workhorse
// strategy: cheap, grammar-free, and available for every registered
// language.
type Structural struct{}

// NewStructural returns the regex-based strategy.
func NewStructural() *Structural {
	return &Structural{}
}

// Supports reports true for every registered language.
func (s *Structural) Supports(langKey string) bool {
	_, ok := lang.ByKey(langKey)
	return ok
}

// Extract blanks out comment/string spans, then collects the last
// capture group of every declaration pattern match.
func (s *Structural) Extract(code []byte, langKey string) []Candidate {
	profile, ok := lang.ByKey(langKey)
	if !ok {
		return nil
	}

	stripped := profile.Strip(string(code))

	var out []Candidate
	for _, re := range profile.DeclPatterns {
		for _, match := range re.FindAllStringSubmatch(stripped, -1) {
			name := match[len(match)-1]
			if name == "" {
				continue
			}
			out = append(out, Candidate{Text: name, Language: langKey})
		}
	}
	return out
}
