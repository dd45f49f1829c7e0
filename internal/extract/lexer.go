package extract

import (
	"github.com/gitcards/git-cards/internal/lang"
)

// Lexer is the coarse fallback strategy: it tokenizes stripped source and
// keeps every name-shaped token that is not a reserved word or a numeric
// literal. It is noisier than the structural and syntax-tree strategies
// since it sees uses as well as declarations, and relies on the shared
// noise filters to clean up after it.
type Lexer struct{}

// NewLexer returns the tokenizer strategy.
func NewLexer() *Lexer {
	return &Lexer{}
}

// Supports reports true for every registered language.
func (l *Lexer) Supports(langKey string) bool {
	_, ok := lang.ByKey(langKey)
	return ok
}

// Extract scans for identifier tokens outside comments and strings.
func (l *Lexer) Extract(code []byte, langKey string) []Candidate {
	profile, ok := lang.ByKey(langKey)
	if !ok {
		return nil
	}

	stripped := profile.Strip(string(code))

	var out []Candidate
	i := 0
	for i < len(stripped) {
		c := stripped[i]

		// Skip numeric literals so 0x1F does not yield "x1F".
		if isDigit(c) {
			for i < len(stripped) && isWordByte(stripped[i]) {
				i++
			}
			continue
		}

		if !isNameStart(c) {
			i++
			continue
		}

		start := i
		for i < len(stripped) && isWordByte(stripped[i]) {
			i++
		}
		token := stripped[start:i]

		if profile.IsKeyword(token) {
			continue
		}
		out = append(out, Candidate{Text: token, Language: langKey})
	}
	return out
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isNameStart(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordByte(c byte) bool {
	return isNameStart(c) || isDigit(c)
}
