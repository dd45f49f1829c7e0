// Package lang provides the static registry of supported languages.
//
// Each language has one Profile describing how to recognize its files and
// how to scan its source text for identifier declarations. The registry is
// built once at process start and never mutated, so it is safe for
// concurrent reads from parallel scan workers.
package lang

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Profile holds the per-language configuration used by the extraction
// pipeline and the rendering layer.
type Profile struct {
	// Key is the canonical language id (e.g. "python").
	Key string

	// DisplayName is the human-readable name used on cards.
	DisplayName string

	// Color is the bar/legend color for this language.
	Color string

	// Extensions are the file suffixes owned by this language, with dot.
	Extensions []string

	// StripPatterns blank out comment and string spans before the
	// structural patterns run. Order matters: block comments before line
	// comments before string literals.
	StripPatterns []*regexp.Regexp

	// DeclPatterns match syntactic constructs that introduce a name.
	// The last capture group of each match is the candidate name.
	DeclPatterns []*regexp.Regexp

	// Keywords are the language's reserved words, lowercase.
	Keywords map[string]bool
}

// IsKeyword reports whether name (case-insensitive) is reserved in this
// language.
func (p *Profile) IsKeyword(name string) bool {
	return p.Keywords[strings.ToLower(name)]
}

// Strip returns code with comment and string spans blanked out. Each
// stripped span is replaced by a single space so surrounding tokens do not
// fuse together.
func (p *Profile) Strip(code string) string {
	for _, re := range p.StripPatterns {
		code = re.ReplaceAllString(code, " ")
	}
	return code
}

var byExtension = buildExtensionIndex()

func buildExtensionIndex() map[string]*Profile {
	index := make(map[string]*Profile)
	for _, p := range profiles {
		for _, ext := range p.Extensions {
			if _, dup := index[ext]; dup {
				// Two profiles claiming one extension is a
				// programming error in the table.
				panic("lang: duplicate extension " + ext)
			}
			index[ext] = p
		}
	}
	return index
}

// Detect resolves a file path to its language profile by extension.
// Unsupported files return ok=false; callers skip them.
func Detect(path string) (*Profile, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	p, ok := byExtension[ext]
	return p, ok
}

// ByKey returns the profile for a canonical language key.
func ByKey(key string) (*Profile, bool) {
	p, ok := byKey[key]
	return p, ok
}

// Keys returns all supported language keys, sorted.
func Keys() []string {
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var byKey = buildKeyIndex()

func buildKeyIndex() map[string]*Profile {
	index := make(map[string]*Profile, len(profiles))
	for _, p := range profiles {
		index[p.Key] = p
	}
	return index
}

// Color returns the display color for a language key, with a neutral
// default for unknown keys.
func Color(key string) string {
	if p, ok := byKey[key]; ok {
		return p.Color
	}
	return "#58a6ff"
}

func keywordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
