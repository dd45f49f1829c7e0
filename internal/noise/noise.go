// Package noise filters out path and identifier noise before candidates
// reach the accumulator.
//
// The filter sets are deliberately small: aggressive stopword lists were
// found to suppress legitimately interesting names faster than they
// suppressed noise, so the policy here favors recall and lets ranking do
// the rest.
package noise

import (
	"strings"

	"github.com/gitcards/git-cards/internal/lang"
)

// MinNameLen and MaxNameLen bound accepted identifier lengths,
// exclusive on both sides: MinNameLen < len(name) < MaxNameLen.
const (
	MinNameLen = 2
	MaxNameLen = 30
)

// skipPathParts are directory names whose files are never scanned:
// vendored code, build output, and test fixtures.
var skipPathParts = map[string]bool{
	"__pycache__":   true,
	"node_modules":  true,
	"dist":          true,
	"build":         true,
	"vendor":        true,
	"coverage":      true,
	"site-packages": true,
	".git":          true,
	"out":           true,
	"target":        true,
	"bin":           true,
	"obj":           true,
	"packages":      true,
	"test":          true,
	"tests":         true,
	"__tests__":     true,
	"fixtures":      true,
	"mocks":         true,
	"spec":          true,
}

// globalStopwords apply to every language.
var globalStopwords = map[string]bool{
	"main":   true,
	"system": true,
	"uri":    true,
	"url":    true,
}

// excludedSubstrings exclude any identifier containing them, matched
// against the lowercased name as a raw substring.
var excludedSubstrings = []string{"system", "override"}

// languageStopwords hold per-language names that are syntactically
// unavoidable rather than chosen by the author.
var languageStopwords = map[string]map[string]bool{
	"python": set(
		"self", "cls", "args", "kwargs",
		"__init__", "__main__", "__name__", "__file__",
		"__dict__", "__class__", "__doc__", "__repr__", "__str__",
	),
	"javascript": set(
		"this", "arguments", "undefined", "window", "document",
		"console", "exports", "module", "require", "prototype",
	),
	"typescript": set(
		"this", "arguments", "undefined", "window", "document",
		"console", "exports", "module", "require", "prototype",
	),
	"java":   set("this", "args", "tostring", "equals", "hashcode"),
	"kotlin": set("this", "tostring", "equals", "hashcode", "companion"),
	"csharp": set("this", "args", "tostring", "equals", "gethashcode", "gettype"),
	"go":     set("err", "ctx", "ok"),
	"ruby":   set("initialize", "new"),
	"php":    set("construct", "destruct", "tostring"),
	"swift":  set("init", "deinit", "didset", "willset"),
	"c":      set("argc", "argv"),
	"cpp":    set("argc", "argv", "std"),
}

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// IsPathExcluded reports whether any path segment names a skipped
// directory. It runs before a file is fetched, so vendored trees cost
// nothing.
func IsPathExcluded(path string) bool {
	for _, part := range strings.Split(path, "/") {
		if skipPathParts[strings.ToLower(part)] {
			return true
		}
	}
	return false
}

// IsNoise reports whether an identifier should be dropped for the given
// language. Length bounds apply regardless of language; keyword checks
// only apply when the language is known.
func IsNoise(name, langKey string) bool {
	if len(name) <= MinNameLen || len(name) >= MaxNameLen {
		return true
	}

	lower := strings.ToLower(name)
	if globalStopwords[lower] {
		return true
	}
	for _, sub := range excludedSubstrings {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	if languageStopwords[langKey][lower] {
		return true
	}

	if p, ok := lang.ByKey(langKey); ok && p.IsKeyword(lower) {
		return true
	}
	return false
}
