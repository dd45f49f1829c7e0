// Package identity merges case-style variants of the same identifier.
//
// "UserData", "userData" and "user_data" are one entity. Spellings are
// folded to a normalized snake_case key; equality of normalized keys is
// the sole dedup criterion; no fuzzy matching is performed.
package identity

import (
	"regexp"
	"strings"
)

var (
	// HTTPServer → HTTP_Server: break an uppercase run where it turns
	// into a capitalized word.
	reAcronymBoundary = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)

	// userData → user_Data: break before an uppercase letter that
	// follows a lowercase letter or digit.
	reCamelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

	// Any run of non-alphanumerics becomes one separator.
	reNonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)
)

// Normalize folds an identifier spelling to its canonical lowercase
// snake_case key.
//
//	"HTTPSConnection" → "https_connection"
//	"getUserData"     → "get_user_data"
//	"some-variable"   → "some_variable"
func Normalize(name string) string {
	result := reAcronymBoundary.ReplaceAllString(name, `${1}_${2}`)
	result = reCamelBoundary.ReplaceAllString(result, `${1}_${2}`)
	result = reNonAlnum.ReplaceAllString(result, "_")
	result = strings.Trim(strings.ToLower(result), "_")
	if result == "" {
		return strings.ToLower(name)
	}
	return result
}

// PreferDisplay picks the better display spelling of two variants:
// type-style (uppercase first letter) beats instance-style, longer beats
// shorter, and ties keep the current name for stability.
func PreferDisplay(current, candidate string) string {
	if candidate == "" {
		return current
	}
	if current == "" {
		return candidate
	}

	curUpper := isUpperStart(current)
	candUpper := isUpperStart(candidate)
	switch {
	case candUpper && !curUpper:
		return candidate
	case curUpper && !candUpper:
		return current
	}

	if len(candidate) > len(current) {
		return candidate
	}
	return current
}

func isUpperStart(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}
