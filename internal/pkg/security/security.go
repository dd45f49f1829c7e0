// Package security provides input sanitization for untrusted data:
// repository paths from the GitHub tree API, file content from the raw
// content host, and user-supplied strings that end up in logs.
package security

import (
	"path/filepath"
	"strings"
	"unicode"
)

// Path validation errors.
var (
	ErrPathEmpty     = &PathError{Reason: "path is empty"}
	ErrPathNullByte  = &PathError{Reason: "path contains null byte"}
	ErrPathTraversal = &PathError{Reason: "path traversal detected"}
	ErrPathAbsolute  = &PathError{Reason: "absolute path not allowed"}
	ErrPathTooLong   = &PathError{Reason: "path exceeds maximum length"}
)

// PathError represents a path validation error.
type PathError struct {
	Reason string
	Path   string
}

func (e *PathError) Error() string {
	if e.Path != "" {
		return e.Reason + ": " + e.Path
	}
	return e.Reason
}

// MaxPathLength is the maximum allowed repository file path length.
const MaxPathLength = 1024

// ValidatePath validates a repository-relative file path. Tree entries
// come from the GitHub API, but the path still ends up interpolated
// into a raw content URL, so traversal and injection are rejected here
// rather than trusted upstream.
func ValidatePath(path string) error {
	if path == "" {
		return ErrPathEmpty
	}

	if strings.Contains(path, "\x00") {
		return &PathError{Reason: ErrPathNullByte.Reason, Path: "[contains null byte]"}
	}

	if len(path) > MaxPathLength {
		return &PathError{Reason: ErrPathTooLong.Reason, Path: path[:50] + "..."}
	}

	// filepath.IsAbs only understands the current OS, so Windows drive
	// paths are checked explicitly.
	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") || isWindowsAbs(path) {
		return &PathError{Reason: ErrPathAbsolute.Reason, Path: SanitizeForLog(path)}
	}

	cleaned := filepath.ToSlash(filepath.Clean(path))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return &PathError{Reason: ErrPathTraversal.Reason, Path: SanitizeForLog(path)}
	}
	for _, part := range strings.Split(cleaned, "/") {
		if part == ".." {
			return &PathError{Reason: ErrPathTraversal.Reason, Path: SanitizeForLog(path)}
		}
	}

	return nil
}

func isWindowsAbs(path string) bool {
	if len(path) < 3 {
		return false
	}
	c := path[0]
	isLetter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
	return isLetter && path[1] == ':' && (path[2] == '\\' || path[2] == '/')
}

// SanitizeForLog sanitizes a string for safe logging. It prevents log
// injection by escaping newlines, dropping other control characters,
// and truncating to a maximum length.
func SanitizeForLog(s string) string {
	return SanitizeForLogWithLength(s, 200)
}

// SanitizeForLogWithLength sanitizes a string for logging with a custom max length.
func SanitizeForLogWithLength(s string, maxLen int) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(minInt(len(s), maxLen+10))

	count := 0
	for _, r := range s {
		if count >= maxLen {
			b.WriteString("...")
			break
		}

		switch r {
		case '\n':
			b.WriteString("\\n")
			count += 2
		case '\r':
			b.WriteString("\\r")
			count += 2
		case '\t':
			b.WriteString("\\t")
			count += 2
		default:
			if !unicode.IsControl(r) || r == ' ' {
				b.WriteRune(r)
				count++
			}
		}
	}

	return b.String()
}

// IsBinaryContent checks if content appears to be binary (non-text).
// Language detection is by extension only, so a .py file can still turn
// out to be a pickle dump or a compiled artifact.
func IsBinaryContent(content []byte) bool {
	if len(content) == 0 {
		return false
	}

	// Check first 8KB for binary indicators
	checkLen := minInt(len(content), 8192)
	sample := content[:checkLen]

	nullCount := 0
	nonPrintable := 0

	for _, b := range sample {
		if b == 0 {
			nullCount++
			// More than a few null bytes strongly indicates binary
			if nullCount > 3 {
				return true
			}
		} else if b < 32 && b != '\t' && b != '\n' && b != '\r' {
			nonPrintable++
		}
	}

	// If more than 10% non-printable, likely binary
	return float64(nonPrintable)/float64(checkLen) > 0.1
}

// minInt returns the smaller of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
