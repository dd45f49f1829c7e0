// Package hash provides hashing utilities.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SHA256 computes the SHA256 hash of data and returns it as a hex string.
func SHA256(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SHA256String computes the SHA256 hash of a string.
func SHA256String(s string) string {
	return SHA256([]byte(s))
}

// SHA256Short returns the first n characters of a SHA256 hash.
func SHA256Short(data []byte, n int) string {
	h := SHA256(data)
	if n > len(h) {
		return h
	}
	return h[:n]
}

// FileKey builds a fixed-length cache key for one file in one
// repository. Repository paths can be arbitrarily long and contain
// characters some cache backends reject, so the variable part is
// hashed.
func FileKey(user, repo, branch, path string) string {
	data := []byte(fmt.Sprintf("%s/%s@%s:%s", user, repo, branch, path))
	return "file:" + SHA256Short(data, 16)
}
