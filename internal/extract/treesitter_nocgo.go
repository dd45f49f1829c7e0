//go:build !cgo

package extract

// TreeSitter is a stub when CGO is disabled: it supports no languages,
// so the composite silently falls back to the structural and lexer
// strategies. Never a fatal condition.
type TreeSitter struct{}

// NewTreeSitter returns the stub strategy.
func NewTreeSitter() *TreeSitter {
	return &TreeSitter{}
}

// Supports always reports false without CGO.
func (t *TreeSitter) Supports(langKey string) bool {
	return false
}

// Extract returns nothing without CGO.
func (t *TreeSitter) Extract(code []byte, langKey string) []Candidate {
	return nil
}
