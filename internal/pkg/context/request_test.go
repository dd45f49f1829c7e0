package context

import (
	"context"
	"testing"
)

func TestRequestID(t *testing.T) {
	ctx := context.Background()

	if got := GetRequestID(ctx); got != "" {
		t.Errorf("GetRequestID on empty context = %q, want empty", got)
	}

	ctx = WithRequestID(ctx, "abc123")
	if got := GetRequestID(ctx); got != "abc123" {
		t.Errorf("GetRequestID = %q, want abc123", got)
	}
}

func TestNewRequestID(t *testing.T) {
	a := NewRequestID()
	b := NewRequestID()

	if len(a) != 16 {
		t.Errorf("NewRequestID length = %d, want 16", len(a))
	}
	if a == b {
		t.Errorf("NewRequestID returned duplicate values: %s", a)
	}
}
