package hash

import (
	"strings"
	"testing"
)

func TestSHA256(t *testing.T) {
	tests := []struct {
		input []byte
		want  string
	}{
		{
			[]byte("hello"),
			"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		},
		{
			[]byte(""),
			"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			got := SHA256(tt.input)
			if got != tt.want {
				t.Errorf("SHA256(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestSHA256String(t *testing.T) {
	got := SHA256String("hello")
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

	if got != want {
		t.Errorf("SHA256String(hello) = %s, want %s", got, want)
	}
}

func TestSHA256Short(t *testing.T) {
	hash := SHA256([]byte("hello"))

	tests := []struct {
		n    int
		want string
	}{
		{8, hash[:8]},
		{16, hash[:16]},
		{32, hash[:32]},
		{64, hash},  // full hash
		{100, hash}, // exceeds length, returns full
	}

	for _, tt := range tests {
		got := SHA256Short([]byte("hello"), tt.n)
		if got != tt.want {
			t.Errorf("SHA256Short(hello, %d) = %s, want %s", tt.n, got, tt.want)
		}
	}
}

func TestFileKey(t *testing.T) {
	// Same inputs should produce same output
	k1 := FileKey("octocat", "billing", "main", "billing/loader.py")
	k2 := FileKey("octocat", "billing", "main", "billing/loader.py")

	if k1 != k2 {
		t.Errorf("FileKey not deterministic: %s != %s", k1, k2)
	}

	// Different inputs should produce different output
	k3 := FileKey("octocat", "billing", "main", "billing/models.py")
	if k1 == k3 {
		t.Errorf("FileKey collision: %s == %s", k1, k3)
	}

	if !strings.HasPrefix(k1, "file:") {
		t.Errorf("FileKey missing prefix: %s", k1)
	}

	// Fixed length regardless of path length
	long := FileKey("octocat", "billing", "main", strings.Repeat("deeply/nested/", 40)+"x.py")
	if len(long) != len(k1) {
		t.Errorf("FileKey length varies: %d != %d", len(long), len(k1))
	}

	for _, c := range k1[len("file:"):] {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Errorf("FileKey contains non-hex character: %c", c)
		}
	}
}

func BenchmarkSHA256(b *testing.B) {
	data := []byte("benchmark test data for hashing performance measurement")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SHA256(data)
	}
}

func BenchmarkFileKey(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		FileKey("octocat", "billing", "main", "src/components/Button.tsx")
	}
}
