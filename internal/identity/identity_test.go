package identity

import (
	"sync"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"UserData", "user_data"},
		{"userData", "user_data"},
		{"user_data", "user_data"},
		{"getUserData", "get_user_data"},
		{"HTTPSConnection", "https_connection"},
		{"HTTPServer", "http_server"},
		{"some-variable", "some_variable"},
		{"__private", "private"},
		{"load_pending", "load_pending"},
		{"XMLHttpRequest", "xml_http_request"},
		{"name2", "name2"},
		{"parseJSON", "parse_json"},
		{"A", "a"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"UserData", "HTTPSConnection", "getUserData", "some-variable",
		"load_pending", "XMLHttpRequest", "__dunder__",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestPreferDisplay(t *testing.T) {
	tests := []struct {
		current, candidate, want string
	}{
		{"userData", "UserData", "UserData"},
		{"UserData", "userData", "UserData"},
		{"db", "database", "database"},
		{"database", "db", "database"},
		{"UserData", "UserDataModel", "UserDataModel"},
		{"UserData", "UserData", "UserData"},
		{"", "userData", "userData"},
		{"userData", "", "userData"},
	}

	for _, tt := range tests {
		if got := PreferDisplay(tt.current, tt.candidate); got != tt.want {
			t.Errorf("PreferDisplay(%q, %q) = %q, want %q",
				tt.current, tt.candidate, got, tt.want)
		}
	}
}

func TestAccumulator_MergesCaseVariants(t *testing.T) {
	acc := NewAccumulator()
	acc.Add("UserData", "java")
	acc.Add("userData", "typescript")
	acc.Add("user_data", "python")

	groups := acc.Groups()
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}

	g := groups[0]
	if g.Key != "user_data" {
		t.Errorf("Key = %q, want user_data", g.Key)
	}
	if g.Display != "UserData" {
		t.Errorf("Display = %q, want UserData", g.Display)
	}
	if g.Total != 3 {
		t.Errorf("Total = %d, want 3", g.Total)
	}
	if g.PerLanguage["java"] != 1 || g.PerLanguage["typescript"] != 1 || g.PerLanguage["python"] != 1 {
		t.Errorf("PerLanguage = %v", g.PerLanguage)
	}
}

func TestAccumulator_Aggregation(t *testing.T) {
	acc := NewAccumulator()
	acc.Add("runner", "javascript")
	acc.Add("Runner", "typescript")
	acc.Add("runner", "typescript")

	groups := acc.Groups()
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}

	g := groups[0]
	if g.Total != 3 {
		t.Errorf("Total = %d, want 3", g.Total)
	}
	if g.PerLanguage["javascript"] != 1 || g.PerLanguage["typescript"] != 2 {
		t.Errorf("PerLanguage = %v", g.PerLanguage)
	}

	// Total always equals the sum of per-language counts.
	sum := 0
	for _, n := range g.PerLanguage {
		sum += n
	}
	if sum != g.Total {
		t.Errorf("sum(PerLanguage) = %d, Total = %d", sum, g.Total)
	}
}

func TestAccumulator_GroupsSortedAndCopied(t *testing.T) {
	acc := NewAccumulator()
	acc.Add("zebra", "go")
	acc.Add("alpha", "go")
	acc.Add("mango", "go")

	groups := acc.Groups()
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}
	for i := 1; i < len(groups); i++ {
		if groups[i-1].Key >= groups[i].Key {
			t.Fatalf("groups not sorted: %q before %q", groups[i-1].Key, groups[i].Key)
		}
	}

	// Mutating the snapshot must not affect the accumulator.
	groups[0].PerLanguage["go"] = 99
	if fresh := acc.Groups(); fresh[0].PerLanguage["go"] != 1 {
		t.Error("Groups() returned shared state")
	}
}

func TestAccumulator_Concurrent(t *testing.T) {
	acc := NewAccumulator()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				acc.Add("sharedName", "go")
			}
		}()
	}
	wg.Wait()

	groups := acc.Groups()
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	if groups[0].Total != 800 {
		t.Errorf("Total = %d, want 800", groups[0].Total)
	}
}
