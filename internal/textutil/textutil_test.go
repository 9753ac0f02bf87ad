package textutil

import "testing"

func TestContainsJapanese(t *testing.T) {
	cases := []struct {
		s    string
		want bool
	}{
		{"こんにちは", true},
		{"カタカナ", true},
		{"漢字", true},
		{"hello world", false},
		{"", false},
		{"mixed 日本語 text", true},
	}

	for _, tc := range cases {
		if got := ContainsJapanese(tc.s); got != tc.want {
			t.Errorf("ContainsJapanese(%q) = %v, want %v", tc.s, got, tc.want)
		}
	}
}

func TestHash(t *testing.T) {
	a := Hash("some text")
	b := Hash("some text")
	c := Hash("other text")

	if a != b {
		t.Error("Hash is not deterministic")
	}
	if a == c {
		t.Error("Hash collides on different inputs")
	}
	if len(a) != 64 {
		t.Errorf("Hash length = %d, want 64 hex chars", len(a))
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate() = %q", got)
	}
	if got := Truncate("a longer string", 8); got != "a longer..." {
		t.Errorf("Truncate() = %q", got)
	}
}
