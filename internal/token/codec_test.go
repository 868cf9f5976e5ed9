package token

import (
	"strings"
	"testing"
)

func TestWords_RoundTrip(t *testing.T) {
	cases := []string{
		"",
		"one",
		"hello world",
		"  leading space",
		"trailing space  ",
		"line one\n\nline two\twith tab",
		"unicode: héllo wörld — dash",
	}
	var c Words
	for _, text := range cases {
		got := c.Decode(c.Encode(text))
		if got != text {
			t.Errorf("round trip changed text: %q -> %q", text, got)
		}
	}
}

func TestWords_Count(t *testing.T) {
	var c Words
	if n := c.Count(""); n != 0 {
		t.Errorf("empty text: expected 0 units, got %d", n)
	}
	if n := c.Count("one two three"); n != 3 {
		t.Errorf("expected 3 units, got %d", n)
	}
	// Leading whitespace attaches to the first word; it must not add a unit.
	if n := c.Count("  one two"); n != 2 {
		t.Errorf("expected 2 units, got %d", n)
	}
	// Trailing whitespace attaches to the last word.
	if n := c.Count("one two  "); n != 2 {
		t.Errorf("expected 2 units, got %d", n)
	}
}

func TestWords_Deterministic(t *testing.T) {
	var c Words
	text := strings.Repeat("the quick brown fox. ", 50)
	a := c.Encode(text)
	b := c.Encode(text)
	if len(a) != len(b) {
		t.Fatalf("encode not deterministic: %d vs %d units", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("unit %d differs: %q vs %q", i, a[i], b[i])
		}
	}
}

func TestFallback_NeverUndercounts(t *testing.T) {
	var c Fallback
	text := "abcdefghij" // 10 chars
	if n := c.Count(text); n != 3 {
		t.Errorf("expected ceil(10/4)=3, got %d", n)
	}
	if n := c.Count("a"); n != 1 {
		t.Errorf("expected 1 for single char, got %d", n)
	}
	if got := c.Decode(c.Encode(text)); got != text {
		t.Errorf("round trip changed text: %q -> %q", text, got)
	}
}

func TestDefault(t *testing.T) {
	if _, ok := Default(nil).(Fallback); !ok {
		t.Error("Default(nil) should return the fallback codec")
	}
	if _, ok := Default(Words{}).(Words); !ok {
		t.Error("Default should pass through a configured codec")
	}
}
