package token

import (
	"strings"
	"unicode"
)

// Codec converts text to and from a stream of counting units. The same codec
// must be used for chunk sizing and any downstream context-length checks so
// the two never disagree about how big a piece of text is.
type Codec interface {
	// Encode splits text into units. Decode(Encode(text)) == text.
	Encode(text string) []string
	// Decode reassembles units into text.
	Decode(units []string) string
	// Count returns the number of units in text.
	Count(text string) int
}

// Words segments text into word units with their leading whitespace attached,
// so a slice of units always reassembles into the exact original text. One
// unit per word is a reasonable stand-in for subword tokenizers at the
// granularity chunking needs.
type Words struct{}

func (Words) Encode(text string) []string {
	if text == "" {
		return nil
	}
	var units []string
	var current strings.Builder
	inWord := false

	for _, r := range text {
		space := unicode.IsSpace(r)
		if !space && !inWord && hasWord(current.String()) {
			// Whitespace run ended and a new word begins; the buffered
			// unit (previous word plus trailing gap) is complete.
			units = append(units, current.String())
			current.Reset()
		}
		current.WriteRune(r)
		inWord = !space
	}
	if current.Len() > 0 {
		units = append(units, current.String())
	}
	return units
}

func hasWord(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) }) >= 0
}

func (Words) Decode(units []string) string {
	return strings.Join(units, "")
}

func (w Words) Count(text string) int {
	return len(w.Encode(text))
}

// Fallback is the conservative approximation used when no real codec is
// configured: roughly four characters per unit, rounded up so it does not
// undercount short text.
type Fallback struct{}

func (Fallback) Encode(text string) []string {
	runes := []rune(text)
	var units []string
	for i := 0; i < len(runes); i += 4 {
		end := min(i+4, len(runes))
		units = append(units, string(runes[i:end]))
	}
	return units
}

func (Fallback) Decode(units []string) string {
	return strings.Join(units, "")
}

func (Fallback) Count(text string) int {
	n := len([]rune(text))
	return (n + 3) / 4
}

// Default returns c, or the Fallback codec when c is nil.
func Default(c Codec) Codec {
	if c == nil {
		return Fallback{}
	}
	return c
}
