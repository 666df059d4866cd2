package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases s, folds diacritics, replaces every rune that is not
// a letter, digit, underscore or space with a space and collapses whitespace.
// It never fails: an empty input yields an empty output.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToLower(Fold(s))

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if !isWord(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}

	return b.String()
}

// Fold strips combining marks, so "Zürich" becomes "Zurich".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// Tokens splits an already normalized string into words.
func Tokens(normalized string) []string {
	if normalized == "" {
		return []string{}
	}
	return strings.Fields(normalized)
}

// ContainsPhrase reports whether the normalized phrase occurs in the normalized
// text as whole words: "rest api" matches "build rest api" but not "rest apis".
func ContainsPhrase(normalizedText, normalizedPhrase string) bool {
	if normalizedPhrase == "" || normalizedText == "" {
		return false
	}
	return strings.Contains(" "+normalizedText+" ", " "+normalizedPhrase+" ")
}

// Truncate cuts s to at most limit runes.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func isWord(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
