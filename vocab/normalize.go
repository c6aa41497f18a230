package vocab

import (
	"strings"
	"unicode"
)

// normalizeWord prepares a word for vocabulary lookup.
// - Trims surrounding whitespace
// - Folds every digit to '0' so numbers share a few entries
// - Lowercases when the vocabulary was built lowercased
func normalizeWord(word string, lowercase bool) string {
	word = strings.TrimSpace(word)
	if word == "" {
		return ""
	}

	var builder strings.Builder
	builder.Grow(len(word))
	for _, r := range word {
		switch {
		case unicode.IsDigit(r):
			builder.WriteRune('0')
		case lowercase:
			builder.WriteRune(unicode.ToLower(r))
		default:
			builder.WriteRune(r)
		}
	}
	return builder.String()
}
