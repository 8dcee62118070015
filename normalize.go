package insider

import (
	"regexp"
	"strings"
	"unicode"
)

var reSpaces = regexp.MustCompile(`\s+`)

// NormalizeCellText cleans text extracted from a filing table cell.
//
// Normalizations performed:
// - Non-breaking and other Unicode spaces → regular spaces
// - Zero-width and format characters → removed
// - Runs of whitespace → single space
// - Leading/trailing whitespace → trimmed
func NormalizeCellText(text string) string {
	text = normalizeWhitespace(text)
	text = removeInvisibleChars(text)
	text = reSpaces.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// normalizeWhitespace converts Unicode space separators to regular spaces.
// SEC renderings pad empty cells with &nbsp; which arrives here as U+00A0.
func normalizeWhitespace(text string) string {
	var result strings.Builder
	result.Grow(len(text))

	for _, r := range text {
		switch {
		case r == '\u00A0', r == '\u202F', r == '\u205F', r == '\u3000':
			result.WriteRune(' ')
		case r >= '\u2000' && r <= '\u200A':
			result.WriteRune(' ')
		default:
			result.WriteRune(r)
		}
	}

	return result.String()
}

// removeInvisibleChars drops zero-width and format characters
func removeInvisibleChars(text string) string {
	var result strings.Builder
	result.Grow(len(text))

	for _, r := range text {
		switch r {
		case '\u200B', '\u200C', '\u200D', '\uFEFF', '\u180E':
			continue
		}
		if unicode.Is(unicode.Cf, r) {
			continue
		}
		result.WriteRune(r)
	}

	return result.String()
}
