package commands

import (
	"strings"
	"unicode"
)

// sanitizeLine drops control and formatting runes from agent output and
// folds any other whitespace into plain spaces.
func sanitizeLine(s string) string {
	if s == "" {
		return ""
	}
	var builder strings.Builder
	builder.Grow(len(s))
	for _, r := range s {
		if cleaned, ok := sanitizeRune(r); ok {
			builder.WriteRune(cleaned)
		}
	}
	return strings.TrimSpace(builder.String())
}

func sanitizeRune(r rune) (rune, bool) {
	switch {
	case r == '\r':
		return 0, false
	case unicode.IsSpace(r):
		return ' ', true
	case r < 0x20 || r == 0x7f:
		return 0, false
	case unicode.Is(unicode.Cf, r):
		return 0, false
	case unicode.IsControl(r):
		return 0, false
	case !unicode.IsPrint(r):
		return 0, false
	default:
		return r, true
	}
}

// stripDecoration removes list bullets, numbering, markdown emphasis and
// wrapping quotes that chat models like to put around commands.
func stripDecoration(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"- ", "* ", "> "} {
		s = strings.TrimPrefix(s, prefix)
	}
	if i := strings.IndexAny(s, ".)"); i > 0 && i < 4 && isDigits(s[:i]) {
		s = strings.TrimSpace(s[i+1:])
	}
	s = strings.Trim(s, "`*\"'")
	s = strings.TrimRight(s, ".!")
	return strings.TrimSpace(s)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
