package telnet

import "strings"

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiDim    = "\x1b[2m"
	ansiCyan   = "\x1b[36m"
	ansiYellow = "\x1b[33m"
	ansiGreen  = "\x1b[32m"
)

// style wraps text with the provided ANSI attributes.
func style(text string, attrs ...string) string {
	if len(attrs) == 0 || text == "" {
		return text
	}
	return strings.Join(attrs, "") + text + ansiReset
}

// colorTerminal reports whether the announced terminal type understands
// ANSI colour. Clients that never announce one get plain text.
func colorTerminal(term string) bool {
	switch term {
	case "", "DUMB", "UNKNOWN":
		return false
	}
	return true
}

// highlight colours the section headings of a prompt: unindented lines that
// end in a colon, and the round banner.
func highlight(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "Round "):
			lines[i] = style(line, ansiBold, ansiYellow)
		case line != "" && line[0] != ' ' && strings.HasSuffix(line, ":"):
			lines[i] = style(line, ansiBold, ansiCyan)
		case strings.HasPrefix(line, "Exits:"):
			lines[i] = style(line, ansiGreen)
		}
	}
	return strings.Join(lines, "\n")
}
