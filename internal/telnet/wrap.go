package telnet

import "strings"

// Wrap breaks text so every line fits width columns. Paragraph breaks are
// kept and widths under 20 are raised to 20.
func Wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	if width < 20 {
		width = 20
	}
	lines := strings.Split(text, "\n")
	wrapped := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			wrapped = append(wrapped, "")
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " "))]
		wrapped = append(wrapped, wrapLine(trimmed, indent, width))
	}
	return strings.Join(wrapped, "\n")
}

// wrapLine fills words greedily. Continuation lines of an indented line keep
// the indent, and words longer than the width are cut.
func wrapLine(line, indent string, width int) string {
	words := strings.Fields(line)
	var b strings.Builder
	b.WriteString(indent)
	current := len(indent)
	start := current
	for _, word := range words {
		runes := []rune(word)
		for len(runes) > 0 {
			room := width - start
			if room < 1 {
				room = 1
			}
			if len(runes) > room {
				if current != start {
					b.WriteString("\n" + indent)
				}
				b.WriteString(string(runes[:room]))
				runes = runes[room:]
				b.WriteString("\n" + indent)
				current = start
				continue
			}
			switch {
			case current == start:
				b.WriteString(string(runes))
				current += len(runes)
			case current+1+len(runes) > width:
				b.WriteString("\n" + indent)
				b.WriteString(string(runes))
				current = start + len(runes)
			default:
				b.WriteByte(' ')
				b.WriteString(string(runes))
				current += 1 + len(runes)
			}
			runes = nil
		}
	}
	return strings.TrimRight(b.String(), " \n")
}
