package game

import (
	"strings"

	"golang.org/x/text/cases"
)

// fold normalises a name for case-insensitive comparison. Casers carry
// state, so one is built per call rather than shared between sessions.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// uniqueMatch resolves target against candidate names. An exact
// case-insensitive match wins outright; otherwise a single prefix match (or,
// with matchWords, a single word-prefix match) is accepted. Ambiguous or
// missing matches return -1 and false.
func uniqueMatch(target string, names []string, matchWords bool) (int, bool) {
	normalized := fold(target)
	if normalized == "" {
		return -1, false
	}

	partial := -1
	ambiguous := false
	for i, name := range names {
		candidate := fold(name)
		if candidate == normalized {
			return i, true
		}

		match := strings.HasPrefix(candidate, normalized)
		if !match && matchWords {
			for _, word := range strings.Fields(candidate) {
				if strings.HasPrefix(word, normalized) {
					match = true
					break
				}
			}
		}

		if match {
			if partial != -1 {
				ambiguous = true
				continue
			}
			partial = i
		}
	}

	if partial != -1 && !ambiguous {
		return partial, true
	}
	return -1, false
}

// matchOwner is uniqueMatch over labels that may share an owner: several
// labels of the same owner matching is not ambiguous.
func matchOwner(target string, labels, owners []string) (string, bool) {
	normalized := fold(target)
	if normalized == "" {
		return "", false
	}
	for i, label := range labels {
		if fold(label) == normalized {
			return owners[i], true
		}
	}
	found := ""
	for i, label := range labels {
		if !strings.HasPrefix(fold(label), normalized) {
			continue
		}
		if found != "" && found != owners[i] {
			return "", false
		}
		found = owners[i]
	}
	return found, found != ""
}
