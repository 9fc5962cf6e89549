package commands

import (
	"sort"
	"strings"

	"AgentClay/internal/game"
)

// EndTurnTokens end the turn when they appear as a whole action.
var EndTurnTokens = []string{"end_turn", "end turn", "pass", "done"}

// connectors separate parameter values, as in "give key to bob".
var connectors = map[string]struct{}{
	"to": {}, "at": {}, "into": {}, "through": {}, "toward": {}, "towards": {}, "with": {}, "on": {},
}

var articles = []string{"the ", "a ", "an "}

// Parser reads one action per line, or several separated by ';'. The first
// words must name an action id or alias; the rest is bound to the action's
// parameters in declaration order.
type Parser struct{}

type verb struct {
	label  string
	action *game.ActionDefinition
}

// Parse implements game.Parser.
func (Parser) Parse(raw string, actions []*game.ActionDefinition) ([]game.ParsedAction, []string) {
	verbs := verbsFor(actions)
	var parsed []game.ParsedAction
	var rejected []string
	for _, line := range strings.Split(raw, "\n") {
		for _, segment := range strings.Split(line, ";") {
			text := stripDecoration(sanitizeLine(segment))
			if text == "" {
				continue
			}
			if isEndTurn(text) {
				parsed = append(parsed, game.ParsedAction{EndTurn: true, Raw: text})
				continue
			}
			pa, ok := parseAction(text, verbs)
			if !ok {
				rejected = append(rejected, text)
				continue
			}
			parsed = append(parsed, pa)
		}
	}
	return parsed, rejected
}

func isEndTurn(text string) bool {
	lowered := strings.ToLower(text)
	for _, token := range EndTurnTokens {
		if lowered == token {
			return true
		}
	}
	return false
}

// verbsFor lists every id and alias, longest first, so multi-word aliases
// win over their first word.
func verbsFor(actions []*game.ActionDefinition) []verb {
	var out []verb
	for _, a := range actions {
		out = append(out, verb{label: normalizeVerb(a.ID), action: a})
		for _, alias := range a.Aliases {
			if label := normalizeVerb(alias); label != "" {
				out = append(out, verb{label: label, action: a})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].label) > len(out[j].label)
	})
	return out
}

func normalizeVerb(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.ReplaceAll(s, "_", " "))), " ")
}

func parseAction(text string, verbs []verb) (game.ParsedAction, bool) {
	words := strings.Fields(text)
	normalized := normalizeVerb(text)
	for _, v := range verbs {
		if normalized != v.label && !strings.HasPrefix(normalized, v.label+" ") {
			continue
		}
		need := len(strings.Fields(v.label))
		consumed, i := 0, 0
		for i < len(words) && consumed < need {
			consumed += len(strings.Fields(strings.ReplaceAll(words[i], "_", " ")))
			i++
		}
		rest := words[i:]
		return game.ParsedAction{
			Action: v.action,
			Params: bindParams(v.action.Parameters, rest),
			Raw:    text,
		}, true
	}
	return game.ParsedAction{}, false
}

// bindParams splits words across parameters. A trailing free-text parameter
// (message or text) takes everything after one word per leading parameter.
// Otherwise connector words split values when present, and failing that each
// trailing parameter takes one word and the first takes whatever is left.
func bindParams(specs []game.ParameterSpec, words []string) map[string]string {
	params := make(map[string]string, len(specs))
	if len(specs) == 0 || len(words) == 0 {
		return params
	}
	if len(specs) == 1 {
		params[specs[0].Name] = cleanValue(words)
		return params
	}

	var groups [][]string
	if freeText(specs[len(specs)-1].Name) {
		groups = splitFromStart(words, len(specs))
	} else {
		groups = splitOnConnectors(words, len(specs))
	}
	if len(groups) < len(specs) {
		groups = splitFromEnd(words, len(specs))
	}
	for i, spec := range specs {
		if i < len(groups) {
			if v := cleanValue(groups[i]); v != "" {
				params[spec.Name] = v
			}
		}
	}
	return params
}

func splitOnConnectors(words []string, n int) [][]string {
	var groups [][]string
	var current []string
	for _, w := range words {
		if _, ok := connectors[strings.ToLower(w)]; ok && len(current) > 0 && len(groups) < n-1 {
			groups = append(groups, current)
			current = nil
			continue
		}
		current = append(current, w)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

func freeText(name string) bool {
	switch strings.ToLower(name) {
	case "message", "text":
		return true
	}
	return false
}

func splitFromStart(words []string, n int) [][]string {
	var groups [][]string
	for i := 0; i < n-1 && i < len(words); i++ {
		groups = append(groups, []string{words[i]})
	}
	if len(words) > n-1 {
		groups = append(groups, words[n-1:])
	}
	return groups
}

func splitFromEnd(words []string, n int) [][]string {
	if len(words) < n {
		groups := make([][]string, len(words))
		for i, w := range words {
			groups[i] = []string{w}
		}
		return groups
	}
	head := len(words) - (n - 1)
	groups := [][]string{words[:head]}
	for _, w := range words[head:] {
		groups = append(groups, []string{w})
	}
	return groups
}

func cleanValue(words []string) string {
	value := strings.Join(words, " ")
	lowered := strings.ToLower(value)
	for _, article := range articles {
		if strings.HasPrefix(lowered, article) && len(value) > len(article) {
			value = value[len(article):]
			break
		}
	}
	return strings.TrimSpace(value)
}
