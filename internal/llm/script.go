package llm

import (
	"context"
	"os"
	"strings"
	"sync"
)

// ScriptAgent replays canned replies in order, for offline runs and tests.
// When the script runs out it ends every turn.
type ScriptAgent struct {
	mu      sync.Mutex
	replies []string
	prompts int
}

func NewScriptAgent(replies ...string) *ScriptAgent {
	return &ScriptAgent{replies: append([]string(nil), replies...)}
}

// LoadScript reads replies from a file. Replies are separated by blank
// lines, so one reply may hold several actions.
func LoadScript(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var replies []string
	for _, block := range strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n\n") {
		if trimmed := strings.TrimSpace(block); trimmed != "" {
			replies = append(replies, trimmed)
		}
	}
	return replies, nil
}

func (a *ScriptAgent) Prompt(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.prompts++
	if len(a.replies) == 0 {
		return "end turn", nil
	}
	reply := a.replies[0]
	a.replies = a.replies[1:]
	return reply, nil
}

// Prompts reports how many prompts the agent has answered.
func (a *ScriptAgent) Prompts() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.prompts
}
