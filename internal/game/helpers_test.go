package game

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func objectParam() []ParameterSpec {
	return []ParameterSpec{{Name: "object"}}
}

// fixture: the hall links north to the library and, hidden, down to the
// cellar. The garden leads into the hall but nothing leads back.
func testDefinition() *WorldDefinition {
	return &WorldDefinition{
		Settings: Settings{Rounds: 1, ActionPoints: 10, Rules: "Be kind."},
		Actions: []ActionDefinition{
			{ID: "wave", Cost: 1, Effects: []Effect{
				{Type: EffectGenerateEvent, Message: "{actor} waves."},
			}},
			{ID: "search", Cost: 4, Effects: []Effect{
				{Type: EffectGenerateEvent, Message: "{actor} searches the room."},
			}},
			{ID: "polish", Cost: 2, Parameters: objectParam(),
				Requirements: []Requirement{{Type: RequireObjectInInventory, Parameter: "object"}},
				Effects:      []Effect{{Type: EffectAddTag, TargetType: TargetObject, Tag: "shiny"}},
			},
			{ID: "light", Cost: 1, Parameters: objectParam(),
				Requirements: []Requirement{
					{Type: RequireObjectInRoom, Parameter: "object"},
					{Type: RequireObjectProperty, Parameter: "object", Property: "fuel", Value: "full"},
				},
				Effects: []Effect{{Type: EffectSetProperty, TargetType: TargetObject, Property: "lit", Value: "yes"}},
			},
			{ID: "sneak", Cost: 1,
				Requirements: []Requirement{{Type: RequireTag, Tag: "hidden"}},
				Effects:      []Effect{{Type: EffectRemoveTag, Tag: "hidden"}},
			},
			{ID: "hide", Cost: 1, Effects: []Effect{{Type: EffectAddTag, Tag: "hidden"}}},
		},
		Rooms: []RoomDefinition{
			{ID: "hall", Title: "Great Hall", Description: "Banners hang from the rafters.", Exits: map[string]Exit{
				"north": {Destination: "library", Name: "oak door", Aliases: []string{"library"}},
				"down":  {Destination: "cellar", Hidden: true, Aliases: []string{"trapdoor"}},
			}},
			{ID: "library", Title: "Library", Exits: map[string]Exit{"south": {Destination: "hall"}}},
			{ID: "cellar", Title: "Cellar", Exits: map[string]Exit{"up": {Destination: "hall"}}},
			{ID: "garden", Title: "Garden", Exits: map[string]Exit{"west": {Destination: "hall"}}},
		},
		Objects: []ObjectDefinition{
			{ID: "lamp", Name: "brass lamp", Location: "hall", Properties: map[string]any{"fuel": "full"}},
			{ID: "key", Name: "iron key", Location: "alice"},
		},
		Characters: []CharacterDefinition{
			{ID: "alice", Name: "Alice", Room: "hall", Motive: "Find the cellar."},
			{ID: "bob", Name: "Bob", Room: "hall"},
			{ID: "carol", Name: "Carol", Room: "library"},
			{ID: "dave", Name: "Dave", Room: "garden"},
			{ID: "erin", Name: "Erin", Room: "cellar"},
		},
	}
}

func newTestWorld(t *testing.T) *World {
	t.Helper()
	w, err := NewWorld(testDefinition(), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	return w
}

func mustCharacter(t *testing.T, w *World, id CharacterID) *Character {
	t.Helper()
	c, ok := w.Character(id)
	if !ok {
		t.Fatalf("character %s missing", id)
	}
	return c
}

func mustAction(t *testing.T, w *World, id string) *ActionDefinition {
	t.Helper()
	a, ok := w.Action(id)
	if !ok {
		t.Fatalf("action %s missing", id)
	}
	return a
}

// wordParser reads one action per line: the action id followed by the value
// of its first parameter.
type wordParser struct{}

func (wordParser) Parse(raw string, actions []*ActionDefinition) ([]ParsedAction, []string) {
	byID := make(map[string]*ActionDefinition, len(actions))
	for _, a := range actions {
		byID[a.ID] = a
	}
	var parsed []ParsedAction
	var rejected []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "end turn" {
			parsed = append(parsed, ParsedAction{EndTurn: true, Raw: line})
			continue
		}
		fields := strings.Fields(line)
		a, ok := byID[fields[0]]
		if !ok {
			rejected = append(rejected, line)
			continue
		}
		params := map[string]string{}
		if len(a.Parameters) > 0 && len(fields) > 1 {
			params[a.Parameters[0].Name] = strings.Join(fields[1:], " ")
		}
		parsed = append(parsed, ParsedAction{Action: a, Params: params, Raw: line})
	}
	return parsed, rejected
}

// scriptedAgent replays canned replies and remembers every prompt. Once
// the replies run out it ends its turn.
type scriptedAgent struct {
	replies []string
	prompts []string
	err     error
}

func (a *scriptedAgent) Prompt(_ context.Context, prompt string) (string, error) {
	a.prompts = append(a.prompts, prompt)
	if a.err != nil {
		return "", a.err
	}
	if len(a.replies) == 0 {
		return "end turn", nil
	}
	reply := a.replies[0]
	a.replies = a.replies[1:]
	return reply, nil
}

type memReporter struct {
	updates []StatusUpdate
}

func (r *memReporter) Report(u StatusUpdate) {
	r.updates = append(r.updates, u)
}

func (r *memReporter) count(kind StatusKind) int {
	n := 0
	for _, u := range r.updates {
		if u.Kind == kind {
			n++
		}
	}
	return n
}

type memRecorder struct {
	events  []Event
	turns   []TurnSummary
	outcome *World
}

func (r *memRecorder) RecordEvents(_ context.Context, _ int, events []Event) error {
	r.events = append(r.events, events...)
	return nil
}

func (r *memRecorder) RecordTurn(_ context.Context, turn TurnSummary) error {
	r.turns = append(r.turns, turn)
	return nil
}

func (r *memRecorder) RecordOutcome(_ context.Context, w *World) error {
	r.outcome = w
	return nil
}

func messages(events []Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Message
	}
	return out
}
