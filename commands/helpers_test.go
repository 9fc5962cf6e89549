package commands

import (
	"io"
	"log/slog"
	"testing"

	"AgentClay/internal/game"
)

func bindingAction(id, binding string, cost int, params ...string) game.ActionDefinition {
	specs := make([]game.ParameterSpec, len(params))
	for i, p := range params {
		specs[i] = game.ParameterSpec{Name: p}
	}
	return game.ActionDefinition{
		ID:         id,
		Cost:       cost,
		Parameters: specs,
		Effects:    []game.Effect{{Type: game.EffectCodeBinding, Binding: binding}},
	}
}

func testWorld(t *testing.T) *game.World {
	t.Helper()
	move := bindingAction("move", "move", 2, "exit")
	move.Aliases = []string{"go", "walk to"}
	move.Requirements = []game.Requirement{{Type: game.RequireExitVisible, Parameter: "exit"}}
	def := &game.WorldDefinition{
		Actions: []game.ActionDefinition{
			move,
			bindingAction("pickup", "pickup", 1, "object"),
			bindingAction("drop", "drop", 1, "object"),
			bindingAction("give", "give", 1, "object", "target"),
			bindingAction("throw", "throw", 2, "object", "exit"),
			bindingAction("look", "look", 0, "target"),
			bindingAction("inventory", "inventory", 0),
			bindingAction("examine", "examine", 0, "object"),
			bindingAction("yell", "yell", 1, "message"),
			bindingAction("whisper", "whisper", 1, "target", "message"),
			bindingAction("emote", "emote", 1, "action"),
			bindingAction("help", "help", 0),
			bindingAction("who", "who", 0),
		},
		Rooms: []game.RoomDefinition{
			{ID: "start", Title: "Starting Room", Description: "A quiet foyer.", Exits: map[string]game.Exit{
				"north": {Destination: "hall", Name: "arched doorway"},
			}},
			{ID: "hall", Title: "Hallway", Description: "A long corridor.", Exits: map[string]game.Exit{
				"south": {Destination: "start"},
			}},
		},
		Objects: []game.ObjectDefinition{
			{ID: "lamp", Name: "brass lamp", Description: "Dented but serviceable.", Location: "start"},
			{ID: "coin", Name: "silver coin", Location: "hero"},
		},
		Characters: []game.CharacterDefinition{
			{ID: "hero", Name: "Hero", Room: "start"},
			{ID: "sage", Name: "Sage", Room: "start"},
			{ID: "guard", Name: "Guard", Room: "hall"},
		},
	}
	w, err := game.NewWorld(def, game.WithBindings(Registry()), game.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	return w
}

// perform checks requirements and applies the action the way a turn does.
func perform(t *testing.T, w *game.World, who game.CharacterID, action string, params map[string]string) ([]game.Event, []string) {
	t.Helper()
	c, ok := w.Character(who)
	if !ok {
		t.Fatalf("character %s missing", who)
	}
	a, ok := w.Action(action)
	if !ok {
		t.Fatalf("action %s missing", action)
	}
	ev := w.Evaluate(c, a, params)
	if !ev.OK {
		t.Fatalf("%s rejected: %s", action, ev.Message)
	}
	return w.Apply(c, a, params, ev)
}
