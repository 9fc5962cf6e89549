package commands

import (
	"reflect"
	"testing"

	"AgentClay/internal/game"
)

func TestParserSplitsLinesAndSemicolons(t *testing.T) {
	w := testWorld(t)
	parsed, rejected := Parser{}.Parse("1. pickup the brass lamp\n- go north; dance\n\n**end turn**", w.Actions())

	if !reflect.DeepEqual(rejected, []string{"dance"}) {
		t.Fatalf("rejected = %v", rejected)
	}
	if len(parsed) != 3 {
		t.Fatalf("parsed = %+v", parsed)
	}
	if parsed[0].Action.ID != "pickup" || parsed[0].Params["object"] != "brass lamp" {
		t.Fatalf("first = %+v", parsed[0])
	}
	if parsed[1].Action.ID != "move" || parsed[1].Params["exit"] != "north" {
		t.Fatalf("second = %+v", parsed[1])
	}
	if !parsed[2].EndTurn {
		t.Fatalf("third = %+v", parsed[2])
	}
}

func TestParserEndTurnTokens(t *testing.T) {
	w := testWorld(t)
	for _, token := range []string{"end_turn", "End Turn", "pass", "done."} {
		parsed, rejected := Parser{}.Parse(token, w.Actions())
		if len(rejected) != 0 || len(parsed) != 1 || !parsed[0].EndTurn {
			t.Fatalf("%q: parsed %+v rejected %v", token, parsed, rejected)
		}
	}
}

func TestParserBindsParameters(t *testing.T) {
	w := testWorld(t)
	cases := []struct {
		line   string
		action string
		params map[string]string
	}{
		{"give silver coin to Sage", "give", map[string]string{"object": "silver coin", "target": "Sage"}},
		{"give coin sage", "give", map[string]string{"object": "coin", "target": "sage"}},
		{"throw brass lamp north", "throw", map[string]string{"object": "brass lamp", "exit": "north"}},
		{"walk to north", "move", map[string]string{"exit": "north"}},
		{"whisper sage meet me at the gate", "whisper", map[string]string{"target": "sage", "message": "meet me at the gate"}},
		{"inventory", "inventory", map[string]string{}},
		{"LOOK", "look", map[string]string{}},
	}
	for _, tc := range cases {
		parsed, rejected := Parser{}.Parse(tc.line, w.Actions())
		if len(rejected) != 0 || len(parsed) != 1 {
			t.Fatalf("%q: parsed %+v rejected %v", tc.line, parsed, rejected)
		}
		if parsed[0].Action.ID != tc.action || !reflect.DeepEqual(parsed[0].Params, tc.params) {
			t.Fatalf("%q: got %s %v", tc.line, parsed[0].Action.ID, parsed[0].Params)
		}
	}
}

func TestParserRejectsEverythingUnknown(t *testing.T) {
	parsed, rejected := Parser{}.Parse("I think I will wait and see.", []*game.ActionDefinition{{ID: "wait"}})
	if len(parsed) != 0 || len(rejected) != 1 {
		t.Fatalf("parsed %+v rejected %v", parsed, rejected)
	}
}

func TestParserStripsControlRunes(t *testing.T) {
	w := testWorld(t)
	parsed, _ := Parser{}.Parse("look\u200b north\x07", w.Actions())
	if len(parsed) != 1 || parsed[0].Params["target"] != "north" {
		t.Fatalf("parsed = %+v", parsed)
	}
}
