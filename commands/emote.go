package commands

import (
	"errors"
	"fmt"

	"AgentClay/internal/game"
)

var errNothingEmoted = errors.New("emote what?")

var Emote = Define(Definition{
	Name:        "emote",
	Aliases:     []string{"me"},
	Usage:       "emote <action>",
	Description: "act something out for the room",
}, func(ctx *Context) ([]game.Event, []string, error) {
	action := arg(ctx, "action", "message", "text")
	if action == "" {
		return nil, nil, errNothingEmoted
	}
	event := roomEvent(ctx, ctx.Character.Room, "emote", fmt.Sprintf("%s %s", ctx.Character.Name, action))
	return []game.Event{event}, []string{"Others see: " + event.Message}, nil
})
