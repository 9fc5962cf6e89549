package commands

import (
	"errors"
	"fmt"

	"AgentClay/internal/game"
)

var errNothingSaid = errors.New("say what?")

var Say = Define(Definition{
	Name:        "say",
	Usage:       "say <message>",
	Description: "speak to everyone in the room",
}, func(ctx *Context) ([]game.Event, []string, error) {
	msg := arg(ctx, "message", "text")
	if msg == "" {
		return nil, nil, errNothingSaid
	}
	event := roomEvent(ctx, ctx.Character.Room, "say", fmt.Sprintf("%s says: %s", ctx.Character.Name, msg))
	return []game.Event{event}, []string{"You say: " + msg}, nil
})
