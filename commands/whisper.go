package commands

import (
	"fmt"

	"AgentClay/internal/game"
)

var Whisper = Define(Definition{
	Name:        "whisper",
	Usage:       "whisper <character> <message>",
	Description: "whisper to one character in the room",
}, func(ctx *Context) ([]game.Event, []string, error) {
	who := arg(ctx, "target", "character")
	msg := arg(ctx, "message", "text")
	if who == "" || msg == "" {
		return nil, nil, errNothingSaid
	}
	c := ctx.Character
	target, ok := ctx.World.FindCharacter(who)
	if !ok || !target.Active() || target.Room != c.Room || target.ID == c.ID {
		return nil, nil, errRecipientAbsent
	}
	event := game.Event{
		Type:    "whisper",
		Message: fmt.Sprintf("%s whispers to you: %s", c.Name, msg),
		Source:  c.Room,
		Actor:   c.ID,
		Target:  target.ID,
		Scopes:  []game.Scope{game.ScopeTargeted},
	}
	return []game.Event{event}, []string{fmt.Sprintf("You whisper to %s: %s", target.Name, msg)}, nil
})
