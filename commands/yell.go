package commands

import (
	"fmt"

	"AgentClay/internal/game"
)

var Yell = Define(Definition{
	Name:        "yell",
	Aliases:     []string{"shout"},
	Usage:       "yell <message>",
	Description: "shout loud enough for the neighbouring rooms to hear",
}, func(ctx *Context) ([]game.Event, []string, error) {
	msg := arg(ctx, "message", "text")
	if msg == "" {
		return nil, nil, errNothingSaid
	}
	c := ctx.Character
	events := []game.Event{
		roomEvent(ctx, c.Room, "yell", fmt.Sprintf("%s yells: %s", c.Name, msg)),
		{
			Type:    "yell",
			Message: fmt.Sprintf("You hear %s yell from nearby: %s", c.Name, msg),
			Source:  c.Room,
			Actor:   c.ID,
			Scopes:  []game.Scope{game.ScopeAdjacent},
		},
	}
	return events, []string{"You yell: " + msg}, nil
})
