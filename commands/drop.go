package commands

import (
	"errors"
	"fmt"

	"AgentClay/internal/game"
)

var Drop = Define(Definition{
	Name:        "drop",
	Usage:       "drop <object>",
	Description: "place a carried object in the room",
}, func(ctx *Context) ([]game.Event, []string, error) {
	target := arg(ctx, "object", "item")
	if target == "" {
		return nil, nil, errNothingNamed
	}
	o, err := ctx.World.DropObject(ctx.Character, target)
	switch {
	case errors.Is(err, game.ErrObjectNotCarried):
		return nil, nil, errNotCarried
	case err != nil:
		return nil, nil, err
	}
	event := roomEvent(ctx, ctx.Character.Room, "drop", fmt.Sprintf("%s drops the %s.", ctx.Character.Name, o.Name))
	return []game.Event{event}, []string{fmt.Sprintf("You drop the %s.", o.Name)}, nil
})
