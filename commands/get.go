package commands

import (
	"errors"
	"fmt"

	"AgentClay/internal/game"
)

var Pickup = Define(Definition{
	Name:        "pickup",
	Aliases:     []string{"get", "take"},
	Usage:       "pickup <object>",
	Description: "pick up an object in the room",
}, func(ctx *Context) ([]game.Event, []string, error) {
	target := arg(ctx, "object", "item")
	if target == "" {
		return nil, nil, errNothingNamed
	}
	o, err := ctx.World.TakeObject(ctx.Character, target)
	switch {
	case errors.Is(err, game.ErrObjectNotFound):
		return nil, nil, errNotHere
	case err != nil:
		return nil, nil, err
	}
	event := roomEvent(ctx, ctx.Character.Room, "pickup", fmt.Sprintf("%s picks up the %s.", ctx.Character.Name, o.Name))
	return []game.Event{event}, []string{fmt.Sprintf("You pick up the %s.", o.Name)}, nil
})
