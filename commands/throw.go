package commands

import (
	"errors"
	"fmt"

	"AgentClay/internal/game"
)

// Throw sends a carried object through an exit into the room beyond.
var Throw = Define(Definition{
	Name:        "throw",
	Aliases:     []string{"toss"},
	Usage:       "throw <object> <exit>",
	Description: "throw a carried object through an exit",
}, func(ctx *Context) ([]game.Event, []string, error) {
	item := arg(ctx, "object", "item")
	if item == "" {
		return nil, nil, errNothingNamed
	}
	c := ctx.Character
	o, ok := ctx.World.FindInventoryObject(c, item)
	if !ok {
		return nil, nil, errNotCarried
	}
	match, err := exitFor(ctx, "exit", "direction")
	if err != nil {
		return nil, nil, err
	}
	if err := ctx.World.PlaceObject(o, match.Exit.Destination); err != nil {
		if errors.Is(err, game.ErrUnknownRoom) {
			return nil, nil, errNoSuchExit
		}
		return nil, nil, err
	}
	events := []game.Event{
		roomEvent(ctx, c.Room, "throw", fmt.Sprintf("%s throws the %s %s.", c.Name, o.Name, match.Direction)),
		roomEvent(ctx, match.Exit.Destination, "land", fmt.Sprintf("A %s comes flying in and lands at your feet.", o.Name)),
	}
	return events, []string{fmt.Sprintf("You throw the %s %s.", o.Name, match.Direction)}, nil
})
