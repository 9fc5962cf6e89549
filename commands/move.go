package commands

import (
	"fmt"

	"AgentClay/internal/game"
)

var Move = Define(Definition{
	Name:        "move",
	Aliases:     []string{"go", "walk"},
	Usage:       "move <exit>",
	Description: "walk through an exit",
}, func(ctx *Context) ([]game.Event, []string, error) {
	match, err := exitFor(ctx, "exit", "direction")
	if err != nil {
		return nil, nil, err
	}
	c := ctx.Character
	from := c.Room
	if err := ctx.World.MoveCharacter(c, match.Exit.Destination); err != nil {
		return nil, nil, err
	}
	label := match.Exit.DisplayName(match.Direction)
	events := []game.Event{
		roomEvent(ctx, from, "leave", fmt.Sprintf("%s leaves through the %s.", c.Name, label)),
		roomEvent(ctx, c.Room, "arrive", fmt.Sprintf("%s arrives.", c.Name)),
	}
	return events, []string{fmt.Sprintf("You go %s.", match.Direction), ctx.World.Describe(c)}, nil
})
