package commands

import (
	"fmt"

	"AgentClay/internal/game"
)

var Look = Define(Definition{
	Name:        "look",
	Aliases:     []string{"l"},
	Usage:       "look [target]",
	Description: "describe your surroundings or inspect a target",
}, func(ctx *Context) ([]game.Event, []string, error) {
	c := ctx.Character
	target := arg(ctx, "target", "object", "exit")
	if target == "" {
		return nil, []string{ctx.World.Describe(c)}, nil
	}
	if other, ok := ctx.World.FindCharacter(target); ok && other.Active() && other.Room == c.Room {
		return nil, []string{fmt.Sprintf("%s stands here.", other.Name)}, nil
	}
	if o, ok := ctx.World.FindRoomObject(c.Room, target); ok {
		return nil, []string{fmt.Sprintf("You study the %s. %s", o.Name, describeObject(o))}, nil
	}
	if match, ok := ctx.World.ResolveExit(c.Room, target, false); ok {
		message := fmt.Sprintf("Looking %s you glimpse a passage.", match.Direction)
		if next, ok := ctx.World.Room(match.Exit.Destination); ok {
			message = fmt.Sprintf("Looking %s you glimpse %s.", match.Direction, next.Title)
			if next.Description != "" {
				message += " " + next.Description
			}
		}
		return nil, []string{message}, nil
	}
	return nil, nil, errNotHere
})
