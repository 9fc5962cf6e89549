package commands

import "AgentClay/internal/game"

var Inventory = Define(Definition{
	Name:        "inventory",
	Aliases:     []string{"inv", "i"},
	Usage:       "inventory",
	Description: "list objects you are carrying",
}, func(ctx *Context) ([]game.Event, []string, error) {
	return nil, []string{ctx.World.DescribeInventory(ctx.Character)}, nil
})
