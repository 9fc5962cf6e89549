package commands

import (
	"fmt"
	"strings"

	"AgentClay/internal/game"
)

var Examine = Define(Definition{
	Name:        "examine",
	Aliases:     []string{"exa", "inspect"},
	Usage:       "examine <object>",
	Description: "inspect an object you carry or can see",
}, func(ctx *Context) ([]game.Event, []string, error) {
	target := arg(ctx, "object", "item", "target")
	if target == "" {
		return nil, nil, errNothingNamed
	}
	o, ok := ctx.World.ResolveObject(ctx.Character, target)
	if !ok {
		return nil, nil, errNotHere
	}
	line := fmt.Sprintf("You examine the %s. %s", o.Name, describeObject(o))
	if tags := o.Tags.Sorted(); len(tags) > 0 {
		line += fmt.Sprintf(" It is %s.", strings.Join(tags, ", "))
	}
	return nil, []string{line}, nil
})
