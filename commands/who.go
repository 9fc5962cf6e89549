package commands

import (
	"strings"

	"AgentClay/internal/game"
)

var Who = Define(Definition{
	Name:        "who",
	Usage:       "who",
	Description: "list the characters still in the game",
}, func(ctx *Context) ([]game.Event, []string, error) {
	var others []string
	for _, c := range ctx.World.ActiveCharacters() {
		if c.ID != ctx.Character.ID {
			others = append(others, c.Name)
		}
	}
	if len(others) == 0 {
		return nil, []string{"You are the only one left in the game."}, nil
	}
	return nil, []string{"Still playing: " + strings.Join(others, ", ")}, nil
})
