package commands

import (
	"fmt"
	"strings"

	"AgentClay/internal/game"
)

var Help = Define(Definition{
	Name:        "help",
	Aliases:     []string{"?"},
	Usage:       "help",
	Description: "list the actions of this world",
}, func(ctx *Context) ([]game.Event, []string, error) {
	return nil, []string{helpMessage("Available actions:", ctx.World.Actions())}, nil
})

func helpMessage(title string, actions []*game.ActionDefinition) string {
	var builder strings.Builder
	builder.WriteString(title)
	for _, a := range actions {
		desc := a.Description
		if strings.TrimSpace(desc) == "" {
			desc = a.ID
		}
		builder.WriteString(fmt.Sprintf("\n  %-24s (%d AP) %s", a.Usage(), a.Cost, desc))
	}
	return builder.String()
}
