package commands

import (
	"errors"
	"fmt"

	"AgentClay/internal/game"
)

var errRecipientAbsent = errors.New("they are not here")

var Give = Define(Definition{
	Name:        "give",
	Aliases:     []string{"hand"},
	Usage:       "give <object> <character>",
	Description: "hand a carried object to someone in the same room",
}, func(ctx *Context) ([]game.Event, []string, error) {
	item := arg(ctx, "object", "item")
	who := arg(ctx, "target", "character", "recipient")
	if item == "" || who == "" {
		return nil, nil, errNothingNamed
	}
	c := ctx.Character
	recipient, ok := ctx.World.FindCharacter(who)
	if !ok || !recipient.Active() || recipient.Room != c.Room || recipient.ID == c.ID {
		return nil, nil, errRecipientAbsent
	}
	o, err := ctx.World.GiveObject(c, recipient, item)
	switch {
	case errors.Is(err, game.ErrObjectNotCarried):
		return nil, nil, errNotCarried
	case err != nil:
		return nil, nil, err
	}
	events := []game.Event{
		{
			Type:    "give",
			Message: fmt.Sprintf("%s gives you the %s.", c.Name, o.Name),
			Source:  c.Room,
			Actor:   c.ID,
			Target:  recipient.ID,
			Scopes:  []game.Scope{game.ScopeTargeted},
		},
	}
	return events, []string{fmt.Sprintf("You give the %s to %s.", o.Name, recipient.Name)}, nil
})
