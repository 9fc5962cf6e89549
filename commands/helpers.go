package commands

import (
	"errors"
	"fmt"
	"strings"

	"AgentClay/internal/game"
)

var (
	errNothingNamed = errors.New("nothing was named")
	errNotHere      = errors.New("you don't see that here")
	errNotCarried   = errors.New("you aren't carrying that")
	errNoSuchExit   = errors.New("there is no such exit here")
)

// arg returns the first non-empty parameter among names.
func arg(ctx *Context, names ...string) string {
	for _, name := range names {
		if v := ctx.Param(name); v != "" {
			return v
		}
	}
	return ""
}

func roomEvent(ctx *Context, room game.RoomID, kind, message string) game.Event {
	return game.Event{
		Type:    kind,
		Message: message,
		Source:  room,
		Actor:   ctx.Character.ID,
		Scopes:  []game.Scope{game.ScopeRoom},
	}
}

// exitFor prefers the exit an exit_visible requirement already matched and
// otherwise resolves the named exit among the visible ones.
func exitFor(ctx *Context, names ...string) (*game.ExitMatch, error) {
	if ctx.Exit != nil && ctx.Exit.Room == ctx.Character.Room {
		return ctx.Exit, nil
	}
	ref := arg(ctx, names...)
	if ref == "" {
		return nil, errNothingNamed
	}
	match, ok := ctx.World.ResolveExit(ctx.Character.Room, ref, false)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errNoSuchExit, ref)
	}
	return match, nil
}

func describeObject(o *game.Object) string {
	desc := strings.TrimSpace(o.Description)
	if desc == "" {
		desc = "You see nothing special."
	}
	return desc
}
