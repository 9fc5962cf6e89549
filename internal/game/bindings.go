package game

import "strings"

// BindingContext is what a code_binding handler sees.
type BindingContext struct {
	World     *World
	Character *Character
	Action    *ActionDefinition
	Params    map[string]string
	// Exit is the exit matched by an exit_visible requirement, if any.
	Exit *ExitMatch
}

// Param returns a trimmed parameter value.
func (c *BindingContext) Param(name string) string {
	return strings.TrimSpace(c.Params[name])
}

// Room returns the acting character's current room.
func (c *BindingContext) Room() *Room {
	r, _ := c.World.Room(c.Character.Room)
	return r
}

// BindingFunc is a named effect handler. Returned events are queued for
// distribution and feedback lines go to the acting character.
type BindingFunc func(ctx *BindingContext) ([]Event, []string, error)

// BindingRegistry resolves binding names when a world is built.
type BindingRegistry interface {
	Binding(name string) (BindingFunc, bool)
}

// Bindings is a map-backed BindingRegistry.
type Bindings map[string]BindingFunc

func (b Bindings) Binding(name string) (BindingFunc, bool) {
	fn, ok := b[name]
	return fn, ok
}
