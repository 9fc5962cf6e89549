package game

import (
	"fmt"
	"strings"
)

// RequirementKind names a precondition type.
type RequirementKind string

const (
	RequireTag               RequirementKind = "character_has_tag"
	RequireObjectInRoom      RequirementKind = "object_in_room"
	RequireObjectProperty    RequirementKind = "object_property_equals"
	RequireObjectInInventory RequirementKind = "object_in_inventory"
	RequireExitVisible       RequirementKind = "exit_visible"
)

// Requirement is one declared precondition of an action. Object and exit
// references come from the named Parameter, falling back to the literal
// Object field.
type Requirement struct {
	Type      RequirementKind `json:"type"`
	Tag       string          `json:"tag,omitempty"`
	Parameter string          `json:"parameter,omitempty"`
	Object    string          `json:"object,omitempty"`
	Property  string          `json:"property,omitempty"`
	Value     any             `json:"value,omitempty"`
}

func (r Requirement) reference(params map[string]string) string {
	if r.Parameter != "" {
		return strings.TrimSpace(params[r.Parameter])
	}
	return strings.TrimSpace(r.Object)
}

// Evaluation is the outcome of checking an action's requirements. Exit is
// set when an exit requirement matched.
type Evaluation struct {
	OK      bool
	Message string
	Exit    *ExitMatch
}

func pass() Evaluation {
	return Evaluation{OK: true}
}

func fail(format string, args ...any) Evaluation {
	return Evaluation{Message: fmt.Sprintf(format, args...)}
}

// RequirementFunc checks one requirement kind. It must not mutate the world.
type RequirementFunc func(w *World, c *Character, req Requirement, params map[string]string) Evaluation

func defaultRequirements() map[RequirementKind]RequirementFunc {
	return map[RequirementKind]RequirementFunc{
		RequireTag:               requireTag,
		RequireObjectInRoom:      requireObjectInRoom,
		RequireObjectProperty:    requireObjectProperty,
		RequireObjectInInventory: requireObjectInInventory,
		RequireExitVisible:       requireExitVisible,
	}
}

// RegisterRequirement adds or replaces the checker for a requirement kind.
func (w *World) RegisterRequirement(kind RequirementKind, fn RequirementFunc) {
	if fn == nil {
		delete(w.requirements, kind)
		return
	}
	w.requirements[kind] = fn
}

// Evaluate checks the action's requirements in declared order and stops at
// the first failure. Unregistered kinds fail closed.
func (w *World) Evaluate(c *Character, action *ActionDefinition, params map[string]string) Evaluation {
	result := pass()
	for i, req := range action.Requirements {
		check, ok := w.requirements[req.Type]
		if !ok {
			w.logger.Warn("unknown requirement kind",
				"action", action.ID, "index", i, "kind", string(req.Type))
			return fail("Action '%s' cannot be performed right now.", action.ID)
		}
		ev := check(w, c, req, params)
		if !ev.OK {
			return ev
		}
		if ev.Exit != nil {
			result.Exit = ev.Exit
		}
	}
	return result
}

func requireTag(_ *World, c *Character, req Requirement, _ map[string]string) Evaluation {
	if c.Tags.Has(req.Tag) {
		return pass()
	}
	return fail("You need to be '%s' to do that.", req.Tag)
}

func requireObjectInRoom(w *World, c *Character, req Requirement, params map[string]string) Evaluation {
	ref := req.reference(params)
	if ref == "" {
		return fail("No object specified.")
	}
	if !w.RoomHasObject(c.Room, ref) {
		return fail("Object '%s' not in room.", ref)
	}
	return pass()
}

func requireObjectInInventory(w *World, c *Character, req Requirement, params map[string]string) Evaluation {
	ref := req.reference(params)
	if ref == "" {
		return fail("No object specified.")
	}
	if _, ok := w.FindInventoryObject(c, ref); !ok {
		return fail("You are not carrying '%s'.", ref)
	}
	return pass()
}

func requireObjectProperty(w *World, c *Character, req Requirement, params map[string]string) Evaluation {
	ref := req.reference(params)
	if ref == "" {
		return fail("No object specified.")
	}
	o, ok := w.ResolveObject(c, ref)
	if !ok {
		return fail("Object '%s' not found.", ref)
	}
	if !o.Properties.Equals(req.Property, req.Value) {
		return fail("The %s is not %s %v.", o.Name, req.Property, req.Value)
	}
	return pass()
}

func requireExitVisible(w *World, c *Character, req Requirement, params map[string]string) Evaluation {
	ref := req.reference(params)
	if ref == "" {
		return fail("No exit specified.")
	}
	match, ok := w.ResolveExit(c.Room, ref, false)
	if !ok {
		return fail("There is no exit '%s' here.", ref)
	}
	return Evaluation{OK: true, Exit: match}
}
