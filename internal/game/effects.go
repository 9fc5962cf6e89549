package game

import (
	"fmt"
	"sort"
	"strings"
)

// EffectKind names a state mutation or emission.
type EffectKind string

const (
	EffectAddTag        EffectKind = "add_tag"
	EffectRemoveTag     EffectKind = "remove_tag"
	EffectSetProperty   EffectKind = "set_property"
	EffectGenerateEvent EffectKind = "generate_event"
	EffectCodeBinding   EffectKind = "code_binding"
)

// TargetType selects what an effect mutates.
type TargetType string

const (
	TargetCharacter TargetType = "character"
	TargetRoom      TargetType = "room"
	TargetObject    TargetType = "object"
)

// Effect is one declared consequence of an action.
type Effect struct {
	Type            EffectKind `json:"type"`
	TargetType      TargetType `json:"target_type,omitempty"`
	TargetID        string     `json:"target_id,omitempty"`
	TargetParameter string     `json:"target_parameter,omitempty"`
	Tag             string     `json:"tag,omitempty"`
	Property        string     `json:"property,omitempty"`
	Value           any        `json:"value,omitempty"`
	Message         string     `json:"message,omitempty"`
	EventType       string     `json:"event_type,omitempty"`
	Scopes          []Scope    `json:"scopes,omitempty"`
	Binding         string     `json:"binding,omitempty"`

	handler BindingFunc
}

type effectTarget struct {
	label      string
	tags       Tags
	properties Properties
}

// Apply runs the action's effects in order against the world. It assumes
// the requirements already passed and never re-checks them. A failing effect
// is reported as feedback and the remaining effects still run.
func (w *World) Apply(c *Character, action *ActionDefinition, params map[string]string, ev Evaluation) ([]Event, []string) {
	var events []Event
	var feedback []string
	for i, eff := range action.Effects {
		switch eff.Type {
		case EffectAddTag, EffectRemoveTag:
			target, err := w.resolveTarget(c, eff, params)
			if err != nil {
				w.logger.Warn("effect target unresolved", "action", action.ID, "index", i, "err", err)
				continue
			}
			tag := strings.TrimSpace(eff.Tag)
			if tag == "" {
				w.logger.Warn("tag effect without a tag", "action", action.ID, "index", i)
				continue
			}
			switch {
			case eff.Type == EffectAddTag && target.tags.Add(tag):
				feedback = append(feedback, fmt.Sprintf("%s is now %s.", target.label, tag))
			case eff.Type == EffectAddTag:
				feedback = append(feedback, fmt.Sprintf("%s is already %s.", target.label, tag))
			case target.tags.Remove(tag):
				feedback = append(feedback, fmt.Sprintf("%s is no longer %s.", target.label, tag))
			default:
				feedback = append(feedback, fmt.Sprintf("%s was not %s.", target.label, tag))
			}
		case EffectSetProperty:
			target, err := w.resolveTarget(c, eff, params)
			if err != nil {
				w.logger.Warn("effect target unresolved", "action", action.ID, "index", i, "err", err)
				continue
			}
			value := eff.Value
			if s, ok := value.(string); ok {
				value = interpolate(s, c, params)
			}
			target.properties[eff.Property] = value
		case EffectGenerateEvent:
			msg := interpolate(eff.Message, c, params)
			events = append(events, w.newEvent(c, action, eff, msg, params))
			feedback = append(feedback, msg)
		case EffectCodeBinding:
			evs, fb := w.runBinding(c, action, eff, params, ev.Exit)
			events = append(events, evs...)
			feedback = append(feedback, fb...)
		default:
			w.logger.Warn("unknown effect kind", "action", action.ID, "index", i, "kind", string(eff.Type))
		}
	}
	return events, feedback
}

func (w *World) newEvent(c *Character, action *ActionDefinition, eff Effect, msg string, params map[string]string) Event {
	eventType := eff.EventType
	if eventType == "" {
		eventType = action.ID
	}
	scopes := eff.Scopes
	if len(scopes) == 0 {
		scopes = []Scope{ScopeRoom}
	}
	ev := Event{
		Type:    eventType,
		Message: msg,
		Source:  c.Room,
		Actor:   c.ID,
		Scopes:  append([]Scope(nil), scopes...),
	}
	addressee := eff.TargetParameter
	if addressee == "" {
		addressee = "target"
	}
	if ref := strings.TrimSpace(params[addressee]); ref != "" {
		if target, ok := w.FindCharacter(ref); ok {
			ev.Target = target.ID
		}
	}
	return ev
}

func (w *World) runBinding(c *Character, action *ActionDefinition, eff Effect, params map[string]string, exit *ExitMatch) (events []Event, feedback []string) {
	if eff.handler == nil {
		w.logger.Warn("code binding not resolved", "action", action.ID, "binding", eff.Binding)
		return nil, []string{fmt.Sprintf("Something went wrong while performing %s.", action.ID)}
	}
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("code binding panicked", "action", action.ID, "binding", eff.Binding, "panic", r)
			events = nil
			feedback = []string{fmt.Sprintf("Something went wrong while performing %s.", action.ID)}
		}
	}()
	ctx := &BindingContext{World: w, Character: c, Action: action, Params: params, Exit: exit}
	evs, fb, err := eff.handler(ctx)
	if err != nil {
		w.logger.Warn("code binding failed", "action", action.ID, "binding", eff.Binding, "err", err)
		return evs, append(fb, fmt.Sprintf("Your attempt to %s failed: %v", action.ID, err))
	}
	return evs, fb
}

func (w *World) resolveTarget(c *Character, eff Effect, params map[string]string) (effectTarget, error) {
	switch eff.TargetType {
	case TargetCharacter, "":
		return effectTarget{label: c.Name, tags: c.Tags, properties: c.Properties}, nil
	case TargetRoom:
		id := RoomID(eff.TargetID)
		if id == "" {
			id = c.Room
		}
		r, ok := w.rooms[id]
		if !ok {
			return effectTarget{}, fmt.Errorf("%w: %s", ErrUnknownRoom, id)
		}
		label := r.Title
		if label == "" {
			label = string(r.ID)
		}
		return effectTarget{label: label, tags: r.Tags, properties: r.Properties}, nil
	case TargetObject:
		ref := eff.TargetID
		if ref == "" {
			param := eff.TargetParameter
			if param == "" {
				param = "object"
			}
			ref = params[param]
		}
		o, ok := w.ResolveObject(c, ref)
		if !ok {
			return effectTarget{}, fmt.Errorf("%w: %q", ErrObjectNotFound, ref)
		}
		return effectTarget{label: "The " + o.Name, tags: o.Tags, properties: o.Properties}, nil
	default:
		return effectTarget{}, fmt.Errorf("unknown target type %q", eff.TargetType)
	}
}

// interpolate fills {actor}, {actor_id} and {<parameter>} placeholders.
func interpolate(template string, c *Character, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, 4+2*len(keys))
	pairs = append(pairs, "{actor}", c.Name, "{actor_id}", string(c.ID))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", params[k])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
