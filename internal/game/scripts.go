package game

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// scriptCall is the state a running script writes into through the
// functions exposed in its payload.
type scriptCall struct {
	ctx      *BindingContext
	events   []Event
	feedback []string
	err      error
}

func (s *scriptCall) emit(message, scope string) {
	cleaned := strings.TrimSpace(message)
	if cleaned == "" {
		return
	}
	if strings.TrimSpace(scope) == "" {
		scope = string(ScopeRoom)
	}
	s.events = append(s.events, Event{
		Type:    s.ctx.Action.ID,
		Message: cleaned,
		Source:  s.ctx.Character.Room,
		Actor:   s.ctx.Character.ID,
		Scopes:  []Scope{Scope(scope)},
	})
}

func (s *scriptCall) tell(target, message string) {
	cleaned := strings.TrimSpace(message)
	if cleaned == "" {
		return
	}
	c, ok := s.ctx.World.FindCharacter(target)
	if !ok {
		return
	}
	s.events = append(s.events, Event{
		Type:    s.ctx.Action.ID,
		Message: cleaned,
		Source:  s.ctx.Character.Room,
		Actor:   s.ctx.Character.ID,
		Target:  c.ID,
		Scopes:  []Scope{ScopeTargeted},
	})
}

func (s *scriptCall) payload() map[string]any {
	c := s.ctx.Character
	params := make(map[string]string, len(s.ctx.Params))
	for k, v := range s.ctx.Params {
		params[k] = v
	}
	return map[string]any{
		"actor":    c.Name,
		"actor_id": string(c.ID),
		"room":     string(c.Room),
		"action":   s.ctx.Action.ID,
		"params":   params,
		"tags":     c.Tags.Sorted(),
		"feedback": func(text string) {
			if cleaned := strings.TrimSpace(text); cleaned != "" {
				s.feedback = append(s.feedback, cleaned)
			}
		},
		"emit": func(message, scope string) {
			s.emit(message, scope)
		},
		"tell": func(target, message string) {
			s.tell(target, message)
		},
		"tag": func(tag string) {
			c.Tags.Add(tag)
		},
		"untag": func(tag string) {
			c.Tags.Remove(tag)
		},
		"set": func(key, value string) {
			c.Properties[key] = value
		},
		"fail": func(reason string) {
			s.err = errors.New(strings.TrimSpace(reason))
		},
	}
}

// compileScripts turns world-defined script sources into bindings. Each
// source must declare `func Run(ctx map[string]any)`.
func compileScripts(sources map[string]string) (map[string]BindingFunc, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]BindingFunc, len(sources))
	for _, name := range names {
		run, err := compileScript(sources[name])
		if err != nil {
			return nil, fmt.Errorf("script %s: %w", name, err)
		}
		out[name] = scriptBinding(run)
	}
	return out, nil
}

func compileScript(source string) (func(map[string]any), error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return nil, errors.New("empty source")
	}
	interpreter := interp.New(interp.Options{})
	if err := interpreter.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("load stdlib: %w", err)
	}
	if _, err := interpreter.Eval(trimmed); err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	value, err := interpreter.Eval("Run")
	if err != nil {
		return nil, fmt.Errorf("Run: %w", err)
	}
	fn, ok := value.Interface().(func(map[string]any))
	if !ok {
		return nil, fmt.Errorf("Run has unexpected type %T", value.Interface())
	}
	return fn, nil
}

func scriptBinding(run func(map[string]any)) BindingFunc {
	return func(ctx *BindingContext) ([]Event, []string, error) {
		call := &scriptCall{ctx: ctx}
		run(call.payload())
		return call.events, call.feedback, call.err
	}
}
