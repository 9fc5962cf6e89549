package commands

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"AgentClay/internal/game"
)

// Definition describes a single built-in binding's metadata.
type Definition struct {
	Name        string
	Aliases     []string
	Usage       string
	Description string
}

// Handler executes a binding. Events are queued for distribution after the
// action resolves; feedback goes to the acting character only.
type Handler func(*Context) ([]game.Event, []string, error)

// Command couples metadata with the executable handler.
type Command struct {
	Definition
	Handler Handler
}

// Context provides the runtime data available to a command handler.
type Context struct {
	*game.BindingContext
	Command *Command
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*Command)
	ordered    []*Command
)

// Define registers a new command using the provided definition and handler.
// It panics when metadata is incomplete or duplicates an existing command.
func Define(def Definition, handler Handler) *Command {
	if handler == nil {
		panic("commands: handler must not be nil")
	}
	if strings.TrimSpace(def.Name) == "" {
		panic("commands: command must have a name")
	}

	cmd := &Command{Definition: def, Handler: handler}

	registryMu.Lock()
	defer registryMu.Unlock()

	registerName := func(name string) {
		key := strings.ToLower(name)
		if _, exists := registry[key]; exists {
			panic(fmt.Sprintf("commands: duplicate registration for %q", name))
		}
		registry[key] = cmd
	}

	registerName(def.Name)
	for _, alias := range def.Aliases {
		if strings.TrimSpace(alias) == "" {
			continue
		}
		registerName(alias)
	}

	ordered = append(ordered, cmd)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Name < ordered[j].Name
	})

	return cmd
}

// All returns the registered commands sorted by primary name.
func All() []*Command {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]*Command, len(ordered))
	copy(out, ordered)
	return out
}

// Lookup finds a command by name or alias.
func Lookup(name string) (*Command, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	cmd, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return cmd, ok
}

// Registry exposes every command, under its name and each alias, as a code
// binding a world definition can reference.
func Registry() game.Bindings {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make(game.Bindings, len(registry))
	for name, cmd := range registry {
		out[name] = cmd.binding()
	}
	return out
}

func (c *Command) binding() game.BindingFunc {
	return func(bc *game.BindingContext) ([]game.Event, []string, error) {
		return c.Handler(&Context{BindingContext: bc, Command: c})
	}
}
