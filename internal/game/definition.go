package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/samber/oops"
)

// DefaultActionPoints is the per-round budget when the definition sets none.
const DefaultActionPoints = 10

// DefaultRounds is the round count when the definition sets none.
const DefaultRounds = 10

var (
	// ErrUnknownBinding indicates a code_binding effect names no registered
	// handler or script.
	ErrUnknownBinding = errors.New("unknown code binding")
	// ErrInvalidDefinition indicates a structurally broken world definition.
	ErrInvalidDefinition = errors.New("invalid world definition")
)

// Hint is a scripted message broadcast to everyone at the start of a round.
type Hint struct {
	Round   int    `json:"round"`
	Message string `json:"message"`
}

// Settings are the global knobs of a session.
type Settings struct {
	Rounds       int    `json:"rounds,omitempty"`
	ActionPoints int    `json:"action_points,omitempty"`
	Rules        string `json:"rules,omitempty"`
	Hints        []Hint `json:"hints,omitempty"`
}

// ParameterSpec declares one parameter an action accepts.
type ParameterSpec struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Optional    bool   `json:"optional,omitempty"`
}

// ActionDefinition is a declarative verb. It is immutable once the world is
// built.
type ActionDefinition struct {
	ID           string          `json:"id"`
	Cost         int             `json:"cost"`
	Description  string          `json:"description,omitempty"`
	Aliases      []string        `json:"aliases,omitempty"`
	Parameters   []ParameterSpec `json:"parameters,omitempty"`
	Requirements []Requirement   `json:"requirements,omitempty"`
	Effects      []Effect        `json:"effects,omitempty"`
}

type RoomDefinition struct {
	ID          RoomID          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Exits       map[string]Exit `json:"exits,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Properties  map[string]any  `json:"properties,omitempty"`
}

// ObjectDefinition places an object. Location names a room id or a
// character id.
type ObjectDefinition struct {
	ID          ObjectID       `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Location    string         `json:"location"`
	Tags        []string       `json:"tags,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
}

type CharacterDefinition struct {
	ID           CharacterID    `json:"id"`
	Name         string         `json:"name"`
	Room         RoomID         `json:"room"`
	ActionPoints int            `json:"action_points,omitempty"`
	Motive       string         `json:"motive,omitempty"`
	Tags         []string       `json:"tags,omitempty"`
	Properties   map[string]any `json:"properties,omitempty"`
}

// WorldDefinition is the validated, fully merged document a session starts
// from. Scripts maps binding names to yaegi sources exposing
// `func Run(ctx map[string]any)`.
type WorldDefinition struct {
	Settings   Settings              `json:"settings"`
	Actions    []ActionDefinition    `json:"actions"`
	Rooms      []RoomDefinition      `json:"rooms"`
	Objects    []ObjectDefinition    `json:"objects,omitempty"`
	Characters []CharacterDefinition `json:"characters"`
	Scripts    map[string]string     `json:"scripts,omitempty"`
}

// LoadDefinition reads a world definition from a JSON file.
func LoadDefinition(path string) (*WorldDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read world %s: %w", path, err)
	}
	defer f.Close()
	def, err := DecodeDefinition(f)
	if err != nil {
		return nil, fmt.Errorf("decode world %s: %w", path, err)
	}
	return def, nil
}

// DecodeDefinition decodes a world definition from JSON.
func DecodeDefinition(r io.Reader) (*WorldDefinition, error) {
	var def WorldDefinition
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

// NewWorld builds the mutable world state for one session. Every
// code_binding effect is resolved here, so a missing handler is a load error
// rather than a failure in the middle of play.
func NewWorld(def *WorldDefinition, opts ...WorldOption) (*World, error) {
	if def == nil {
		return nil, oops.In("world").Code("configuration_defect").Wrapf(ErrInvalidDefinition, "definition is nil")
	}
	w := &World{
		rooms:        make(map[RoomID]*Room, len(def.Rooms)),
		characters:   make(map[CharacterID]*Character, len(def.Characters)),
		objects:      make(map[ObjectID]*Object, len(def.Objects)),
		actions:      make(map[string]*ActionDefinition, len(def.Actions)),
		settings:     def.Settings,
		requirements: defaultRequirements(),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.settings.Rounds <= 0 {
		w.settings.Rounds = DefaultRounds
	}
	if w.settings.ActionPoints <= 0 {
		w.settings.ActionPoints = DefaultActionPoints
	}

	if err := w.loadRooms(def.Rooms); err != nil {
		return nil, err
	}
	if err := w.loadCharacters(def.Characters); err != nil {
		return nil, err
	}
	if err := w.loadObjects(def.Objects); err != nil {
		return nil, err
	}
	scripts, err := compileScripts(def.Scripts)
	if err != nil {
		return nil, oops.In("world").Code("configuration_defect").Wrapf(err, "compile scripts")
	}
	w.scripts = scripts
	if err := w.loadActions(def.Actions); err != nil {
		return nil, err
	}
	return w, nil
}

func invalid(format string, args ...any) error {
	return oops.In("world").Code("configuration_defect").Wrapf(ErrInvalidDefinition, format, args...)
}

func (w *World) loadRooms(defs []RoomDefinition) error {
	if len(defs) == 0 {
		return invalid("no rooms defined")
	}
	for _, rd := range defs {
		if rd.ID == "" {
			return invalid("room without an id")
		}
		if _, exists := w.rooms[rd.ID]; exists {
			return invalid("duplicate room id %s", rd.ID)
		}
		exits := make(map[string]Exit, len(rd.Exits))
		for dir, exit := range rd.Exits {
			exits[dir] = exit
		}
		w.rooms[rd.ID] = &Room{
			ID:          rd.ID,
			Title:       rd.Title,
			Description: rd.Description,
			Exits:       exits,
			Objects:     make(map[ObjectID]*Object),
			Tags:        NewTags(rd.Tags...),
			Properties:  cloneProperties(rd.Properties),
		}
		w.roomOrder = append(w.roomOrder, rd.ID)
	}
	for _, id := range w.roomOrder {
		for dir, exit := range w.rooms[id].Exits {
			if _, ok := w.rooms[exit.Destination]; !ok {
				return invalid("room %s exit %s leads to unknown room %s", id, dir, exit.Destination)
			}
		}
	}
	return nil
}

func (w *World) loadCharacters(defs []CharacterDefinition) error {
	for _, cd := range defs {
		if cd.ID == "" {
			return invalid("character without an id")
		}
		if _, exists := w.characters[cd.ID]; exists {
			return invalid("duplicate character id %s", cd.ID)
		}
		if _, ok := w.rooms[cd.Room]; !ok {
			return invalid("character %s starts in unknown room %s", cd.ID, cd.Room)
		}
		name := strings.TrimSpace(cd.Name)
		if name == "" {
			name = string(cd.ID)
		}
		w.characters[cd.ID] = &Character{
			ID:         cd.ID,
			Name:       name,
			Room:       cd.Room,
			Status:     StatusActive,
			Budget:     cd.ActionPoints,
			Inventory:  make(map[ObjectID]*Object),
			Tags:       NewTags(cd.Tags...),
			Properties: cloneProperties(cd.Properties),
			Motive:     cd.Motive,
		}
		w.characterOrder = append(w.characterOrder, cd.ID)
	}
	return nil
}

func (w *World) loadObjects(defs []ObjectDefinition) error {
	for _, od := range defs {
		if od.ID == "" {
			return invalid("object without an id")
		}
		if _, exists := w.objects[od.ID]; exists {
			return invalid("duplicate object id %s", od.ID)
		}
		o := &Object{
			ID:          od.ID,
			Name:        od.Name,
			Description: od.Description,
			Tags:        NewTags(od.Tags...),
			Properties:  cloneProperties(od.Properties),
		}
		if o.Name == "" {
			o.Name = string(od.ID)
		}
		switch {
		case w.rooms[RoomID(od.Location)] != nil:
			o.Owner = Owner{Kind: OwnerRoom, ID: od.Location}
			w.rooms[RoomID(od.Location)].Objects[o.ID] = o
		case w.characters[CharacterID(od.Location)] != nil:
			o.Owner = Owner{Kind: OwnerCharacter, ID: od.Location}
			w.characters[CharacterID(od.Location)].Inventory[o.ID] = o
		default:
			return invalid("object %s placed in unknown location %q", od.ID, od.Location)
		}
		w.objects[o.ID] = o
	}
	return nil
}

func (w *World) loadActions(defs []ActionDefinition) error {
	for i := range defs {
		action := defs[i]
		id := strings.ToLower(strings.TrimSpace(action.ID))
		if id == "" {
			return invalid("action without an id")
		}
		if _, exists := w.actions[id]; exists {
			return invalid("duplicate action id %s", id)
		}
		if action.Cost < 0 {
			return invalid("action %s has negative cost", id)
		}
		action.ID = id
		action.Requirements = append([]Requirement(nil), action.Requirements...)
		action.Effects = append([]Effect(nil), action.Effects...)
		for j := range action.Effects {
			eff := &action.Effects[j]
			if eff.Type != EffectCodeBinding {
				continue
			}
			handler, err := w.resolveBinding(eff.Binding)
			if err != nil {
				return oops.In("world").Code("configuration_defect").Wrapf(err, "action %s effect %d", id, j)
			}
			eff.handler = handler
		}
		w.actions[id] = &action
		w.actionOrder = append(w.actionOrder, id)
	}
	return nil
}

func (w *World) resolveBinding(name string) (BindingFunc, error) {
	key := strings.TrimSpace(name)
	if key == "" {
		return nil, fmt.Errorf("%w: empty binding name", ErrUnknownBinding)
	}
	if fn, ok := w.scripts[key]; ok {
		return fn, nil
	}
	if w.bindings != nil {
		if fn, ok := w.bindings.Binding(key); ok && fn != nil {
			return fn, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownBinding, key)
}
