package game

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// RoomID identifies a room.
type RoomID string

// CharacterID identifies a character.
type CharacterID string

// ObjectID identifies a game object.
type ObjectID string

// Exit is a one-directional link out of a room.
type Exit struct {
	Destination RoomID   `json:"destination"`
	Name        string   `json:"name,omitempty"`
	Hidden      bool     `json:"hidden,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
}

// DisplayName returns the label players use for the exit.
func (e Exit) DisplayName(direction string) string {
	if name := strings.TrimSpace(e.Name); name != "" {
		return name
	}
	return direction
}

// ExitMatch is an exit resolved against a room, handed from the requirement
// check to the effects so they never re-resolve it.
type ExitMatch struct {
	Room      RoomID
	Direction string
	Exit      Exit
}

type Room struct {
	ID          RoomID
	Title       string
	Description string
	Exits       map[string]Exit
	Objects     map[ObjectID]*Object
	Tags        Tags
	Properties  Properties
}

// OwnerKind distinguishes object containers.
type OwnerKind string

const (
	OwnerRoom      OwnerKind = "room"
	OwnerCharacter OwnerKind = "character"
)

// Owner names the single container currently holding an object.
type Owner struct {
	Kind OwnerKind
	ID   string
}

// Object represents an item that can lie in rooms or be carried.
type Object struct {
	ID          ObjectID
	Name        string
	Description string
	Owner       Owner
	Tags        Tags
	Properties  Properties
}

// Status tracks whether a character still takes part in the session.
type Status string

const (
	StatusActive Status = "active"
	StatusQuit   Status = "quit"
)

// QuitSentinel is the action point value reported for characters that quit.
const QuitSentinel = -1

// Character is a player's avatar.
type Character struct {
	ID           CharacterID
	Name         string
	Room         RoomID
	Status       Status
	ActionPoints int
	// Budget overrides the session-wide action point budget when positive.
	Budget     int
	Inventory  map[ObjectID]*Object
	Tags       Tags
	Properties Properties
	Motive     string

	introduced bool
}

// Active reports whether the character still takes turns.
func (c *Character) Active() bool {
	return c != nil && c.Status != StatusQuit
}

// APDisplay reports the action point balance, using QuitSentinel for
// characters who have left the game.
func (c *Character) APDisplay() int {
	if !c.Active() {
		return QuitSentinel
	}
	return c.ActionPoints
}

var (
	// ErrObjectNotFound indicates a requested object could not be located.
	ErrObjectNotFound = errors.New("object not found")
	// ErrObjectNotCarried indicates the character is not carrying the object.
	ErrObjectNotCarried = errors.New("object not carried")
	// ErrUnknownRoom indicates a room id that is not part of the world.
	ErrUnknownRoom = errors.New("unknown room")
	// ErrUnknownCharacter indicates a character id that is not part of the world.
	ErrUnknownCharacter = errors.New("unknown character")
)

// World owns all mutable state of one session. It is driven by a single
// goroutine and performs no locking of its own.
type World struct {
	rooms          map[RoomID]*Room
	roomOrder      []RoomID
	characters     map[CharacterID]*Character
	characterOrder []CharacterID
	objects        map[ObjectID]*Object
	actions        map[string]*ActionDefinition
	actionOrder    []string
	settings       Settings
	requirements   map[RequirementKind]RequirementFunc
	bindings       BindingRegistry
	scripts        map[string]BindingFunc
	logger         *slog.Logger
}

// WorldOption customises world construction.
type WorldOption func(*World)

// WithBindings supplies the registry code_binding effects resolve against.
func WithBindings(registry BindingRegistry) WorldOption {
	return func(w *World) {
		w.bindings = registry
	}
}

// WithLogger sets the structured logger used for warnings.
func WithLogger(logger *slog.Logger) WorldOption {
	return func(w *World) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Settings returns the global session settings.
func (w *World) Settings() Settings {
	return w.settings
}

// Logger returns the world's logger.
func (w *World) Logger() *slog.Logger {
	return w.logger
}

func (w *World) Room(id RoomID) (*Room, bool) {
	r, ok := w.rooms[id]
	return r, ok
}

// Rooms returns every room in definition order.
func (w *World) Rooms() []*Room {
	out := make([]*Room, 0, len(w.roomOrder))
	for _, id := range w.roomOrder {
		out = append(out, w.rooms[id])
	}
	return out
}

func (w *World) Character(id CharacterID) (*Character, bool) {
	c, ok := w.characters[id]
	return c, ok
}

// Characters returns every character in definition order.
func (w *World) Characters() []*Character {
	out := make([]*Character, 0, len(w.characterOrder))
	for _, id := range w.characterOrder {
		out = append(out, w.characters[id])
	}
	return out
}

// ActiveCharacters returns the characters that have not quit.
func (w *World) ActiveCharacters() []*Character {
	out := make([]*Character, 0, len(w.characterOrder))
	for _, id := range w.characterOrder {
		if c := w.characters[id]; c.Active() {
			out = append(out, c)
		}
	}
	return out
}

// CharactersIn lists the active characters standing in the room.
func (w *World) CharactersIn(room RoomID) []*Character {
	var out []*Character
	for _, id := range w.characterOrder {
		c := w.characters[id]
		if c.Active() && c.Room == room {
			out = append(out, c)
		}
	}
	return out
}

// FindCharacter resolves a character by id or display name.
func (w *World) FindCharacter(ref string) (*Character, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, false
	}
	if c, ok := w.characters[CharacterID(ref)]; ok {
		return c, true
	}
	ids := make([]CharacterID, 0, len(w.characterOrder))
	names := make([]string, 0, len(w.characterOrder))
	for _, id := range w.characterOrder {
		ids = append(ids, id)
		names = append(names, w.characters[id].Name)
	}
	idx, ok := uniqueMatch(ref, names, false)
	if !ok {
		return nil, false
	}
	return w.characters[ids[idx]], true
}

func (w *World) Object(id ObjectID) (*Object, bool) {
	o, ok := w.objects[id]
	return o, ok
}

// Action returns the action definition with the given id.
func (w *World) Action(id string) (*ActionDefinition, bool) {
	a, ok := w.actions[strings.ToLower(strings.TrimSpace(id))]
	return a, ok
}

// Actions returns every action definition in definition order.
func (w *World) Actions() []*ActionDefinition {
	out := make([]*ActionDefinition, 0, len(w.actionOrder))
	for _, id := range w.actionOrder {
		out = append(out, w.actions[id])
	}
	return out
}

// AdjacentRooms lists the destinations of the room's exits, hidden ones
// included. Adjacency is directional.
func (w *World) AdjacentRooms(room RoomID) []RoomID {
	current, ok := w.rooms[room]
	if !ok {
		return nil
	}
	directions := sortedDirections(current.Exits)
	seen := make(map[RoomID]struct{}, len(directions))
	neighbors := make([]RoomID, 0, len(directions))
	for _, dir := range directions {
		next := current.Exits[dir].Destination
		if _, ok := seen[next]; ok {
			continue
		}
		seen[next] = struct{}{}
		neighbors = append(neighbors, next)
	}
	return neighbors
}

// ResolveExit matches a direction, display name or alias against the
// room's exits. Hidden exits are only considered when includeHidden is set.
func (w *World) ResolveExit(room RoomID, ref string, includeHidden bool) (*ExitMatch, bool) {
	target := strings.TrimSpace(ref)
	if target == "" {
		return nil, false
	}
	r, ok := w.rooms[room]
	if !ok || len(r.Exits) == 0 {
		return nil, false
	}
	var labels, owners []string
	for _, dir := range sortedDirections(r.Exits) {
		exit := r.Exits[dir]
		if exit.Hidden && !includeHidden {
			continue
		}
		labels = append(labels, dir)
		owners = append(owners, dir)
		if exit.Name != "" {
			labels = append(labels, exit.Name)
			owners = append(owners, dir)
		}
		for _, alias := range exit.Aliases {
			labels = append(labels, alias)
			owners = append(owners, dir)
		}
	}
	dir, ok := matchOwner(target, labels, owners)
	if !ok {
		return nil, false
	}
	return &ExitMatch{Room: room, Direction: dir, Exit: r.Exits[dir]}, true
}

// VisibleExits lists the non-hidden exit directions of a room, sorted.
func (w *World) VisibleExits(room RoomID) []string {
	r, ok := w.rooms[room]
	if !ok {
		return nil
	}
	var out []string
	for _, dir := range sortedDirections(r.Exits) {
		if !r.Exits[dir].Hidden {
			out = append(out, dir)
		}
	}
	return out
}

func sortedDirections(exits map[string]Exit) []string {
	keys := make([]string, 0, len(exits))
	for k := range exits {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedObjects(objects map[ObjectID]*Object) []*Object {
	out := make([]*Object, 0, len(objects))
	for _, o := range objects {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func findObject(objects map[ObjectID]*Object, ref string) (*Object, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, false
	}
	if o, ok := objects[ObjectID(ref)]; ok {
		return o, true
	}
	candidates := sortedObjects(objects)
	names := make([]string, len(candidates))
	for i, o := range candidates {
		names[i] = o.Name
	}
	idx, ok := uniqueMatch(ref, names, true)
	if !ok {
		return nil, false
	}
	return candidates[idx], true
}

// FindRoomObject locates an object lying in the room by id or name.
func (w *World) FindRoomObject(room RoomID, ref string) (*Object, bool) {
	r, ok := w.rooms[room]
	if !ok {
		return nil, false
	}
	return findObject(r.Objects, ref)
}

// RoomHasObject reports whether an object whose id or name equals ref,
// ignoring case, lies in the room. Unlike FindRoomObject it accepts no
// partial names.
func (w *World) RoomHasObject(room RoomID, ref string) bool {
	r, ok := w.rooms[room]
	if !ok {
		return false
	}
	want := fold(ref)
	if want == "" {
		return false
	}
	for _, o := range r.Objects {
		if fold(string(o.ID)) == want || fold(o.Name) == want {
			return true
		}
	}
	return false
}

// FindInventoryObject locates an object carried by the character.
func (w *World) FindInventoryObject(c *Character, ref string) (*Object, bool) {
	if c == nil {
		return nil, false
	}
	return findObject(c.Inventory, ref)
}

// ResolveObject checks the character's inventory before the current room.
func (w *World) ResolveObject(c *Character, ref string) (*Object, bool) {
	if o, ok := w.FindInventoryObject(c, ref); ok {
		return o, true
	}
	if c == nil {
		return nil, false
	}
	return w.FindRoomObject(c.Room, ref)
}

// relocateObject detaches the object from its current container before
// attaching it to the new one, so it never has two owners.
func (w *World) relocateObject(o *Object, to Owner) error {
	var dest map[ObjectID]*Object
	switch to.Kind {
	case OwnerRoom:
		r, ok := w.rooms[RoomID(to.ID)]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownRoom, to.ID)
		}
		dest = r.Objects
	case OwnerCharacter:
		c, ok := w.characters[CharacterID(to.ID)]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownCharacter, to.ID)
		}
		dest = c.Inventory
	default:
		return fmt.Errorf("unknown owner kind %q", to.Kind)
	}
	switch o.Owner.Kind {
	case OwnerRoom:
		if r, ok := w.rooms[RoomID(o.Owner.ID)]; ok {
			delete(r.Objects, o.ID)
		}
	case OwnerCharacter:
		if c, ok := w.characters[CharacterID(o.Owner.ID)]; ok {
			delete(c.Inventory, o.ID)
		}
	}
	dest[o.ID] = o
	o.Owner = to
	return nil
}

// TakeObject moves an object from the character's room into its inventory.
func (w *World) TakeObject(c *Character, ref string) (*Object, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, fmt.Errorf("object name must not be empty")
	}
	if _, ok := w.rooms[c.Room]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoom, c.Room)
	}
	o, ok := w.FindRoomObject(c.Room, ref)
	if !ok {
		return nil, ErrObjectNotFound
	}
	if err := w.relocateObject(o, Owner{Kind: OwnerCharacter, ID: string(c.ID)}); err != nil {
		return nil, err
	}
	return o, nil
}

// DropObject places a carried object into the character's current room.
func (w *World) DropObject(c *Character, ref string) (*Object, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, fmt.Errorf("object name must not be empty")
	}
	o, ok := w.FindInventoryObject(c, ref)
	if !ok {
		return nil, ErrObjectNotCarried
	}
	if err := w.relocateObject(o, Owner{Kind: OwnerRoom, ID: string(c.Room)}); err != nil {
		return nil, err
	}
	return o, nil
}

// GiveObject hands a carried object to another character.
func (w *World) GiveObject(from, to *Character, ref string) (*Object, error) {
	o, ok := w.FindInventoryObject(from, ref)
	if !ok {
		return nil, ErrObjectNotCarried
	}
	if err := w.relocateObject(o, Owner{Kind: OwnerCharacter, ID: string(to.ID)}); err != nil {
		return nil, err
	}
	return o, nil
}

// PlaceObject puts an object into a room regardless of where it was.
func (w *World) PlaceObject(o *Object, room RoomID) error {
	return w.relocateObject(o, Owner{Kind: OwnerRoom, ID: string(room)})
}

// MoveCharacter relocates a character to another room.
func (w *World) MoveCharacter(c *Character, room RoomID) error {
	if _, ok := w.rooms[room]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRoom, room)
	}
	c.Room = room
	return nil
}
