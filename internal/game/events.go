package game

import "log/slog"

// Scope selects which characters observe an event.
type Scope string

const (
	// ScopeAll reaches every active character.
	ScopeAll Scope = "all"
	// ScopeTargeted reaches only the event's Target.
	ScopeTargeted Scope = "targeted"
	// ScopeRoom reaches everyone in the source room except the Actor.
	ScopeRoom Scope = "room_characters"
	// ScopeRoomPlayers is an older spelling of ScopeRoom.
	ScopeRoomPlayers Scope = "room_players"
	// ScopeAdjacent reaches everyone in a room one exit away from the source.
	ScopeAdjacent Scope = "adjacent_rooms"
)

// Event is a fact to broadcast. Actor is the originator, Target the
// addressee of targeted events.
type Event struct {
	Type    string
	Message string
	Source  RoomID
	Actor   CharacterID
	Target  CharacterID
	Scopes  []Scope
}

func (e Event) has(scope Scope) bool {
	for _, s := range e.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

func (e Event) roomScoped() bool {
	return e.has(ScopeRoom) || e.has(ScopeRoomPlayers)
}

// Distributor fans queued events out to per-character observation queues.
type Distributor struct {
	world        *World
	queue        []Event
	observations map[CharacterID][]Event
	logger       *slog.Logger
}

func NewDistributor(world *World) *Distributor {
	return &Distributor{
		world:        world,
		observations: make(map[CharacterID][]Event),
		logger:       world.logger,
	}
}

// Enqueue appends events to the FIFO queue.
func (d *Distributor) Enqueue(events ...Event) {
	d.queue = append(d.queue, events...)
}

// Pending reports how many events await distribution.
func (d *Distributor) Pending() int {
	return len(d.queue)
}

// Distribute delivers every queued event, in enqueue order, to the
// characters its scopes select, then clears the queue. It returns the events
// it processed. An empty queue is a no-op.
func (d *Distributor) Distribute() []Event {
	if len(d.queue) == 0 {
		return nil
	}
	batch := d.queue
	d.queue = nil

	characters := d.world.ActiveCharacters()
	for _, ev := range batch {
		_, roomKnown := d.world.Room(ev.Source)
		var adjacent map[RoomID]struct{}
		if roomKnown && ev.has(ScopeAdjacent) {
			adjacent = make(map[RoomID]struct{})
			for _, id := range d.world.AdjacentRooms(ev.Source) {
				adjacent[id] = struct{}{}
			}
		}
		if !roomKnown && (ev.roomScoped() || ev.has(ScopeAdjacent)) {
			d.logger.Warn("event source room unknown, skipping room scopes",
				"type", ev.Type, "room", string(ev.Source))
		}
		for _, c := range characters {
			if observes(c, ev, roomKnown, adjacent) {
				d.observations[c.ID] = append(d.observations[c.ID], ev)
			}
		}
	}
	return batch
}

func observes(c *Character, ev Event, roomKnown bool, adjacent map[RoomID]struct{}) bool {
	for _, scope := range ev.Scopes {
		switch scope {
		case ScopeAll:
			return true
		case ScopeTargeted:
			if ev.Target != "" && c.ID == ev.Target {
				return true
			}
		case ScopeRoom, ScopeRoomPlayers:
			if roomKnown && c.Room == ev.Source && c.ID != ev.Actor {
				return true
			}
		case ScopeAdjacent:
			if _, ok := adjacent[c.Room]; ok {
				return true
			}
		}
	}
	return false
}

// Observations returns the character's pending observations without
// clearing them.
func (d *Distributor) Observations(id CharacterID) []Event {
	return append([]Event(nil), d.observations[id]...)
}

// Drain returns and clears the character's observation queue.
func (d *Distributor) Drain(id CharacterID) []Event {
	out := d.observations[id]
	delete(d.observations, id)
	return out
}
