package game

import (
	"reflect"
	"sort"
	"testing"
)

func observers(d *Distributor, w *World) []CharacterID {
	var out []CharacterID
	for _, c := range w.Characters() {
		if len(d.Observations(c.ID)) > 0 {
			out = append(out, c.ID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestDistributeScopes(t *testing.T) {
	cases := []struct {
		name  string
		event Event
		want  []CharacterID
	}{
		{"all", Event{Source: "hall", Actor: "alice", Scopes: []Scope{ScopeAll}},
			[]CharacterID{"alice", "bob", "carol", "dave", "erin"}},
		{"room characters exclude actor", Event{Source: "hall", Actor: "alice", Scopes: []Scope{ScopeRoom}},
			[]CharacterID{"bob"}},
		{"room players exclude actor", Event{Source: "hall", Actor: "alice", Scopes: []Scope{ScopeRoomPlayers}},
			[]CharacterID{"bob"}},
		{"targeted", Event{Source: "hall", Actor: "alice", Target: "carol", Scopes: []Scope{ScopeTargeted}},
			[]CharacterID{"carol"}},
		{"adjacent follows exits out of the source", Event{Source: "hall", Actor: "alice", Scopes: []Scope{ScopeAdjacent}},
			[]CharacterID{"carol", "erin"}},
		{"adjacent from the garden", Event{Source: "garden", Actor: "dave", Scopes: []Scope{ScopeAdjacent}},
			[]CharacterID{"alice", "bob"}},
		{"union delivers once", Event{Source: "hall", Actor: "alice", Target: "bob", Scopes: []Scope{ScopeRoom, ScopeTargeted, ScopeAdjacent}},
			[]CharacterID{"bob", "carol", "erin"}},
		{"unknown room skips room scopes", Event{Source: "void", Actor: "alice", Target: "dave", Scopes: []Scope{ScopeRoom, ScopeAdjacent, ScopeTargeted}},
			[]CharacterID{"dave"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := newTestWorld(t)
			d := NewDistributor(w)
			d.Enqueue(tc.event)
			d.Distribute()
			if got := observers(d, w); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("observers = %v, want %v", got, tc.want)
			}
			for _, id := range tc.want {
				if n := len(d.Observations(id)); n != 1 {
					t.Fatalf("%s observed %d times", id, n)
				}
			}
		})
	}
}

func TestDistributePreservesOrderAndClearsQueue(t *testing.T) {
	w := newTestWorld(t)
	d := NewDistributor(w)
	if got := d.Distribute(); got != nil {
		t.Fatalf("empty distribute returned %v", got)
	}

	d.Enqueue(
		Event{Message: "first", Source: "hall", Actor: "alice", Scopes: []Scope{ScopeRoom}},
		Event{Message: "second", Source: "hall", Actor: "alice", Scopes: []Scope{ScopeRoom}},
	)
	if d.Pending() != 2 {
		t.Fatalf("pending = %d", d.Pending())
	}
	delivered := d.Distribute()
	if len(delivered) != 2 || d.Pending() != 0 {
		t.Fatalf("delivered %d, pending %d", len(delivered), d.Pending())
	}
	if got := messages(d.Drain("bob")); !reflect.DeepEqual(got, []string{"first", "second"}) {
		t.Fatalf("bob observed %v", got)
	}
	if got := d.Drain("bob"); len(got) != 0 {
		t.Fatalf("drain did not clear: %v", got)
	}
}

func TestDistributeSkipsQuitCharacters(t *testing.T) {
	w := newTestWorld(t)
	mustCharacter(t, w, "bob").Status = StatusQuit
	d := NewDistributor(w)
	d.Enqueue(Event{Source: "hall", Actor: "alice", Target: "bob", Scopes: []Scope{ScopeAll, ScopeTargeted}})
	d.Distribute()
	if n := len(d.Observations("bob")); n != 0 {
		t.Fatalf("quit character observed %d events", n)
	}
}
