package journal_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AgentClay/commands"
	"AgentClay/internal/game"
	"AgentClay/internal/journal"
	"AgentClay/internal/llm"
)

func openStore(t *testing.T) *journal.Store {
	t.Helper()
	store, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func smallWorld() *game.WorldDefinition {
	return &game.WorldDefinition{
		Settings: game.Settings{Rounds: 1},
		Actions: []game.ActionDefinition{{
			ID:         "pickup",
			Cost:       1,
			Parameters: []game.ParameterSpec{{Name: "object"}},
			Effects:    []game.Effect{{Type: game.EffectCodeBinding, Binding: "pickup"}},
		}},
		Rooms: []game.RoomDefinition{{ID: "start", Title: "Foyer", Description: "A quiet foyer."}},
		Objects: []game.ObjectDefinition{
			{ID: "lamp", Name: "lamp", Location: "start"},
			{ID: "coin", Name: "coin", Location: "hero"},
		},
		Characters: []game.CharacterDefinition{
			{ID: "hero", Name: "Hero", Room: "start", Tags: []string{"brave"}},
			{ID: "sage", Name: "Sage", Room: "start"},
		},
	}
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := journal.Open("  ")
	require.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, journal.Migrate(db))
	require.NoError(t, journal.Migrate(db))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_migrations;`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestMigrateRejectsNil(t *testing.T) {
	require.Error(t, journal.Migrate(nil))
}

func TestRecorderWritesEventsInOrder(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	id := ulid.Make()

	rec, err := store.StartSession(ctx, id, "test")
	require.NoError(t, err)
	assert.Equal(t, id, rec.Session())

	require.NoError(t, rec.RecordEvents(ctx, 1, []game.Event{
		{Type: "say", Message: "one", Source: "start", Actor: "hero", Scopes: []game.Scope{game.ScopeRoom}},
		{Type: "whisper", Message: "two", Source: "start", Actor: "hero", Target: "sage", Scopes: []game.Scope{game.ScopeTargeted}},
	}))
	require.NoError(t, rec.RecordEvents(ctx, 2, nil))
	require.NoError(t, rec.RecordEvents(ctx, 2, []game.Event{
		{Type: "hint", Message: "three", Scopes: []game.Scope{game.ScopeAll, game.ScopeAdjacent}},
	}))

	events, err := store.Events(ctx, id)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{events[0].Seq, events[1].Seq, events[2].Seq})
	assert.Equal(t, "one", events[0].Message)
	assert.Equal(t, "sage", events[1].Target)
	assert.Equal(t, 2, events[2].Round)
	assert.Equal(t, []string{"all", "adjacent_rooms"}, events[2].Scopes)

	session, err := store.Session(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "test", session.World)
	assert.False(t, session.Finished())
}

func TestSessionsAreSeparate(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first, err := store.StartSession(ctx, ulid.Make(), "w")
	require.NoError(t, err)
	second, err := store.StartSession(ctx, ulid.Make(), "w")
	require.NoError(t, err)

	require.NoError(t, first.RecordEvents(ctx, 1, []game.Event{{Type: "say", Message: "a"}}))
	require.NoError(t, second.RecordEvents(ctx, 1, []game.Event{{Type: "say", Message: "b"}}))

	events, err := store.Events(ctx, second.Session())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "b", events[0].Message)
	assert.Equal(t, 1, events[0].Seq)
}

func TestDuplicateSessionFails(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	id := ulid.Make()

	_, err := store.StartSession(ctx, id, "w")
	require.NoError(t, err)
	_, err = store.StartSession(ctx, id, "w")
	require.Error(t, err)
}

func TestJournalsAFullSession(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	id := ulid.Make()

	rec, err := store.StartSession(ctx, id, "small")
	require.NoError(t, err)

	seats := []game.Seat{
		{Name: "one", Character: "hero", Agent: llm.NewScriptAgent("pickup lamp\nend turn", "continue")},
		{Name: "two", Character: "sage", Agent: llm.NewScriptAgent()},
	}
	_, err = game.RunSession(ctx, smallWorld(), seats, game.Config{
		Bindings: commands.Registry(),
		Parser:   commands.Parser{},
		Recorder: rec,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	events, err := store.Events(ctx, id)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "pickup", events[0].Type)
	assert.Equal(t, "Hero picks up the lamp.", events[0].Message)
	assert.Equal(t, "hero", events[0].Actor)
	assert.Equal(t, []string{"room_characters"}, events[0].Scopes)

	turns, err := store.Turns(ctx, id)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, journal.TurnRecord{
		Turn: 1, Round: 1, Character: "hero", Executed: 1, Reason: "requested", Remaining: 9,
	}, turns[0])
	assert.Equal(t, "sage", turns[1].Character)
	assert.Equal(t, 0, turns[1].Executed)
	assert.False(t, turns[1].Penalized)

	outcomes, err := store.Outcomes(ctx, id)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, journal.OutcomeRecord{
		Character:    "hero",
		Name:         "Hero",
		Room:         "start",
		Status:       "active",
		ActionPoints: 9,
		Inventory:    []string{"coin", "lamp"},
		Tags:         []string{"brave"},
	}, outcomes[0])
	assert.Empty(t, outcomes[1].Inventory)

	session, err := store.Session(ctx, id)
	require.NoError(t, err)
	assert.True(t, session.Finished())
}
