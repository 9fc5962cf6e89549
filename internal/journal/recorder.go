package journal

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"

	"AgentClay/internal/game"
)

// Recorder journals one session. It implements game.Recorder.
type Recorder struct {
	store   *Store
	session ulid.ULID

	mu  sync.Mutex
	seq int
}

var _ game.Recorder = (*Recorder)(nil)

// Session returns the id rows are written under.
func (r *Recorder) Session() ulid.ULID {
	return r.session
}

// RecordEvents appends a distributed batch in one transaction.
func (r *Recorder) RecordEvents(ctx context.Context, round int, events []game.Event) error {
	if len(events) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record events: begin: %w", err)
	}
	defer tx.Rollback()

	seq := r.seq
	for _, ev := range events {
		seq++
		scopes := make([]string, 0, len(ev.Scopes))
		for _, s := range ev.Scopes {
			scopes = append(scopes, string(s))
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO events(session_id, seq, round, type, message, source, actor, target, scopes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
			r.session.String(), seq, round, ev.Type, ev.Message,
			string(ev.Source), string(ev.Actor), string(ev.Target), joinList(scopes),
		)
		if err != nil {
			return fmt.Errorf("record events: insert: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record events: commit: %w", err)
	}
	r.seq = seq
	return nil
}

// RecordTurn stores a turn summary.
func (r *Recorder) RecordTurn(ctx context.Context, turn game.TurnSummary) error {
	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO turns(session_id, turn, round, character_id, executed, penalized, reason, quit, remaining)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		r.session.String(), turn.Turn, turn.Round, string(turn.Character), turn.Executed,
		turn.Penalized, string(turn.Reason), turn.Quit, turn.Remaining,
	)
	if err != nil {
		return fmt.Errorf("record turn: insert: %w", err)
	}
	return nil
}

// RecordOutcome stores every character's final state and marks the session
// finished.
func (r *Recorder) RecordOutcome(ctx context.Context, world *game.World) error {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record outcome: begin: %w", err)
	}
	defer tx.Rollback()

	for _, c := range world.Characters() {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO outcomes(session_id, character_id, name, room, status, action_points, inventory, tags)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
			r.session.String(), string(c.ID), c.Name, string(c.Room), string(c.Status),
			c.APDisplay(), joinList(inventoryIDs(c)), joinList(c.Tags.Sorted()),
		)
		if err != nil {
			return fmt.Errorf("record outcome: insert %s: %w", c.ID, err)
		}
	}
	_, err = tx.ExecContext(ctx, `UPDATE sessions SET finished_at = ? WHERE id = ?;`,
		r.store.now().UTC().Format(timeFormat), r.session.String())
	if err != nil {
		return fmt.Errorf("record outcome: finish session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record outcome: commit: %w", err)
	}
	return nil
}

func inventoryIDs(c *game.Character) []string {
	out := make([]string, 0, len(c.Inventory))
	for id := range c.Inventory {
		out = append(out, string(id))
	}
	sort.Strings(out)
	return out
}
