// Package journal keeps a SQLite record of every session: the events that
// were distributed, a summary of each turn, and the final state of every
// character.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

const timeFormat = time.RFC3339Nano

// Store wraps the journal database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the journal at path and migrates it.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("journal path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// Concurrent sessions share one writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping journal: %w", err)
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db)
}

// New wraps an already migrated database.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("journal: db is nil")
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SessionRecord is one row of the sessions table.
type SessionRecord struct {
	ID         ulid.ULID
	World      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Finished reports whether the session recorded its outcome.
func (r SessionRecord) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// EventRecord is one distributed event.
type EventRecord struct {
	Seq     int
	Round   int
	Type    string
	Message string
	Source  string
	Actor   string
	Target  string
	Scopes  []string
}

// TurnRecord is one finished turn.
type TurnRecord struct {
	Turn      int
	Round     int
	Character string
	Executed  int
	Penalized bool
	Reason    string
	Quit      bool
	Remaining int
}

// OutcomeRecord is a character's state when the session ended.
type OutcomeRecord struct {
	Character    string
	Name         string
	Room         string
	Status       string
	ActionPoints int
	Inventory    []string
	Tags         []string
}

// StartSession registers a session and returns the recorder that journals
// it.
func (s *Store) StartSession(ctx context.Context, id ulid.ULID, world string) (*Recorder, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions(id, world, started_at) VALUES (?, ?, ?);`,
		id.String(), world, s.now().UTC().Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("start session: insert: %w", err)
	}
	return &Recorder{store: s, session: id}, nil
}

// Session loads a session row.
func (s *Store) Session(ctx context.Context, id ulid.ULID) (SessionRecord, error) {
	var (
		world    string
		started  string
		finished sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT world, started_at, finished_at FROM sessions WHERE id = ?;`, id.String(),
	).Scan(&world, &started, &finished)
	if err != nil {
		return SessionRecord{}, fmt.Errorf("session: select: %w", err)
	}
	out := SessionRecord{ID: id, World: world}
	if out.StartedAt, err = time.Parse(timeFormat, started); err != nil {
		return SessionRecord{}, fmt.Errorf("session: parse started_at: %w", err)
	}
	if finished.Valid {
		if out.FinishedAt, err = time.Parse(timeFormat, finished.String); err != nil {
			return SessionRecord{}, fmt.Errorf("session: parse finished_at: %w", err)
		}
	}
	return out, nil
}

// Events lists a session's events in distribution order.
func (s *Store) Events(ctx context.Context, id ulid.ULID) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, round, type, message, source, actor, target, scopes
		FROM events WHERE session_id = ? ORDER BY seq;`, id.String())
	if err != nil {
		return nil, fmt.Errorf("events: select: %w", err)
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var (
			rec    EventRecord
			scopes string
		)
		if err := rows.Scan(&rec.Seq, &rec.Round, &rec.Type, &rec.Message, &rec.Source, &rec.Actor, &rec.Target, &scopes); err != nil {
			return nil, fmt.Errorf("events: scan: %w", err)
		}
		rec.Scopes = splitList(scopes)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("events: iterate: %w", err)
	}
	return out, nil
}

// Turns lists a session's turns in play order.
func (s *Store) Turns(ctx context.Context, id ulid.ULID) ([]TurnRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT turn, round, character_id, executed, penalized, reason, quit, remaining
		FROM turns WHERE session_id = ? ORDER BY turn;`, id.String())
	if err != nil {
		return nil, fmt.Errorf("turns: select: %w", err)
	}
	defer rows.Close()

	var out []TurnRecord
	for rows.Next() {
		var rec TurnRecord
		if err := rows.Scan(&rec.Turn, &rec.Round, &rec.Character, &rec.Executed, &rec.Penalized, &rec.Reason, &rec.Quit, &rec.Remaining); err != nil {
			return nil, fmt.Errorf("turns: scan: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("turns: iterate: %w", err)
	}
	return out, nil
}

// Outcomes lists the final character states of a session ordered by
// character id.
func (s *Store) Outcomes(ctx context.Context, id ulid.ULID) ([]OutcomeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT character_id, name, room, status, action_points, inventory, tags
		FROM outcomes WHERE session_id = ? ORDER BY character_id;`, id.String())
	if err != nil {
		return nil, fmt.Errorf("outcomes: select: %w", err)
	}
	defer rows.Close()

	var out []OutcomeRecord
	for rows.Next() {
		var (
			rec       OutcomeRecord
			inventory string
			tags      string
		)
		if err := rows.Scan(&rec.Character, &rec.Name, &rec.Room, &rec.Status, &rec.ActionPoints, &inventory, &tags); err != nil {
			return nil, fmt.Errorf("outcomes: scan: %w", err)
		}
		rec.Inventory = splitList(inventory)
		rec.Tags = splitList(tags)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("outcomes: iterate: %w", err)
	}
	return out, nil
}

func joinList(items []string) string {
	return strings.Join(items, ",")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
