package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// DefaultTurnTimeout bounds a single agent reply when none is configured.
const DefaultTurnTimeout = 2 * time.Minute

// ErrNoParser is returned when a session is started without a reply parser.
var ErrNoParser = errors.New("parser is required")

// Config wires a Master's collaborators. Only Parser is mandatory.
type Config struct {
	Bindings BindingRegistry
	Parser   Parser
	Invoker  Invoker
	Reporter Reporter
	Recorder Recorder
	Logger   *slog.Logger
	// Timeout bounds one agent reply.
	Timeout time.Duration
	// Rounds and ActionPoints override the definition when positive.
	Rounds       int
	ActionPoints int
}

// Master owns one session's world state and drives its rounds.
type Master struct {
	world    *World
	events   *Distributor
	parser   Parser
	invoker  Invoker
	reporter Reporter
	recorder Recorder
	logger   *slog.Logger
	timeout  time.Duration
	round    int
	turn     int
}

// NewMaster prepares a master for an already built world.
func NewMaster(world *World, cfg Config) (*Master, error) {
	if world == nil {
		return nil, oops.In("master").Code("configuration_defect").Errorf("world is nil")
	}
	if cfg.Parser == nil {
		return nil, oops.In("master").Code("configuration_defect").Wrapf(ErrNoParser, "new master")
	}
	m := &Master{
		world:    world,
		events:   NewDistributor(world),
		parser:   cfg.Parser,
		invoker:  cfg.Invoker,
		reporter: cfg.Reporter,
		recorder: cfg.Recorder,
		logger:   cfg.Logger,
		timeout:  cfg.Timeout,
	}
	if m.invoker == nil {
		m.invoker = directInvoker{}
	}
	if m.reporter == nil {
		m.reporter = nopReporter{}
	}
	if m.recorder == nil {
		m.recorder = nopRecorder{}
	}
	if m.logger == nil {
		m.logger = world.logger
	}
	if m.timeout <= 0 {
		m.timeout = DefaultTurnTimeout
	}
	if cfg.Rounds > 0 {
		world.settings.Rounds = cfg.Rounds
	}
	if cfg.ActionPoints > 0 {
		world.settings.ActionPoints = cfg.ActionPoints
	}
	return m, nil
}

// RunSession builds a world from the definition and plays it until the
// round budget is spent or nobody is left. The world is returned even when
// the session stops early.
func RunSession(ctx context.Context, def *WorldDefinition, seats []Seat, cfg Config) (*World, error) {
	world, err := NewWorld(def, WithBindings(cfg.Bindings), WithLogger(cfg.Logger))
	if err != nil {
		return nil, err
	}
	m, err := NewMaster(world, cfg)
	if err != nil {
		return world, err
	}
	return world, m.Run(ctx, seats)
}

func (m *Master) World() *World {
	return m.world
}

// Events exposes the session's distributor.
func (m *Master) Events() *Distributor {
	return m.events
}

// Round returns the current round number, zero before the first round.
func (m *Master) Round() int {
	return m.round
}

// Run plays rounds until the configured count is exhausted, no active
// character remains, or ctx is cancelled.
func (m *Master) Run(ctx context.Context, seats []Seat) error {
	if err := m.validateSeats(seats); err != nil {
		return err
	}
	rounds := m.world.settings.Rounds
	m.report(StatusUpdate{Kind: StatusSessionStart, Detail: fmt.Sprintf("rounds=%d seats=%d", rounds, len(seats))})

	for m.round < rounds {
		if err := ctx.Err(); err != nil {
			return m.abort(err)
		}
		active := m.activeSeats(seats)
		if len(active) == 0 {
			m.logger.Info("no active characters remain", "round", m.round)
			break
		}
		m.round++
		m.startRound(active)

		for _, seat := range active {
			c, _ := m.world.Character(seat.Character)
			if !c.Active() {
				continue
			}
			m.turn++
			m.report(StatusUpdate{Kind: StatusTurnStart, Character: c.ID})
			summary, err := m.playTurn(ctx, seat, c)
			m.flush(ctx)
			if err != nil {
				return m.abort(err)
			}
			if err := m.recorder.RecordTurn(ctx, summary); err != nil {
				m.logger.Warn("record turn failed", "err", err)
			}
			m.report(StatusUpdate{
				Kind:      StatusTurnEnd,
				Character: c.ID,
				Detail:    fmt.Sprintf("reason=%s executed=%d", summary.Reason, summary.Executed),
			})
			if summary.Quit {
				m.report(StatusUpdate{Kind: StatusCharacterQuit, Character: c.ID})
			}
		}
		m.report(StatusUpdate{Kind: StatusRoundEnd})
	}

	m.flush(ctx)
	if err := m.recorder.RecordOutcome(ctx, m.world); err != nil {
		m.logger.Warn("record outcome failed", "err", err)
	}
	m.report(StatusUpdate{Kind: StatusSessionComplete})
	return nil
}

func (m *Master) validateSeats(seats []Seat) error {
	seen := make(map[CharacterID]bool, len(seats))
	for _, seat := range seats {
		if _, ok := m.world.Character(seat.Character); !ok {
			return oops.In("master").Code("configuration_defect").Wrapf(ErrUnknownCharacter, "seat %s", seat.Name)
		}
		if seen[seat.Character] {
			return oops.In("master").Code("configuration_defect").Errorf("character %s seated twice", seat.Character)
		}
		if seat.Agent == nil {
			return oops.In("master").Code("configuration_defect").Errorf("seat %s has no agent", seat.Name)
		}
		seen[seat.Character] = true
	}
	return nil
}

func (m *Master) activeSeats(seats []Seat) []Seat {
	out := make([]Seat, 0, len(seats))
	for _, seat := range seats {
		if c, ok := m.world.Character(seat.Character); ok && c.Active() {
			out = append(out, seat)
		}
	}
	return out
}

func (m *Master) startRound(active []Seat) {
	m.logger.Info("round started", "round", m.round, "active", len(active))
	m.report(StatusUpdate{Kind: StatusRoundStart})
	for _, seat := range active {
		c, _ := m.world.Character(seat.Character)
		c.ActionPoints = m.budget(c)
	}
	for _, hint := range m.world.settings.Hints {
		if hint.Round != m.round {
			continue
		}
		m.events.Enqueue(Event{Type: "hint", Message: hint.Message, Scopes: []Scope{ScopeAll}})
	}
}

func (m *Master) budget(c *Character) int {
	if c.Budget > 0 {
		return c.Budget
	}
	return m.world.settings.ActionPoints
}

// flush distributes queued events and journals them.
func (m *Master) flush(ctx context.Context) {
	delivered := m.events.Distribute()
	if len(delivered) == 0 {
		return
	}
	if err := m.recorder.RecordEvents(ctx, m.round, delivered); err != nil {
		m.logger.Warn("record events failed", "err", err)
	}
}

func (m *Master) abort(err error) error {
	m.report(StatusUpdate{Kind: StatusError, Detail: err.Error()})
	return err
}

func (m *Master) report(update StatusUpdate) {
	if update.Round == 0 {
		update.Round = m.round
	}
	if update.Turn == 0 {
		update.Turn = m.turn
	}
	m.reporter.Report(update)
}
