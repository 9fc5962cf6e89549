package game

import (
	"context"
	"time"
)

// Agent is the text channel to whatever drives a character.
type Agent interface {
	Prompt(ctx context.Context, prompt string) (string, error)
}

// Seat binds a player to a character.
type Seat struct {
	Name      string
	Character CharacterID
	// Provider keys the rate limiter the agent's calls are charged to.
	Provider string
	Agent    Agent
}

// ParsedAction is one action recognised in a player's reply.
type ParsedAction struct {
	Action  *ActionDefinition
	Params  map[string]string
	EndTurn bool
	Raw     string
}

// Parser turns a raw reply into actions plus the strings it could not
// understand.
type Parser interface {
	Parse(raw string, actions []*ActionDefinition) ([]ParsedAction, []string)
}

// Invoker wraps every outbound agent call.
type Invoker interface {
	Invoke(ctx context.Context, provider string, timeout time.Duration, call func(context.Context) (string, error)) (string, error)
}

// StatusKind labels a progress update.
type StatusKind string

const (
	StatusSessionStart    StatusKind = "session_start"
	StatusRoundStart      StatusKind = "round_start"
	StatusTurnStart       StatusKind = "turn_start"
	StatusTurnEnd         StatusKind = "turn_end"
	StatusCharacterQuit   StatusKind = "character_quit"
	StatusRoundEnd        StatusKind = "round_end"
	StatusSessionComplete StatusKind = "session_complete"
	StatusError           StatusKind = "error"
)

// StatusUpdate is one machine-readable progress notification.
type StatusUpdate struct {
	Kind      StatusKind
	Round     int
	Turn      int
	Character CharacterID
	Detail    string
}

// Reporter receives progress updates.
type Reporter interface {
	Report(StatusUpdate)
}

// EndReason says why a turn ended.
type EndReason string

const (
	EndRequested     EndReason = "requested"
	EndNoPoints      EndReason = "no_action_points"
	EndPenalty       EndReason = "penalty"
	EndProviderError EndReason = "provider_error"
)

// TurnSummary describes a finished turn.
type TurnSummary struct {
	Round     int
	Turn      int
	Character CharacterID
	Executed  int
	Penalized bool
	Reason    EndReason
	Quit      bool
	Remaining int
}

// Recorder persists what happens in a session. Failures are logged and
// never stop play.
type Recorder interface {
	RecordEvents(ctx context.Context, round int, events []Event) error
	RecordTurn(ctx context.Context, turn TurnSummary) error
	RecordOutcome(ctx context.Context, world *World) error
}

type directInvoker struct{}

func (directInvoker) Invoke(ctx context.Context, _ string, timeout time.Duration, call func(context.Context) (string, error)) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return call(ctx)
}

type nopReporter struct{}

func (nopReporter) Report(StatusUpdate) {}

type nopRecorder struct{}

func (nopRecorder) RecordEvents(context.Context, int, []Event) error { return nil }
func (nopRecorder) RecordTurn(context.Context, TurnSummary) error    { return nil }
func (nopRecorder) RecordOutcome(context.Context, *World) error      { return nil }
