package game

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func newTestMaster(t *testing.T, def *WorldDefinition, cfg Config) (*Master, *memReporter, *memRecorder) {
	t.Helper()
	reporter := &memReporter{}
	recorder := &memRecorder{}
	cfg.Parser = wordParser{}
	cfg.Reporter = reporter
	cfg.Recorder = recorder
	cfg.Logger = quietLogger()
	w, err := NewWorld(def, WithBindings(cfg.Bindings), WithLogger(cfg.Logger))
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	m, err := NewMaster(w, cfg)
	if err != nil {
		t.Fatalf("NewMaster: %v", err)
	}
	return m, reporter, recorder
}

func TestTurnRejectsActionsBeyondBudget(t *testing.T) {
	m, _, recorder := newTestMaster(t, testDefinition(), Config{})
	alice := &scriptedAgent{replies: []string{"search\nsearch\nsearch", "end turn", "continue"}}

	if err := m.Run(context.Background(), []Seat{{Name: "a", Character: "alice", Agent: alice}}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(alice.prompts) != 3 {
		t.Fatalf("prompts = %d, want 3", len(alice.prompts))
	}
	if !strings.Contains(alice.prompts[1], "search costs 4 AP, but you only have 2 AP.") {
		t.Fatalf("second prompt lacks budget feedback:\n%s", alice.prompts[1])
	}
	if len(recorder.turns) != 1 {
		t.Fatalf("turns = %+v", recorder.turns)
	}
	turn := recorder.turns[0]
	if turn.Executed != 2 || turn.Remaining != 2 || turn.Reason != EndRequested || turn.Penalized {
		t.Fatalf("summary = %+v", turn)
	}
	if got := mustCharacter(t, m.World(), "alice").ActionPoints; got != 2 {
		t.Fatalf("alice AP = %d", got)
	}
	bobSaw := messages(m.Events().Observations("bob"))
	if len(bobSaw) != 2 || bobSaw[0] != "Alice searches the room." {
		t.Fatalf("bob observed %v", bobSaw)
	}
}

func TestTurnRunsValidActionsThenPenalises(t *testing.T) {
	m, _, recorder := newTestMaster(t, testDefinition(), Config{})
	alice := &scriptedAgent{replies: []string{"wave\ndance wildly", "continue"}}

	if err := m.Run(context.Background(), []Seat{{Name: "a", Character: "alice", Agent: alice}}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(alice.prompts) != 2 {
		t.Fatalf("prompts = %d, want turn prompt and confirmation", len(alice.prompts))
	}
	confirm := alice.prompts[1]
	if !strings.Contains(confirm, "Alice waves.") {
		t.Fatalf("valid action did not run:\n%s", confirm)
	}
	if !strings.Contains(confirm, "Could not understand 'dance wildly'.") {
		t.Fatalf("confirmation lacks penalty:\n%s", confirm)
	}
	turn := recorder.turns[0]
	if turn.Executed != 1 || !turn.Penalized || turn.Reason != EndPenalty || turn.Remaining != 0 {
		t.Fatalf("summary = %+v", turn)
	}
}

func TestTurnWithNoValidActionIsPenalised(t *testing.T) {
	m, _, recorder := newTestMaster(t, testDefinition(), Config{})
	alice := &scriptedAgent{replies: []string{"I am not sure what to do.", "continue"}}

	if err := m.Run(context.Background(), []Seat{{Name: "a", Character: "alice", Agent: alice}}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if turn := recorder.turns[0]; !turn.Penalized || turn.Executed != 0 {
		t.Fatalf("summary = %+v", turn)
	}
}

func TestTurnEndsWhenPointsRunOut(t *testing.T) {
	def := testDefinition()
	def.Characters[0].ActionPoints = 2
	m, _, recorder := newTestMaster(t, def, Config{})
	alice := &scriptedAgent{replies: []string{"wave\nwave\nwave", "continue"}}

	if err := m.Run(context.Background(), []Seat{{Name: "a", Character: "alice", Agent: alice}}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(alice.prompts[1], "Skipped wave: no action points left.") {
		t.Fatalf("confirmation lacks skip notice:\n%s", alice.prompts[1])
	}
	if turn := recorder.turns[0]; turn.Reason != EndNoPoints || turn.Executed != 2 {
		t.Fatalf("summary = %+v", turn)
	}
}

func TestFreeActionsRunAfterPointsRunOut(t *testing.T) {
	def := testDefinition()
	def.Characters[0].ActionPoints = 1
	def.Actions = append(def.Actions, ActionDefinition{ID: "think", Effects: []Effect{
		{Type: EffectGenerateEvent, Message: "{actor} ponders."},
	}})
	m, _, recorder := newTestMaster(t, def, Config{})
	alice := &scriptedAgent{replies: []string{"wave\nwave\nthink", "continue"}}

	if err := m.Run(context.Background(), []Seat{{Name: "a", Character: "alice", Agent: alice}}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	confirm := alice.prompts[1]
	if !strings.Contains(confirm, "Skipped wave: no action points left.") {
		t.Fatalf("confirmation lacks skip notice:\n%s", confirm)
	}
	if !strings.Contains(confirm, "Alice ponders.") {
		t.Fatalf("free action did not run:\n%s", confirm)
	}
	if turn := recorder.turns[0]; turn.Executed != 2 || turn.Reason != EndNoPoints || turn.Remaining != 0 {
		t.Fatalf("summary = %+v", turn)
	}
}

func TestFailedRequirementLeavesWorldUntouched(t *testing.T) {
	m, _, recorder := newTestMaster(t, testDefinition(), Config{})
	alice := &scriptedAgent{replies: []string{"polish lamp", "end turn", "continue"}}

	if err := m.Run(context.Background(), []Seat{{Name: "a", Character: "alice", Agent: alice}}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(alice.prompts[1], "You are not carrying 'lamp'.") {
		t.Fatalf("second prompt lacks requirement failure:\n%s", alice.prompts[1])
	}
	if got := mustCharacter(t, m.World(), "alice").ActionPoints; got != 10 {
		t.Fatalf("alice AP = %d, want 10", got)
	}
	lamp, _ := m.World().Object("lamp")
	if lamp.Tags.Has("shiny") {
		t.Fatalf("polish effect ran on the lamp")
	}
	if lamp.Owner != (Owner{Kind: OwnerRoom, ID: "hall"}) {
		t.Fatalf("lamp owner = %+v", lamp.Owner)
	}
	if len(recorder.events) != 0 {
		t.Fatalf("events recorded: %+v", recorder.events)
	}
	if turn := recorder.turns[0]; turn.Executed != 0 || turn.Penalized || turn.Remaining != 10 {
		t.Fatalf("summary = %+v", turn)
	}
}

func TestQuitCharacterLeavesRotation(t *testing.T) {
	m, reporter, _ := newTestMaster(t, testDefinition(), Config{Rounds: 2})
	alice := &scriptedAgent{replies: []string{"wave", "end turn", "quit"}}
	bob := &scriptedAgent{}
	seats := []Seat{
		{Name: "a", Character: "alice", Agent: alice},
		{Name: "b", Character: "bob", Agent: bob},
	}

	if err := m.Run(context.Background(), seats); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(alice.prompts) != 3 {
		t.Fatalf("alice prompted %d times after quitting", len(alice.prompts))
	}
	if len(bob.prompts) != 4 {
		t.Fatalf("bob prompts = %d, want two turns", len(bob.prompts))
	}
	if !strings.Contains(bob.prompts[0], "Alice waves.") || !strings.Contains(bob.prompts[0], "Alice has left the game.") {
		t.Fatalf("bob missed alice's events:\n%s", bob.prompts[0])
	}
	a := mustCharacter(t, m.World(), "alice")
	if a.Active() || a.APDisplay() != QuitSentinel {
		t.Fatalf("alice status %s AP %d", a.Status, a.APDisplay())
	}
	if reporter.count(StatusCharacterQuit) != 1 || reporter.count(StatusRoundStart) != 2 {
		t.Fatalf("updates = %+v", reporter.updates)
	}
}

func TestSessionStopsWhenEveryoneQuits(t *testing.T) {
	m, reporter, recorder := newTestMaster(t, testDefinition(), Config{Rounds: 3})
	alice := &scriptedAgent{replies: []string{"end turn", "quit"}}

	if err := m.Run(context.Background(), []Seat{{Name: "a", Character: "alice", Agent: alice}}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if m.Round() != 1 || reporter.count(StatusRoundStart) != 1 {
		t.Fatalf("played %d rounds", m.Round())
	}
	if reporter.count(StatusSessionComplete) != 1 || recorder.outcome == nil {
		t.Fatalf("session not completed: %+v", reporter.updates)
	}
}

func TestProviderErrorEndsTurnWithoutConfirmation(t *testing.T) {
	m, reporter, recorder := newTestMaster(t, testDefinition(), Config{})
	alice := &scriptedAgent{err: errors.New("upstream unavailable")}

	if err := m.Run(context.Background(), []Seat{{Name: "a", Character: "alice", Agent: alice}}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(alice.prompts) != 1 {
		t.Fatalf("prompts = %d, want 1", len(alice.prompts))
	}
	if recorder.turns[0].Reason != EndProviderError {
		t.Fatalf("summary = %+v", recorder.turns[0])
	}
	if reporter.count(StatusError) != 1 {
		t.Fatalf("updates = %+v", reporter.updates)
	}
	if !mustCharacter(t, m.World(), "alice").Active() {
		t.Fatalf("provider failure must not quit the character")
	}
}

type cancellingAgent struct {
	cancel context.CancelFunc
}

func (a cancellingAgent) Prompt(ctx context.Context, _ string) (string, error) {
	a.cancel()
	return "", ctx.Err()
}

func TestRunStopsOnCancellation(t *testing.T) {
	m, reporter, _ := newTestMaster(t, testDefinition(), Config{Rounds: 3})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := m.Run(ctx, []Seat{{Name: "a", Character: "alice", Agent: cancellingAgent{cancel: cancel}}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v", err)
	}
	if reporter.count(StatusSessionComplete) != 0 {
		t.Fatalf("cancelled session reported completion")
	}
}

func TestRoundStartRestoresBudgetAndBroadcastsHints(t *testing.T) {
	def := testDefinition()
	def.Settings.Rounds = 2
	def.Settings.Hints = []Hint{{Round: 2, Message: "The lamp flickers."}}
	m, _, _ := newTestMaster(t, def, Config{})
	alice := &scriptedAgent{replies: []string{"search\nend turn", "continue", "end turn", "continue"}}

	if err := m.Run(context.Background(), []Seat{{Name: "a", Character: "alice", Agent: alice}}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	round2 := alice.prompts[2]
	if !strings.Contains(round2, "You have 10 action points.") {
		t.Fatalf("budget not restored:\n%s", round2)
	}
	if !strings.Contains(round2, "The lamp flickers.") {
		t.Fatalf("hint missing:\n%s", round2)
	}
	if strings.Contains(alice.prompts[0], "The lamp flickers.") {
		t.Fatalf("hint delivered early")
	}
}

func TestIntroductionOnlyOnFirstPrompt(t *testing.T) {
	def := testDefinition()
	def.Settings.Rounds = 2
	m, _, _ := newTestMaster(t, def, Config{})
	alice := &scriptedAgent{}

	if err := m.Run(context.Background(), []Seat{{Name: "a", Character: "alice", Agent: alice}}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	first := alice.prompts[0]
	for _, want := range []string{"Be kind.", "You are playing Alice.", "Find the cellar.", "- polish <object> (2 AP)"} {
		if !strings.Contains(first, want) {
			t.Fatalf("introduction missing %q:\n%s", want, first)
		}
	}
	if strings.Contains(alice.prompts[2], "You are playing Alice.") {
		t.Fatalf("introduction repeated")
	}
}

func TestRunRejectsBadSeats(t *testing.T) {
	m, _, _ := newTestMaster(t, testDefinition(), Config{})
	agent := &scriptedAgent{}
	cases := map[string][]Seat{
		"unknown character": {{Name: "x", Character: "zed", Agent: agent}},
		"duplicate":         {{Name: "a", Character: "alice", Agent: agent}, {Name: "b", Character: "alice", Agent: agent}},
		"no agent":          {{Name: "a", Character: "alice"}},
	}
	for name, seats := range cases {
		if err := m.Run(context.Background(), seats); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestWantsToQuit(t *testing.T) {
	cases := []struct {
		reply string
		want  bool
	}{
		{"quit", true},
		{"I want to QUIT now.", true},
		{"continue", false},
		{"I will not quit, continue!", false},
		{"quitting is not an option", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := wantsToQuit(tc.reply); got != tc.want {
			t.Fatalf("wantsToQuit(%q) = %v", tc.reply, got)
		}
	}
}
