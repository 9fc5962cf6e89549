package game

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// playTurn runs one character's turn: prompt, parse, resolve, repeat until
// the character ends the turn, runs out of action points or is penalised,
// then asks whether the player wants to keep going.
func (m *Master) playTurn(ctx context.Context, seat Seat, c *Character) (TurnSummary, error) {
	summary := TurnSummary{Round: m.round, Turn: m.turn, Character: c.ID}
	var feedback []string

	for {
		m.flush(ctx)
		if c.ActionPoints <= 0 {
			summary.Reason = EndNoPoints
			break
		}

		reply, err := m.ask(ctx, seat, m.turnPrompt(c, feedback))
		feedback = nil
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return summary, ctxErr
			}
			m.logger.Warn("agent call failed", "character", c.ID, "provider", seat.Provider, "err", err)
			m.report(StatusUpdate{Kind: StatusError, Character: c.ID, Detail: err.Error()})
			summary.Reason = EndProviderError
			summary.Remaining = c.ActionPoints
			return summary, nil
		}

		parsed, rejected := m.parser.Parse(reply, m.world.Actions())
		if len(parsed) == 0 {
			feedback = append(feedback, m.penalize(c, rejected))
			summary.Penalized = true
			summary.Reason = EndPenalty
			break
		}

		ended := false
		for i, pa := range parsed {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			if pa.EndTurn {
				ended = true
				feedback = append(feedback, skipped(parsed[i+1:], "you ended your turn")...)
				break
			}
			if c.ActionPoints <= 0 && pa.Action.Cost > 0 {
				feedback = append(feedback, skipped(parsed[i:i+1], "no action points left")...)
				continue
			}
			lines, executed := m.resolve(ctx, c, pa)
			feedback = append(feedback, lines...)
			if executed {
				summary.Executed++
			}
		}

		if len(rejected) > 0 {
			feedback = append(feedback, m.penalize(c, rejected))
			summary.Penalized = true
			summary.Reason = EndPenalty
			break
		}
		if ended {
			summary.Reason = EndRequested
			break
		}
	}

	m.flush(ctx)
	summary.Remaining = c.ActionPoints
	summary.Quit = m.confirm(ctx, seat, c, feedback)
	return summary, nil
}

// resolve validates and executes a single action. It reports whether the
// action ran.
func (m *Master) resolve(ctx context.Context, c *Character, pa ParsedAction) ([]string, bool) {
	action := pa.Action
	if action.Cost > c.ActionPoints {
		return []string{fmt.Sprintf("%s costs %d AP, but you only have %d AP.", action.ID, action.Cost, c.ActionPoints)}, false
	}
	ev := m.world.Evaluate(c, action, pa.Params)
	if !ev.OK {
		return []string{ev.Message}, false
	}
	c.ActionPoints -= action.Cost
	events, feedback := m.world.Apply(c, action, pa.Params, ev)
	m.events.Enqueue(events...)
	m.flush(ctx)
	if len(feedback) == 0 {
		feedback = []string{fmt.Sprintf("%s done, %d AP left.", action.ID, c.ActionPoints)}
	}
	m.logger.Debug("action resolved", "character", c.ID, "action", action.ID, "cost", action.Cost, "remaining", c.ActionPoints)
	return feedback, true
}

func (m *Master) penalize(c *Character, rejected []string) string {
	c.ActionPoints = 0
	m.logger.Info("turn penalised", "character", c.ID, "rejected", len(rejected))
	if len(rejected) == 0 {
		return "You did not give any valid action. Your turn is over and your remaining action points are lost."
	}
	quoted := make([]string, len(rejected))
	for i, r := range rejected {
		quoted[i] = "'" + r + "'"
	}
	return fmt.Sprintf("Could not understand %s. Your turn is over and your remaining action points are lost.", strings.Join(quoted, ", "))
}

func skipped(rest []ParsedAction, why string) []string {
	var out []string
	for _, pa := range rest {
		if pa.EndTurn {
			continue
		}
		out = append(out, fmt.Sprintf("Skipped %s: %s.", pa.Action.ID, why))
	}
	return out
}

// confirm asks the player whether to continue and applies a quit.
func (m *Master) confirm(ctx context.Context, seat Seat, c *Character, feedback []string) bool {
	reply, err := m.ask(ctx, seat, m.confirmationPrompt(c, feedback))
	if err != nil {
		m.logger.Warn("confirmation failed", "character", c.ID, "err", err)
		return false
	}
	if !wantsToQuit(reply) {
		return false
	}
	c.Status = StatusQuit
	c.ActionPoints = 0
	m.events.Drain(c.ID)
	m.events.Enqueue(Event{
		Type:    "quit",
		Message: fmt.Sprintf("%s has left the game.", c.Name),
		Source:  c.Room,
		Actor:   c.ID,
		Scopes:  []Scope{ScopeAll},
	})
	m.logger.Info("character quit", "character", c.ID, "round", m.round)
	return true
}

func (m *Master) ask(ctx context.Context, seat Seat, prompt string) (string, error) {
	return m.invoker.Invoke(ctx, seat.Provider, m.timeout, func(ctx context.Context) (string, error) {
		return seat.Agent.Prompt(ctx, prompt)
	})
}

// wantsToQuit accepts a reply as a quit only when it says "quit" and does
// not also say "continue".
func wantsToQuit(reply string) bool {
	words := strings.FieldsFunc(strings.ToLower(reply), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	quit := false
	for _, w := range words {
		switch w {
		case "continue":
			return false
		case "quit":
			quit = true
		}
	}
	return quit
}
