package telnet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
)

// ErrDisconnected is returned once the client has gone away.
var ErrDisconnected = errors.New("telnet client disconnected")

// Agent relays prompts to a telnet client and returns the lines it types.
// A reply is everything typed up to an empty line or a line holding a
// single ".".
type Agent struct {
	conn   *Conn
	name   string
	logger *slog.Logger

	lines chan string

	mu  sync.Mutex
	err error
}

// NewAgent starts reading from c.
func NewAgent(c net.Conn, name string, logger *slog.Logger) *Agent {
	return newAgent(NewConn(c), name, logger)
}

func newAgent(conn *Conn, name string, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Agent{
		conn:   conn,
		name:   name,
		logger: logger,
		lines:  make(chan string, 64),
	}
	go a.readLoop()
	return a
}

func (a *Agent) readLoop() {
	defer close(a.lines)
	for {
		line, err := a.conn.ReadLine()
		if err != nil {
			a.mu.Lock()
			a.err = err
			a.mu.Unlock()
			a.logger.Info("telnet client gone", "player", a.name, "err", err)
			return
		}
		a.lines <- line
	}
}

// Name is the player name the agent was seated with.
func (a *Agent) Name() string {
	return a.name
}

// Send writes a notice to the client without waiting for a reply.
func (a *Agent) Send(msg string) error {
	width, _ := a.conn.Size()
	return a.conn.WriteString(Wrap(msg, width) + "\n")
}

// Prompt writes prompt and waits for the reply. Lines typed before the
// prompt was shown are discarded.
func (a *Agent) Prompt(ctx context.Context, prompt string) (string, error) {
	a.discardPending()
	width, _ := a.conn.Size()
	text := Wrap(strings.TrimRight(prompt, "\n"), width)
	hint := "(finish with an empty line)"
	if colorTerminal(a.conn.Terminal()) {
		text = highlight(text)
		hint = style(hint, ansiDim)
	}
	if err := a.conn.WriteString(text + "\n" + hint + "\n> "); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDisconnected, err)
	}

	var reply []string
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case line, ok := <-a.lines:
			if !ok {
				if len(reply) > 0 {
					return strings.Join(reply, "\n"), nil
				}
				return "", a.disconnected()
			}
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || trimmed == "." {
				if len(reply) == 0 {
					_ = a.conn.WriteString("> ")
					continue
				}
				return strings.Join(reply, "\n"), nil
			}
			reply = append(reply, trimmed)
			_ = a.conn.WriteString("> ")
		}
	}
}

func (a *Agent) discardPending() {
	for {
		select {
		case _, ok := <-a.lines:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func (a *Agent) disconnected() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return fmt.Errorf("%w: %v", ErrDisconnected, a.err)
	}
	return ErrDisconnected
}

// Close hangs up on the client.
func (a *Agent) Close() error {
	return a.conn.Close()
}

// Lobby describes the seats a telnet session waits for.
type Lobby struct {
	// Names are the seats, filled in order.
	Names []string
	// PasswordHash is a bcrypt hash clients must match. Empty admits
	// everyone.
	PasswordHash string
	Logger       *slog.Logger
}

// Accept waits until one client has connected for every seat and returns
// their agents in seat order. Each client is greeted while the others are
// still joining. Clients failing the password are dropped and the seat
// stays open.
func Accept(ctx context.Context, ln net.Listener, lobby Lobby) ([]*Agent, error) {
	logger := lobby.Logger
	if logger == nil {
		logger = slog.Default()
	}
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	agents := make([]*Agent, 0, len(lobby.Names))
	for len(agents) < len(lobby.Names) {
		name := lobby.Names[len(agents)]
		c, err := ln.Accept()
		if err != nil {
			for _, a := range agents {
				_ = a.Close()
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("accept %s: %w", name, err)
		}
		conn := NewConn(c)
		if err := authenticate(conn, lobby.PasswordHash); err != nil {
			logger.Warn("telnet login rejected", "remote", c.RemoteAddr().String(), "err", err)
			_ = conn.Close()
			continue
		}
		logger.Info("telnet player joined", "player", name, "remote", c.RemoteAddr().String())
		a := newAgent(conn, name, logger)
		waiting := len(lobby.Names) - len(agents) - 1
		_ = a.Send(fmt.Sprintf("Welcome to AgentClay. You are seated as %s. Waiting for %d more player(s).", name, waiting))
		agents = append(agents, a)
	}
	return agents, nil
}
