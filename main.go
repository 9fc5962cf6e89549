package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"AgentClay/commands"
	"AgentClay/internal/config"
	"AgentClay/internal/game"
	"AgentClay/internal/journal"
	"AgentClay/internal/llm"
	"AgentClay/internal/platform/otel"
	"AgentClay/internal/progress"
	"AgentClay/internal/telnet"
)

const serviceName = "agentclay"

const systemPrompt = "You are a player in a turn-based text adventure. " +
	"Answer every prompt with game commands only, one per line."

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("%v", err)
	}

	flag.StringVar(&cfg.WorldPath, "world", cfg.WorldPath, "Path to the world definition JSON file")
	flag.IntVar(&cfg.Rounds, "rounds", cfg.Rounds, "Override the number of rounds (0 keeps the world setting)")
	flag.IntVar(&cfg.ActionPoints, "ap", cfg.ActionPoints, "Override the action point budget per round (0 keeps the world setting)")
	flag.IntVar(&cfg.Sessions, "sessions", cfg.Sessions, "Number of sessions to play concurrently")
	flag.StringVar(&cfg.Agent, "agent", cfg.Agent, "Who drives the characters: openai, script or telnet")
	flag.StringVar(&cfg.ScriptPath, "script", cfg.ScriptPath, "Reply file for the script agent")
	flag.StringVar(&cfg.TelnetAddr, "addr", cfg.TelnetAddr, "TCP address telnet players connect to")
	flag.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "Timeout for a single agent request")
	flag.StringVar(&cfg.JournalPath, "journal", cfg.JournalPath, "Optional SQLite file that journals every session")
	flag.StringVar(&cfg.OpenAI.Model, "model", cfg.OpenAI.Model, "Chat model for the openai agent")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	hashPassword := flag.String("hash-password", "", "Print the bcrypt hash of a telnet seat password and exit")
	flag.Parse()

	if *hashPassword != "" {
		hashed, err := telnet.HashPassword(*hashPassword)
		if err != nil {
			config.Exitf("hash password: %v", err)
		}
		fmt.Println(hashed)
		return
	}

	if err := cfg.Validate(); err != nil {
		config.Exitf("invalid configuration: %v", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		config.Exitf("invalid log level %q", cfg.LogLevel)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("agentclay stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	shutdown, err := otel.Setup(ctx, serviceName, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown", "err", err)
		}
	}()

	def, err := game.LoadDefinition(cfg.WorldPath)
	if err != nil {
		return err
	}

	var store *journal.Store
	if path := strings.TrimSpace(cfg.JournalPath); path != "" {
		store, err = journal.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	invoker := llm.NewInvoker(llm.WithLogger(logger))
	invoker.Register(config.AgentOpenAI, llm.NewLimiter(cfg.Limits))

	out := progress.NewWriter(os.Stdout)

	var g errgroup.Group
	for i := 0; i < cfg.Sessions; i++ {
		seats, closeSeats, err := buildSeats(ctx, cfg, def, logger)
		if err != nil {
			_ = g.Wait()
			return err
		}
		reporter := out.NewReporter()
		g.Go(func() error {
			defer closeSeats()
			return playSession(ctx, cfg, def, seats, invoker, reporter, store, logger)
		})
	}
	return g.Wait()
}

func playSession(ctx context.Context, cfg config.Config, def *game.WorldDefinition, seats []game.Seat, invoker *llm.Invoker, reporter *progress.Reporter, store *journal.Store, logger *slog.Logger) error {
	logger = logger.With("session", reporter.Session().String())
	gameCfg := game.Config{
		Bindings:     commands.Registry(),
		Parser:       commands.Parser{},
		Invoker:      invoker,
		Reporter:     reporter,
		Logger:       logger,
		Timeout:      cfg.RequestTimeout,
		Rounds:       cfg.Rounds,
		ActionPoints: cfg.ActionPoints,
	}
	if store != nil {
		rec, err := store.StartSession(ctx, reporter.Session(), cfg.WorldPath)
		if err != nil {
			return err
		}
		gameCfg.Recorder = rec
	}

	world, err := game.RunSession(ctx, def, seats, gameCfg)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("session interrupted")
			return nil
		}
		return err
	}
	for _, c := range world.Characters() {
		logger.Info("final state", "character", c.ID, "room", c.Room, "status", c.Status, "ap", c.APDisplay())
	}
	return nil
}

// buildSeats seats one agent per character in definition order.
func buildSeats(ctx context.Context, cfg config.Config, def *game.WorldDefinition, logger *slog.Logger) ([]game.Seat, func(), error) {
	seats := make([]game.Seat, 0, len(def.Characters))
	noop := func() {}

	switch cfg.Agent {
	case config.AgentOpenAI:
		for _, cd := range def.Characters {
			seats = append(seats, game.Seat{
				Name:      string(cd.ID),
				Character: cd.ID,
				Provider:  config.AgentOpenAI,
				Agent: llm.NewChatAgent(llm.ChatConfig{
					APIKey:  cfg.OpenAI.APIKey,
					Model:   cfg.OpenAI.Model,
					BaseURL: cfg.OpenAI.BaseURL,
					System:  systemPrompt,
				}),
			})
		}
		return seats, noop, nil

	case config.AgentScript:
		var replies []string
		if path := strings.TrimSpace(cfg.ScriptPath); path != "" {
			var err error
			if replies, err = llm.LoadScript(path); err != nil {
				return nil, nil, err
			}
		}
		for _, cd := range def.Characters {
			seats = append(seats, game.Seat{
				Name:      string(cd.ID),
				Character: cd.ID,
				Provider:  config.AgentScript,
				Agent:     llm.NewScriptAgent(replies...),
			})
		}
		return seats, noop, nil

	case config.AgentTelnet:
		ln, err := net.Listen("tcp", cfg.TelnetAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("listen %s: %w", cfg.TelnetAddr, err)
		}
		defer ln.Close()
		logger.Info("waiting for telnet players", "addr", ln.Addr().String(), "seats", len(def.Characters))

		names := make([]string, len(def.Characters))
		for i, cd := range def.Characters {
			names[i] = string(cd.ID)
		}
		agents, err := telnet.Accept(ctx, ln, telnet.Lobby{
			Names:        names,
			PasswordHash: cfg.TelnetPasswordHash,
			Logger:       logger,
		})
		if err != nil {
			return nil, nil, err
		}
		for i, cd := range def.Characters {
			seats = append(seats, game.Seat{
				Name:      names[i],
				Character: cd.ID,
				Provider:  config.AgentTelnet,
				Agent:     agents[i],
			})
		}
		return seats, func() {
			for _, a := range agents {
				_ = a.Close()
			}
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown agent %q", cfg.Agent)
}
