package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"AgentClay/internal/llm"
	"AgentClay/internal/platform/otel"
)

// Prefix is prepended to every environment variable name.
const Prefix = "AGENTCLAY_"

// Agent kinds a seat can be driven by.
const (
	AgentOpenAI = "openai"
	AgentScript = "script"
	AgentTelnet = "telnet"
)

// OpenAI configures the chat completions backend.
type OpenAI struct {
	APIKey  string `env:"API_KEY"`
	Model   string `env:"MODEL" envDefault:"gpt-4o-mini"`
	BaseURL string `env:"BASE_URL"`
}

// Config is everything the host reads from its environment. Command-line
// flags override it field by field.
type Config struct {
	WorldPath      string        `env:"WORLD" envDefault:"data/world.json"`
	Rounds         int           `env:"ROUNDS"`
	ActionPoints   int           `env:"ACTION_POINTS"`
	Sessions       int           `env:"SESSIONS" envDefault:"1"`
	Agent          string        `env:"AGENT" envDefault:"openai"`
	ScriptPath     string        `env:"SCRIPT"`
	TelnetAddr     string        `env:"TELNET_ADDR" envDefault:":4000"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"2m"`
	JournalPath    string        `env:"JOURNAL"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`

	// TelnetPasswordHash is a bcrypt hash telnet players must match.
	TelnetPasswordHash string `env:"TELNET_PASSWORD_HASH"`

	OpenAI    OpenAI      `envPrefix:"OPENAI_"`
	Limits    llm.Limits  `envPrefix:"LIMITS_"`
	Telemetry otel.Config `envPrefix:"OTEL_"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: Prefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that the environment parser cannot.
func (c Config) Validate() error {
	if strings.TrimSpace(c.WorldPath) == "" {
		return fmt.Errorf("world path is required")
	}
	if c.Sessions < 1 {
		return fmt.Errorf("sessions must be at least 1, got %d", c.Sessions)
	}
	switch c.Agent {
	case AgentOpenAI, AgentScript:
	case AgentTelnet:
		if c.Sessions != 1 {
			return fmt.Errorf("telnet seats support a single session")
		}
	default:
		return fmt.Errorf("unknown agent %q", c.Agent)
	}
	if c.Rounds < 0 || c.ActionPoints < 0 {
		return fmt.Errorf("rounds and action points must not be negative")
	}
	return nil
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
