package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WorldPath != "data/world.json" || cfg.Sessions != 1 || cfg.Agent != AgentOpenAI {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RequestTimeout != 2*time.Minute {
		t.Fatalf("request timeout = %s", cfg.RequestTimeout)
	}
	if cfg.Limits.MaxRetries != 3 || cfg.Limits.RetryDelay != time.Second || cfg.Limits.BackoffMultiplier != 2 {
		t.Fatalf("limit defaults = %+v", cfg.Limits)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadNestedPrefixes(t *testing.T) {
	t.Setenv("AGENTCLAY_ROUNDS", "4")
	t.Setenv("AGENTCLAY_OPENAI_MODEL", "gpt-test")
	t.Setenv("AGENTCLAY_LIMITS_RPM", "2")
	t.Setenv("AGENTCLAY_LIMITS_RETRY_DELAY", "30s")
	t.Setenv("AGENTCLAY_OTEL_ENDPOINT", "http://collector:4318")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Rounds != 4 || cfg.OpenAI.Model != "gpt-test" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Limits.RequestsPerMinute != 2 || cfg.Limits.RetryDelay != 30*time.Second {
		t.Fatalf("limits = %+v", cfg.Limits)
	}
	if cfg.Telemetry.Endpoint != "http://collector:4318" || !cfg.Telemetry.Enabled {
		t.Fatalf("telemetry = %+v", cfg.Telemetry)
	}
}

func TestLoadError(t *testing.T) {
	t.Setenv("AGENTCLAY_SESSIONS", "many")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	base, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cases := map[string]func(*Config){
		"no world":        func(c *Config) { c.WorldPath = " " },
		"zero sessions":   func(c *Config) { c.Sessions = 0 },
		"unknown agent":   func(c *Config) { c.Agent = "oracle" },
		"telnet parallel": func(c *Config) { c.Agent = AgentTelnet; c.Sessions = 2 },
		"negative rounds": func(c *Config) { c.Rounds = -1 },
	}
	for name, mutate := range cases {
		cfg := base
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
