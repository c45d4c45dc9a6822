package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config fixture: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Engine.RiskFreeRate != 0.05 {
		t.Errorf("expected default risk-free rate 0.05, got %v", cfg.Engine.RiskFreeRate)
	}
	if cfg.Engine.DefaultVolatility != 0.30 {
		t.Errorf("expected default volatility 0.30, got %v", cfg.Engine.DefaultVolatility)
	}
	if cfg.Engine.BinomialSteps != 100 {
		t.Errorf("expected 100 binomial steps, got %d", cfg.Engine.BinomialSteps)
	}
	if cfg.Engine.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Engine.Workers)
	}
	if cfg.Engine.ZeroGammaCutoffDays != 60 {
		t.Errorf("expected 60-day cutoff, got %d", cfg.Engine.ZeroGammaCutoffDays)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Server.Port)
	}
	if cfg.Server.StreamInterval() != time.Second {
		t.Errorf("expected 1s stream interval, got %v", cfg.Server.StreamInterval())
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
engine:
  risk_free_rate: 0.04
  binomial_steps: 200
server:
  port: "9090"
  snapshot_path: /data/chain.jsonl
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Engine.RiskFreeRate != 0.04 {
		t.Errorf("expected rate 0.04 from file, got %v", cfg.Engine.RiskFreeRate)
	}
	if cfg.Engine.BinomialSteps != 200 {
		t.Errorf("expected 200 steps from file, got %d", cfg.Engine.BinomialSteps)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090 from file, got %q", cfg.Server.Port)
	}
	if cfg.Server.SnapshotPath != "/data/chain.jsonl" {
		t.Errorf("unexpected snapshot path %q", cfg.Server.SnapshotPath)
	}

	// Unset keys keep their defaults.
	if cfg.Engine.Workers != 4 {
		t.Errorf("expected default workers alongside file overrides, got %d", cfg.Engine.Workers)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GEX_PORT", "7070")
	t.Setenv("GEX_SNAPSHOT_PATH", "/env/chain.json")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("expected env port 7070, got %q", cfg.Server.Port)
	}
	if cfg.Server.SnapshotPath != "/env/chain.json" {
		t.Errorf("expected env snapshot path, got %q", cfg.Server.SnapshotPath)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"zero workers", "engine:\n  workers: 0\n", "workers"},
		{"one binomial step", "engine:\n  binomial_steps: 1\n", "binomial_steps"},
		{"negative volatility", "engine:\n  default_volatility: -0.1\n", "default_volatility"},
		{"zero rate limit", "server:\n  rate_per_second: 0\n", "rate_per_second"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error naming %q, got %v", tc.want, err)
			}
		})
	}
}
