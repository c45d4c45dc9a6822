package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Engine EngineConfig `mapstructure:"engine"`
	Server ServerConfig `mapstructure:"server"`
}

// EngineConfig holds the analytics parameters threaded through every request.
type EngineConfig struct {
	RiskFreeRate        float64 `mapstructure:"risk_free_rate"`
	DefaultVolatility   float64 `mapstructure:"default_volatility"`
	BinomialSteps       int     `mapstructure:"binomial_steps"`
	Workers             int     `mapstructure:"workers"`
	ZeroGammaCutoffDays int     `mapstructure:"zero_gamma_cutoff_days"`
}

type ServerConfig struct {
	Port              string `mapstructure:"port"`
	SnapshotPath      string `mapstructure:"snapshot_path"`
	RatePerSecond     int    `mapstructure:"rate_per_second"`
	StreamIntervalSec int    `mapstructure:"stream_interval_sec"`
}

func (s ServerConfig) StreamInterval() time.Duration {
	return time.Duration(s.StreamIntervalSec) * time.Second
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("engine.risk_free_rate", 0.05)
	v.SetDefault("engine.default_volatility", 0.30)
	v.SetDefault("engine.binomial_steps", 100)
	v.SetDefault("engine.workers", 4)
	v.SetDefault("engine.zero_gamma_cutoff_days", 60)
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.rate_per_second", 10)
	v.SetDefault("server.stream_interval_sec", 1)

	// Environment variable support
	v.SetEnvPrefix("GEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Explicitly bind nested keys to env vars
	_ = v.BindEnv("server.snapshot_path", "GEX_SNAPSHOT_PATH")
	_ = v.BindEnv("server.port", "GEX_PORT")

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Engine.DefaultVolatility <= 0 {
		return fmt.Errorf("default_volatility must be > 0")
	}
	if c.Engine.BinomialSteps < 2 {
		return fmt.Errorf("binomial_steps must be >= 2")
	}
	if c.Engine.Workers < 1 {
		return fmt.Errorf("workers must be >= 1")
	}
	if c.Engine.ZeroGammaCutoffDays < 1 {
		return fmt.Errorf("zero_gamma_cutoff_days must be >= 1")
	}
	if c.Server.RatePerSecond < 1 {
		return fmt.Errorf("rate_per_second must be >= 1")
	}
	return nil
}
