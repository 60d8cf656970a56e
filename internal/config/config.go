// Package config loads the process configuration: a YAML file as the
// base, environment variables on top.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// TokenDecimals is the base-unit scale of fee amounts: one token is
// 10^9 base units.
const TokenDecimals = 9

// Config is the full process configuration.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Server  ServerConfig  `yaml:"server"`
	Journal JournalConfig `yaml:"journal"`
	Chain   ChainConfig   `yaml:"chain"`

	LogLevel string `yaml:"log_level" env:"CRITTERCHAIN_LOG_LEVEL"`
}

// EngineConfig carries the game rules.
type EngineConfig struct {
	Cooldown time.Duration `yaml:"cooldown" env:"CRITTERCHAIN_COOLDOWN"`
	// LevelUpFee is a human-denominated token amount, e.g. "0.001".
	LevelUpFee    string `yaml:"level_up_fee" env:"CRITTERCHAIN_LEVEL_UP_FEE"`
	WinThreshold  uint64 `yaml:"win_threshold" env:"CRITTERCHAIN_WIN_THRESHOLD"`
	HybridSpecies string `yaml:"hybrid_species" env:"CRITTERCHAIN_HYBRID_SPECIES"`
	Admin         string `yaml:"admin" env:"CRITTERCHAIN_ADMIN"`
}

// ServerConfig carries the API listener settings.
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr" env:"CRITTERCHAIN_LISTEN_ADDR"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"CRITTERCHAIN_SHUTDOWN_TIMEOUT"`
	EventBuffer     int           `yaml:"event_buffer" env:"CRITTERCHAIN_EVENT_BUFFER"`
}

// JournalConfig carries persistence paths. Empty paths disable the
// corresponding layer.
type JournalConfig struct {
	Path        string `yaml:"path" env:"CRITTERCHAIN_JOURNAL_PATH"`
	SnapshotDir string `yaml:"snapshot_dir" env:"CRITTERCHAIN_SNAPSHOT_DIR"`
}

// ChainConfig drives the simulated substrate.
type ChainConfig struct {
	NetworkSeed   string        `yaml:"network_seed" env:"CRITTERCHAIN_NETWORK_SEED"`
	BlockInterval time.Duration `yaml:"block_interval" env:"CRITTERCHAIN_BLOCK_INTERVAL"`
}

// Default returns the configuration the server runs with when no file
// or environment is provided.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			Cooldown:      24 * time.Hour,
			LevelUpFee:    "0.001",
			WinThreshold:  70,
			HybridSpecies: "kitty",
		},
		Server: ServerConfig{
			ListenAddr:      "127.0.0.1:8970",
			ShutdownTimeout: 10 * time.Second,
			EventBuffer:     256,
		},
		Chain: ChainConfig{
			NetworkSeed:   "critterchain-dev",
			BlockInterval: 10 * time.Second,
		},
		LogLevel: "info",
	}
}

// Load builds the configuration from defaults, then the YAML file at
// path (skipped when path is empty), then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run under.
func (c Config) Validate() error {
	if c.Engine.Cooldown <= 0 {
		return fmt.Errorf("engine.cooldown must be positive")
	}
	if c.Engine.WinThreshold == 0 || c.Engine.WinThreshold > 100 {
		return fmt.Errorf("engine.win_threshold must be in [1,100], got %d", c.Engine.WinThreshold)
	}
	if _, err := c.LevelUpFeeBaseUnits(); err != nil {
		return err
	}
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr must be set")
	}
	return nil
}

// LevelUpFeeBaseUnits converts the human-denominated fee to base units.
// The amount must be non-negative, representable at TokenDecimals and
// fit in a uint64.
func (c Config) LevelUpFeeBaseUnits() (uint64, error) {
	d, err := decimal.NewFromString(c.Engine.LevelUpFee)
	if err != nil {
		return 0, fmt.Errorf("engine.level_up_fee: %w", err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("engine.level_up_fee must not be negative")
	}
	scaled := d.Shift(TokenDecimals)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("engine.level_up_fee has more than %d decimal places", TokenDecimals)
	}
	if !scaled.BigInt().IsUint64() {
		return 0, fmt.Errorf("engine.level_up_fee does not fit in 64 bits")
	}
	return scaled.BigInt().Uint64(), nil
}
