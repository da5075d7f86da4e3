// Package config loads the TOML file named on the command line into the
// settings internal/server and internal/session need to start: listen
// address, the variant allow-list, and policy knobs such as idle
// timeout, running-match cap, and visibility bans.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/chessmatch/chessmatchd/internal/wire"
)

// Config is the decoded shape of the server's TOML file.
type Config struct {
	Addr string `toml:"addr"`
	Port int    `toml:"port"`

	Variants         []int64 `toml:"variants"`
	AllowResetPuzzle bool    `toml:"allow_reset_puzzle"`
	Trace            bool    `toml:"trace"`

	IdleTimeoutSeconds int  `toml:"idle_timeout_seconds"`
	MaxRunningMatches  int  `toml:"max_running_matches"`
	BanPublicMatch     bool `toml:"ban_public_match"`
	BanPrivateMatch    bool `toml:"ban_private_match"`
}

// defaults returns the out-of-the-box server settings; Load applies
// them before decoding so a config file only needs to set what it wants
// to override.
func defaults() Config {
	return Config{
		Addr:               "0.0.0.0",
		Port:               39005,
		IdleTimeoutSeconds: 300,
	}
}

// Load reads and decodes the TOML file at path.
func Load(path string) (Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decoding %s: %w", path, err)
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("config: port %d out of range", cfg.Port)
	}

	return cfg, nil
}

// ListenAddr is the net.Listen-ready "host:port" string.
func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Addr, c.Port)
}

// IdleTimeout converts the configured seconds into a time.Duration; 0
// disables the idle timer entirely.
func (c Config) IdleTimeout() time.Duration {
	if c.IdleTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.IdleTimeoutSeconds) * time.Second
}

// VariantAllowList converts the configured variant ids into wire.Variant
// values; an empty list means every variant is allowed.
func (c Config) VariantAllowList() []wire.Variant {
	if len(c.Variants) == 0 {
		return nil
	}
	out := make([]wire.Variant, len(c.Variants))
	for i, v := range c.Variants {
		out[i] = wire.Variant(v)
	}
	return out
}
