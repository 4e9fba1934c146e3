// Package config loads VM settings from a TOML file.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Log    Log    `toml:"log"`
	Limits Limits `toml:"limits"`
}

type Log struct {
	// Verbosity maps to logger verbosity: 0 is errors and warnings
	// only, higher values add info, debug and trace output.
	Verbosity int `toml:"verbosity"`
}

type Limits struct {
	MaxCallDepth int `toml:"max-call-depth"`
}

func Default() Config {
	return Config{
		Limits: Limits{MaxCallDepth: 512},
	}
}

// Load reads path as TOML over the defaults. Unknown keys are an
// error so typos do not silently fall back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config: unknown key %q", undecoded[0].String())
	}
	if cfg.Limits.MaxCallDepth <= 0 {
		return Config{}, fmt.Errorf("config: max-call-depth must be positive")
	}
	return cfg, nil
}
