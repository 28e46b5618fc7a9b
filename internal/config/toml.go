// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Roller  RollerConfig  `toml:"roller"`
	History HistoryConfig `toml:"history"`
}

// RollerConfig maps roller-related settings.
type RollerConfig struct {
	Notation *string `toml:"notation"`
	Color    *string `toml:"color"`
	User     *string `toml:"user"`
	Instance *string `toml:"instance"`
	MaxDice  *int    `toml:"max-dice"`
	LogLevel *string `toml:"log-level"`
}

// HistoryConfig maps history-related settings.
type HistoryConfig struct {
	Last   *int `toml:"last"`
	Window *int `toml:"window"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
