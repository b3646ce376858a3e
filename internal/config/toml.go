// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Timer      TimerConfig      `toml:"timer"`
	Stats      StatsConfig      `toml:"stats"`
	Log        LogConfig        `toml:"log"`
	Motivation MotivationConfig `toml:"motivation"`
}

// TimerConfig maps focus-timer settings.
type TimerConfig struct {
	MinSaveSeconds *int `toml:"min-save-seconds"`
	TickMs         *int `toml:"tick-ms"`
}

// StatsConfig maps dashboard settings.
type StatsConfig struct {
	Days *int `toml:"days"`
}

// LogConfig maps logger settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// MotivationConfig maps quote settings.
type MotivationConfig struct {
	QuotesFile *string `toml:"quotes-file"`
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
