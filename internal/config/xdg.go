// Package config provides XDG path helpers.
package config

import (
	"os"
	"path/filepath"
)

const appName = "studylog"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	return homeFallback(".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	return homeFallback(".local", "share")
}

// XDGStateHome returns the XDG state home or a default fallback.
func XDGStateHome() string {
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		return v
	}
	return homeFallback(".local", "state")
}

func homeFallback(parts ...string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(append([]string{home}, parts...)...)
}

// DefaultDBPath returns the default path for the SQLite database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), appName, appName+".db")
}

// DefaultTimerStatePath returns where the running timer snapshot is kept.
func DefaultTimerStatePath() string {
	return filepath.Join(XDGStateHome(), appName, "timer.json")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appName, "config.toml")
}

// DefaultBackupName returns the file name used by export when no path is given.
func DefaultBackupName(day string) string {
	return appName + "_backup_" + day + ".json"
}
