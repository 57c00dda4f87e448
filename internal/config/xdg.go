package config

import (
	"os"
	"path/filepath"
)

const appName = "studyboard"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appName, "config.toml")
}

// DefaultEnvPath returns the optional dotenv file read next to the config.
func DefaultEnvPath() string {
	return filepath.Join(XDGConfigHome(), appName, ".env")
}

// DefaultLogPath returns where the dashboard writes its log.
func DefaultLogPath() string {
	return filepath.Join(XDGDataHome(), appName, appName+".log")
}
