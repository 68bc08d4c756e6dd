package config

import (
	"os"
	"path/filepath"
)

const envConfigDir = "LIQUER_CONFIG_DIR"

// Dir returns the directory holding settings, bindings, history and logs.
func Dir() string {
	if dir := os.Getenv(envConfigDir); dir != "" {
		return dir
	}
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		home, herr := os.UserHomeDir()
		if herr != nil || home == "" {
			return ".liquer"
		}
		return filepath.Join(home, ".liquer")
	}
	return filepath.Join(base, "liquer")
}

func HistoryPath() string {
	return filepath.Join(Dir(), "history.json")
}

func LogPath() string {
	return filepath.Join(Dir(), "liquer.log")
}
