package persistence

import (
	"os"
	"path/filepath"
)

const appDirName = "sonusmix"

// DataDir resolves the directory state.json lives in: $SONUSMIX_DATA_DIR
// if set, else $XDG_DATA_HOME/sonusmix, else ~/.local/share/sonusmix
// (spec.md §6).
func DataDir() string {
	if dir := os.Getenv("SONUSMIX_DATA_DIR"); dir != "" {
		return dir
	}
	if base := os.Getenv("XDG_DATA_HOME"); base != "" {
		return filepath.Join(base, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", appDirName)
	}
	return filepath.Join(home, ".local", "share", appDirName)
}

// ConfigDir resolves the directory config.json lives in:
// $SONUSMIX_CONFIG_DIR if set, else $XDG_CONFIG_HOME/sonusmix, else
// ~/.config/sonusmix (spec.md §6).
func ConfigDir() string {
	if dir := os.Getenv("SONUSMIX_CONFIG_DIR"); dir != "" {
		return dir
	}
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", appDirName)
	}
	return filepath.Join(home, ".config", appDirName)
}

// StatePath returns the full path to state.json.
func StatePath() string { return filepath.Join(DataDir(), "state.json") }

// ConfigPath returns the full path to config.json.
func ConfigPath() string { return filepath.Join(ConfigDir(), "config.json") }
