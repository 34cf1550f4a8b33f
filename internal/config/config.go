// Package config loads user-adjustable settings through viper, grounded
// on the pack's cmd/config.LoadConfig shape: set defaults, point viper at
// a file, log and continue on a missing file, fail only on a genuine
// parse error (spec.md §4.8).
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/viper"

	"github.com/sonusmix/sonusmix/internal/log"
)

// Settings are the recognized config.json keys (spec.md §6).
type Settings struct {
	LockEndpointConnections    bool    `mapstructure:"lock_endpoint_connections"`
	LockGroupNodeConnections   bool    `mapstructure:"lock_group_node_connections"`
	ShowGroupNodeChangeWarning bool    `mapstructure:"show_group_node_change_warning"`
	VolumeLimit                float64 `mapstructure:"volume_limit"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("lock_endpoint_connections", false)
	v.SetDefault("lock_group_node_connections", true)
	v.SetDefault("show_group_node_change_warning", true)
	v.SetDefault("volume_limit", 100.0)
}

// Load reads settings from configPath. A missing file is not an error:
// defaults are used and the event is logged, matching the teacher's
// "no config file found" behavior. A present-but-malformed file is a
// hard error.
func Load(configPath string) (Settings, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok || errors.Is(err, fs.ErrNotExist) {
			log.Infof("config: no config file found at %s, using defaults", configPath)
		} else {
			return Settings{}, fmt.Errorf("config: read %s: %w", configPath, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return s, nil
}

// Defaults returns the settings Load would produce with no config file
// present at all.
func Defaults() Settings {
	v := viper.New()
	setDefaults(v)
	var s Settings
	_ = v.Unmarshal(&s)
	return s
}
