package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	General GeneralConfig `mapstructure:"general"`
	UI      UIConfig      `mapstructure:"ui"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	History HistoryConfig `mapstructure:"history"`
	Log     LogConfig     `mapstructure:"log"`
}

type GeneralConfig struct {
	// DuckDBPath is the embedded engine's database file; empty means in-memory.
	DuckDBPath string `mapstructure:"duckdb_path"`
}

type UIConfig struct {
	Theme           string `mapstructure:"theme"`
	MouseEnabled    bool   `mapstructure:"mouse_enabled"`
	PanelWidthRatio int    `mapstructure:"panel_width_ratio"`
}

type FetchConfig struct {
	// TimeoutMS bounds a single metadata fetch; 0 leaves it to the transport.
	TimeoutMS int `mapstructure:"timeout_ms"`
	// RefreshFloorMS is the minimum visible duration of a refresh spinner.
	RefreshFloorMS int `mapstructure:"refresh_floor_ms"`
}

type HistoryConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	MaxEntries int  `mapstructure:"max_entries"`
}

type LogConfig struct {
	// File receives structured logs; empty disables logging. Logging to
	// stderr would corrupt the terminal UI.
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// GetDefaults returns a Config with all default values
func GetDefaults() *Config {
	return &Config{
		General: GeneralConfig{
			DuckDBPath: "",
		},
		UI: UIConfig{
			Theme:           "default",
			MouseEnabled:    true,
			PanelWidthRatio: 35,
		},
		Fetch: FetchConfig{
			TimeoutMS:      0,
			RefreshFloorMS: 500,
		},
		History: HistoryConfig{
			Enabled:    true,
			MaxEntries: 1000,
		},
		Log: LogConfig{
			File:  "",
			Level: "info",
		},
	}
}

// Dir returns the directory holding config, connections, and history files.
func Dir() string {
	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "dstree")
	}
	return "."
}

// Load loads configuration from files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath(Dir())
	v.AddConfigPath(".")

	v.SetDefault("general.duckdb_path", "")
	v.SetDefault("ui.theme", "default")
	v.SetDefault("ui.mouse_enabled", true)
	v.SetDefault("ui.panel_width_ratio", 35)
	v.SetDefault("fetch.timeout_ms", 0)
	v.SetDefault("fetch.refresh_floor_ms", 500)
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.max_entries", 1000)
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")

	// Missing file is fine, the defaults stand.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
