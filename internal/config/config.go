// Package config loads scanner settings from the config file, environment,
// and defaults, in that order of increasing precedence for the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Settings are the knobs consumed by the scan commands.
type Settings struct {
	// ScanOnlyNewVersions skips extensions whose installed version was
	// already classified. Manual scans override it.
	ScanOnlyNewVersions bool `mapstructure:"scan_only_new_versions"`
	// ScanEveryXHours gates scheduled scans; 0 disables interval gating.
	ScanEveryXHours int `mapstructure:"scan_every_x_hours"`
	// ScanOnStartup triggers a scheduled scan when `extrisk watch` starts.
	ScanOnStartup bool `mapstructure:"scan_on_startup"`
	// APIURL is the risk service base URL.
	APIURL string `mapstructure:"api_url"`
	// Database is a SQLite file path or a postgres:// DSN.
	Database string `mapstructure:"database"`
	// ExtensionsDir overrides the installed-extensions directory.
	ExtensionsDir string `mapstructure:"extensions_dir"`
}

const defaultAPIURL = "https://api.extrisk.io"

// Load reads settings. path may name a specific config file; when empty,
// ~/.extrisk/config.yaml is used if present. EXTRISK_* environment
// variables override file values (EXTRISK_SCAN_EVERY_X_HOURS, etc.).
func Load(path string) (*Settings, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}

	v := viper.New()
	v.SetDefault("scan_only_new_versions", true)
	v.SetDefault("scan_every_x_hours", 24)
	v.SetDefault("scan_on_startup", false)
	v.SetDefault("api_url", defaultAPIURL)
	v.SetDefault("database", filepath.Join(home, ".extrisk", "extrisk.db"))
	v.SetDefault("extensions_dir", "")

	v.SetEnvPrefix("EXTRISK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(home, ".extrisk"))
		if err := v.ReadInConfig(); err != nil {
			// Missing config file is fine; defaults and env apply.
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if settings.ScanEveryXHours < 0 {
		return nil, fmt.Errorf("scan_every_x_hours must not be negative (got %d)", settings.ScanEveryXHours)
	}
	return settings, nil
}
