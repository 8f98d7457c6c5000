package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.vinylrc, $XDG_CONFIG_HOME/vinyl/config.toml, ~/.config/vinyl/config.toml
func Load() (*Config, error) {
	cfg := &Config{}

	// Try loading from file
	path := findConfigFile()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	// Apply defaults, then environment variable overrides
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// DefaultPath returns where Save should write when no config file exists yet:
// $XDG_CONFIG_HOME/vinyl/config.toml or ~/.config/vinyl/config.toml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	return filepath.Join(xdgConfig, "vinyl", "config.toml")
}

// Exists reports whether any config file is present in the search path.
func Exists() bool {
	return findConfigFile() != ""
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	paths := []string{
		filepath.Join(home, ".vinylrc"),
	}

	// XDG_CONFIG_HOME or default
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	paths = append(paths, filepath.Join(xdgConfig, "vinyl", "config.toml"))

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Library
	if v := os.Getenv("VINYL_LIBRARY_MUSIC_DIR"); v != "" {
		cfg.Library.MusicDir = v
	}
	if v := os.Getenv("VINYL_LIBRARY_DB_PATH"); v != "" {
		cfg.Library.DBPath = v
	}
	if v := os.Getenv("VINYL_LIBRARY_WATCH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Library.Watch = b
		}
	}

	// Remote
	if v := os.Getenv("VINYL_REMOTE_BASE_URL"); v != "" {
		cfg.Remote.BaseURL = v
	}
	if v := os.Getenv("VINYL_REMOTE_PROMO_URL"); v != "" {
		cfg.Remote.PromoURL = v
	}
	if v := os.Getenv("VINYL_REMOTE_TIMEOUT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Remote.Timeout = i
		}
	}

	// Defaults
	if v := os.Getenv("VINYL_DEFAULTS_VOLUME"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Defaults.Volume = i
		}
	}

	// Telemetry
	if v := os.Getenv("VINYL_TELEMETRY_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Telemetry.Enabled = b
		}
	}

	// TUI
	if v := os.Getenv("VINYL_TUI_THEME"); v != "" {
		cfg.TUI.Theme = v
	}
	if v := os.Getenv("VINYL_TUI_REFRESH_INTERVAL"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.TUI.RefreshInterval = i
		}
	}

	// Log
	if v := os.Getenv("VINYL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("VINYL_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}
