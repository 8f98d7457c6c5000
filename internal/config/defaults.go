package config

import (
	"os"
	"path/filepath"
)

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Library: LibraryConfig{
			MusicDir: defaultMusicDir(),
			DBPath:   defaultDBPath(),
			Watch:    false,
		},
		Remote: RemoteConfig{
			Timeout:  10,
			CacheTTL: 60,
		},
		Defaults: DefaultsConfig{
			Volume: 80,
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
		},
		TUI: TUIConfig{
			Theme:           "auto",
			RefreshInterval: 1000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Library
	if c.Library.MusicDir == "" {
		c.Library.MusicDir = d.Library.MusicDir
	}
	if c.Library.DBPath == "" {
		c.Library.DBPath = d.Library.DBPath
	}

	// Remote
	if c.Remote.Timeout == 0 {
		c.Remote.Timeout = d.Remote.Timeout
	}
	if c.Remote.CacheTTL == 0 {
		c.Remote.CacheTTL = d.Remote.CacheTTL
	}

	// Defaults
	if c.Defaults.Volume == 0 {
		c.Defaults.Volume = d.Defaults.Volume
	}

	// TUI
	if c.TUI.Theme == "" {
		c.TUI.Theme = d.TUI.Theme
	}
	if c.TUI.RefreshInterval == 0 {
		c.TUI.RefreshInterval = d.TUI.RefreshInterval
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// defaultMusicDir returns ~/Music, or empty when the home directory is
// unknown (the onboarding wizard asks in that case).
func defaultMusicDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "Music")
}

// defaultDBPath returns the library database location under the user data
// directory.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "vinyl", "library.db")
}
