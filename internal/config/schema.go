package config

// Config is the root configuration structure.
type Config struct {
	Library   LibraryConfig   `toml:"library"`
	Remote    RemoteConfig    `toml:"remote"`
	Defaults  DefaultsConfig  `toml:"defaults"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	TUI       TUIConfig       `toml:"tui"`
	Log       LogConfig       `toml:"log"`
}

// LibraryConfig holds music library settings.
type LibraryConfig struct {
	MusicDir string `toml:"music_dir"`
	DBPath   string `toml:"db_path"`
	Watch    bool   `toml:"watch"`
}

// RemoteConfig holds the app-config and promo service endpoints.
// Timeout is in seconds, CacheTTL in minutes.
type RemoteConfig struct {
	BaseURL  string `toml:"base_url"`
	PromoURL string `toml:"promo_url"`
	Timeout  int    `toml:"timeout"`
	CacheTTL int    `toml:"cache_ttl"`
}

// DefaultsConfig holds default playback settings.
type DefaultsConfig struct {
	Volume int `toml:"volume"`
}

// TelemetryConfig holds usage reporting settings.
type TelemetryConfig struct {
	Enabled bool `toml:"enabled"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme           string `toml:"theme"`
	RefreshInterval int    `toml:"refresh_interval"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}
