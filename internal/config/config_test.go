package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[library]
music_dir = "/srv/music"
db_path = "/srv/music/library.db"

[remote]
base_url = "http://localhost:8976"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Library.MusicDir != "/srv/music" {
		t.Errorf("MusicDir = %q, want %q", cfg.Library.MusicDir, "/srv/music")
	}
	if cfg.Remote.BaseURL != "http://localhost:8976" {
		t.Errorf("BaseURL = %q, want %q", cfg.Remote.BaseURL, "http://localhost:8976")
	}
	if cfg.Remote.Timeout != 10 {
		t.Errorf("Timeout = %d, want 10", cfg.Remote.Timeout)
	}
	if cfg.Defaults.Volume != 80 {
		t.Errorf("Volume = %d, want 80", cfg.Defaults.Volume)
	}
	if cfg.TUI.RefreshInterval != 1000 {
		t.Errorf("RefreshInterval = %d, want 1000", cfg.TUI.RefreshInterval)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Level = %q, want %q", cfg.Log.Level, "info")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VINYL_LIBRARY_MUSIC_DIR", "/mnt/records")
	t.Setenv("VINYL_REMOTE_PROMO_URL", "https://ads.example.com/promo")
	t.Setenv("VINYL_TELEMETRY_ENABLED", "true")
	t.Setenv("VINYL_LOG_LEVEL", "debug")

	cfg := &Config{}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)

	if cfg.Library.MusicDir != "/mnt/records" {
		t.Errorf("MusicDir = %q, want %q", cfg.Library.MusicDir, "/mnt/records")
	}
	if cfg.Remote.PromoURL != "https://ads.example.com/promo" {
		t.Errorf("PromoURL = %q, want %q", cfg.Remote.PromoURL, "https://ads.example.com/promo")
	}
	if !cfg.Telemetry.Enabled {
		t.Error("Telemetry.Enabled = false, want true")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, want %q", cfg.Log.Level, "debug")
	}
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Library.MusicDir = "/srv/music"
	valid.Library.DBPath = "/srv/music/library.db"
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() on valid config = %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing music_dir", func(c *Config) { c.Library.MusicDir = "" }},
		{"bad scheme", func(c *Config) { c.Remote.BaseURL = "ftp://example.com" }},
		{"negative timeout", func(c *Config) { c.Remote.Timeout = -1 }},
		{"volume out of range", func(c *Config) { c.Defaults.Volume = 150 }},
		{"bad theme", func(c *Config) { c.TUI.Theme = "solarized" }},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.Library.MusicDir = "/srv/music"
			cfg.Library.DBPath = "/srv/music/library.db"
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")

	cfg := Default()
	cfg.Library.MusicDir = "/srv/music"
	cfg.Library.DBPath = "/srv/music/library.db"
	cfg.Telemetry.Enabled = true

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if loaded.Library.MusicDir != cfg.Library.MusicDir {
		t.Errorf("MusicDir = %q, want %q", loaded.Library.MusicDir, cfg.Library.MusicDir)
	}
	if !loaded.Telemetry.Enabled {
		t.Error("Telemetry.Enabled = false, want true")
	}
}
