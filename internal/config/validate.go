package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Library.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("library: %w", err))
	}
	if err := c.Remote.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("remote: %w", err))
	}
	if err := c.Defaults.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("defaults: %w", err))
	}
	if err := c.TUI.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tui: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks LibraryConfig for errors.
func (c *LibraryConfig) Validate() error {
	if c.MusicDir == "" {
		return errors.New("music_dir must be set")
	}
	if c.DBPath == "" {
		return errors.New("db_path must be set")
	}
	return nil
}

// Validate checks RemoteConfig for errors.
func (c *RemoteConfig) Validate() error {
	for name, raw := range map[string]string{"base_url": c.BaseURL, "promo_url": c.PromoURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid %s: scheme must be http or https", name)
		}
	}
	if c.Timeout < 0 {
		return errors.New("timeout must be non-negative")
	}
	if c.CacheTTL < 0 {
		return errors.New("cache_ttl must be non-negative")
	}
	return nil
}

// Validate checks DefaultsConfig for errors.
func (c *DefaultsConfig) Validate() error {
	if c.Volume < 0 || c.Volume > 100 {
		return errors.New("volume must be between 0 and 100")
	}
	return nil
}

// Validate checks TUIConfig for errors.
func (c *TUIConfig) Validate() error {
	switch c.Theme {
	case "", "auto", "dark", "light":
		// valid
	default:
		return fmt.Errorf("invalid theme: %s (must be auto, dark, or light)", c.Theme)
	}
	if c.RefreshInterval < 0 {
		return errors.New("refresh_interval must be non-negative")
	}
	return nil
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	return nil
}
