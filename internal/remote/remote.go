// Package remote fetches the application config document controlling the
// free tier: the ads flag, overlay thresholds, promo endpoint and the
// minimum supported version. The app must work offline, so every fetch
// falls back to the last cached document and then to built-in defaults.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/hashstructure/v2"
	"go.uber.org/zap"

	"github.com/marloch/vinyl/internal/overlay"
)

// AppConfig is the served configuration document.
type AppConfig struct {
	MinVersion string        `json:"min_version"`
	AdsEnabled bool          `json:"ads_enabled"`
	PromoURL   string        `json:"promo_url"`
	Overlay    OverlayConfig `json:"overlay"`
}

// OverlayConfig carries the overlay thresholds in milliseconds, the way the
// service serves them. Zero fields fall back to engine defaults.
type OverlayConfig struct {
	ListenTargetMS int `json:"listen_target_ms"`
	SongTarget     int `json:"song_target"`
	QualifyAfterMS int `json:"qualify_after_ms"`
	DismissAfterMS int `json:"dismiss_after_ms"`
}

// ToEngine converts the wire thresholds into an overlay configuration.
func (o OverlayConfig) ToEngine() overlay.Config {
	return overlay.Config{
		ListenTarget: time.Duration(o.ListenTargetMS) * time.Millisecond,
		SongTarget:   o.SongTarget,
		QualifyAfter: time.Duration(o.QualifyAfterMS) * time.Millisecond,
		DismissAfter: time.Duration(o.DismissAfterMS) * time.Millisecond,
	}
}

// DefaultAppConfig is what the app assumes with no service and no cache.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{AdsEnabled: true}
}

// Hash fingerprints a config document for change detection.
func Hash(cfg *AppConfig) uint64 {
	h, err := hashstructure.Hash(cfg, hashstructure.FormatV2, nil)
	if err != nil {
		return 0
	}
	return h
}

// Changed reports whether two documents differ.
func Changed(a, b *AppConfig) bool {
	return Hash(a) != Hash(b)
}

// Client fetches and caches the app config document.
type Client struct {
	baseURL   string
	http      *http.Client
	cachePath string
	ttl       time.Duration
	logger    *zap.Logger
}

// NewClient builds a client. baseURL may be empty, which keeps the client
// fully offline. cachePath may be empty to disable the disk cache.
func NewClient(logger *zap.Logger, baseURL, cachePath string, timeout, ttl time.Duration) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   baseURL,
		http:      &http.Client{Timeout: timeout},
		cachePath: cachePath,
		ttl:       ttl,
		logger:    logger,
	}
}

// Fetch performs a strict network fetch of the config document.
func (c *Client) Fetch(ctx context.Context) (*AppConfig, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/app-config", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("app-config: unexpected status %d", resp.StatusCode)
	}

	var cfg AppConfig
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("app-config: decoding: %w", err)
	}
	return &cfg, nil
}

// Load returns the effective config document. A fresh cache short-circuits
// the network; otherwise it fetches, falling back to any cache on disk and
// finally to defaults. Load never fails.
func (c *Client) Load(ctx context.Context) *AppConfig {
	if cached, fresh := c.readCache(); fresh {
		return cached
	}

	if c.baseURL == "" {
		if cached, _ := c.readCache(); cached != nil {
			return cached
		}
		return DefaultAppConfig()
	}

	fetched, err := c.Fetch(ctx)
	if err != nil {
		c.logger.Warn("app-config fetch failed", zap.Error(err))
		if cached, _ := c.readCache(); cached != nil {
			c.logger.Info("using cached app-config")
			return cached
		}
		return DefaultAppConfig()
	}

	if cached, _ := c.readCache(); cached != nil && Changed(cached, fetched) {
		c.logger.Info("app-config changed",
			zap.Uint64("old_hash", Hash(cached)),
			zap.Uint64("new_hash", Hash(fetched)))
	}
	c.writeCache(fetched)
	return fetched
}

// readCache loads the cached document. fresh is true when the file is
// younger than the TTL.
func (c *Client) readCache() (cfg *AppConfig, fresh bool) {
	if c.cachePath == "" {
		return nil, false
	}
	info, err := os.Stat(c.cachePath)
	if err != nil {
		return nil, false
	}
	data, err := os.ReadFile(c.cachePath)
	if err != nil {
		return nil, false
	}
	var doc AppConfig
	if err := json.Unmarshal(data, &doc); err != nil {
		c.logger.Warn("discarding corrupt app-config cache", zap.Error(err))
		return nil, false
	}
	age := time.Since(info.ModTime())
	return &doc, c.ttl > 0 && age < c.ttl
}

func (c *Client) writeCache(cfg *AppConfig) {
	if c.cachePath == "" {
		return
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.cachePath), 0o755); err != nil {
		c.logger.Warn("creating cache directory failed", zap.Error(err))
		return
	}
	if err := os.WriteFile(c.cachePath, data, 0o644); err != nil {
		c.logger.Warn("writing app-config cache failed", zap.Error(err))
	}
}
