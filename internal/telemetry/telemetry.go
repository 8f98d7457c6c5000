// Package telemetry builds the application logger and records promo
// overlay events. Logs always go to a file: the terminal belongs to
// the player UI. Event recording is opt-in and stays on the local
// database, nothing leaves the machine.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/marloch/vinyl/internal/config"
	"github.com/marloch/vinyl/internal/library"
	"github.com/marloch/vinyl/internal/overlay"
)

// NewLogger builds the file-backed logger described by cfg. An empty
// Level means info, an empty File means the default log path.
func NewLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	path := cfg.File
	if path == "" {
		var err error
		path, err = DefaultLogPath()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{path}
	zc.ErrorOutputPaths = []string{path}
	return zc.Build()
}

// DefaultLogPath returns the standard location of the log file.
func DefaultLogPath() (string, error) {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("finding home directory: %w", err)
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, "vinyl", "vinyl.log"), nil
}

// EventStore is the slice of the library store the recorder needs.
type EventStore interface {
	AddEvent(name, attrs string, at time.Time) error
}

var _ EventStore = (*library.Store)(nil)

// Recorder implements overlay.Sink. It logs every overlay transition
// and, when enabled, keeps a local event row for each one.
type Recorder struct {
	store   EventStore
	logger  *zap.Logger
	enabled bool
}

var _ overlay.Sink = (*Recorder)(nil)

// NewRecorder builds a recorder. With enabled false, or a nil store,
// events are logged but not persisted.
func NewRecorder(logger *zap.Logger, store EventStore, enabled bool) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{store: store, logger: logger, enabled: enabled}
}

// AdShown records that an overlay became visible.
func (r *Recorder) AdShown(ad *overlay.Ad) {
	r.logger.Info("promo shown", zap.String("ad_id", ad.ID), zap.String("title", ad.Title))
	r.record("ad_shown", map[string]string{"ad_id": ad.ID})
}

// AdLoadFailed records a failed promo fetch.
func (r *Recorder) AdLoadFailed(reason string) {
	r.logger.Warn("promo load failed", zap.String("reason", reason))
	r.record("ad_load_failed", map[string]string{"reason": reason})
}

// AdDismissed records an overlay going away and how.
func (r *Recorder) AdDismissed(outcome overlay.DismissOutcome) {
	r.logger.Info("promo dismissed", zap.String("outcome", string(outcome)))
	r.record("ad_dismissed", map[string]string{"outcome": string(outcome)})
}

func (r *Recorder) record(name string, attrs map[string]string) {
	if !r.enabled || r.store == nil {
		return
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		data = []byte("{}")
	}
	if err := r.store.AddEvent(name, string(data), time.Now()); err != nil {
		r.logger.Warn("recording event", zap.String("event", name), zap.Error(err))
	}
}
