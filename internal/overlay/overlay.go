// Package overlay decides when the free-tier promo card appears during
// playback and when it disappears, based on cumulative foreground listening
// time, qualifying song plays, app focus and elapsed display time.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Ad is the promotional content shown on the overlay card.
type Ad struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	ActionURL string `json:"action_url"`
}

// ViewState is the single observable the rendering layer consumes.
// Ad is non-nil only while Visible is true.
type ViewState struct {
	Visible bool
	Ad      *Ad
}

// DismissOutcome tags how an overlay left the screen.
type DismissOutcome string

const (
	DismissAuto   DismissOutcome = "auto"
	DismissManual DismissOutcome = "manual"
)

// Provider loads promotional content. Load runs off the engine goroutine;
// its result re-enters the engine as a discrete event.
type Provider interface {
	Load(ctx context.Context) (*Ad, error)
}

// Sink receives overlay observability events. Calls arrive on the engine
// goroutine and must not block.
type Sink interface {
	AdShown(ad *Ad)
	AdLoadFailed(reason string)
	AdDismissed(outcome DismissOutcome)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) AdShown(*Ad)               {}
func (NopSink) AdLoadFailed(string)       {}
func (NopSink) AdDismissed(DismissOutcome) {}

// Config holds the timing thresholds driving the overlay.
type Config struct {
	// ListenTarget is the cumulative foreground listening time that triggers
	// a promo on its own.
	ListenTarget time.Duration
	// SongTarget is the number of qualifying song plays that triggers a promo.
	SongTarget int
	// QualifyAfter is the minimum foreground play time for a song to count
	// as played when the track changes.
	QualifyAfter time.Duration
	// DismissAfter is how long the overlay stays up before auto-dismissing.
	DismissAfter time.Duration
}

// DefaultConfig returns the stock free-tier thresholds.
func DefaultConfig() Config {
	return Config{
		ListenTarget: 12 * time.Minute,
		SongTarget:   6,
		QualifyAfter: 30 * time.Second,
		DismissAfter: 10 * time.Second,
	}
}

// withDefaults fills zero fields so a partially-populated remote document
// cannot disable the heuristic by accident.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ListenTarget <= 0 {
		c.ListenTarget = d.ListenTarget
	}
	if c.SongTarget <= 0 {
		c.SongTarget = d.SongTarget
	}
	if c.QualifyAfter <= 0 {
		c.QualifyAfter = d.QualifyAfter
	}
	if c.DismissAfter <= 0 {
		c.DismissAfter = d.DismissAfter
	}
	return c
}

// ReasonError attaches a short machine-readable reason code to a failed
// promo load, for the observability sink.
type ReasonError struct {
	Reason string
	Err    error
}

func (e *ReasonError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *ReasonError) Unwrap() error { return e.Err }

// loadFailureReason extracts the reason code from a provider error.
func loadFailureReason(err error) string {
	var re *ReasonError
	if errors.As(err, &re) && re.Reason != "" {
		return re.Reason
	}
	return "error"
}
