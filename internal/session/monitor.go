// Package session connects playback to the overlay engine: it polls the
// player once per second, reports track and play/pause edges, and delivers
// the tick that advances listening time.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/marloch/vinyl/internal/core"
)

// StateSource reports current playback. *player.Local satisfies it.
type StateSource interface {
	State() core.PlaybackState
}

// Driver receives playback signals. *overlay.Engine satisfies it. Foreground
// changes come from the UI layer, not from here.
type Driver interface {
	Tick()
	TrackChanged(id string)
	SetPlaying(playing bool)
}

// Monitor polls a StateSource and forwards edges and ticks to a Driver.
type Monitor struct {
	source   StateSource
	driver   Driver
	interval time.Duration
	logger   *zap.Logger

	done     chan struct{}
	stopOnce sync.Once
}

// NewMonitor creates a monitor polling source every interval.
func NewMonitor(logger *zap.Logger, source StateSource, driver Driver, interval time.Duration) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Monitor{
		source:   source,
		driver:   driver,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start polls until ctx is cancelled or Stop is called. Edges are delivered
// before the tick of the same poll, so a track change never counts under the
// old track.
func (m *Monitor) Start(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	prev := m.source.State()
	if prev.HasTrack() {
		m.driver.TrackChanged(prev.TrackID())
	}
	m.driver.SetPlaying(prev.Playing)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.done:
			return nil
		case <-ticker.C:
			curr := m.source.State()
			if curr.HasTrack() && curr.TrackID() != prev.TrackID() {
				m.logger.Debug("track change observed",
					zap.String("track_id", curr.TrackID()))
				m.driver.TrackChanged(curr.TrackID())
			}
			if curr.Playing != prev.Playing {
				m.driver.SetPlaying(curr.Playing)
			}
			m.driver.Tick()
			prev = curr
		}
	}
}

// Stop ends polling. Safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
}
