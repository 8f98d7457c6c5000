// Package player implements local playback of library tracks with a queue,
// auto-advance and a swappable audio backend.
package player

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/marloch/vinyl/internal/core"
	verrors "github.com/marloch/vinyl/internal/errors"
	"github.com/marloch/vinyl/internal/library"
)

// Backend produces actual audio for one track at a time. Implementations
// must invoke onDone exactly once when the track plays to completion, and
// never after Stop or a later Play.
type Backend interface {
	Play(t core.Track, onDone func()) error
	Pause()
	Resume()
	Stop()
	Position() time.Duration
	SetVolume(percent int)
	Close() error
}

// Local plays queued library tracks through a Backend.
type Local struct {
	mu sync.RWMutex

	logger  *zap.Logger
	backend Backend
	store   *library.Store

	queue   core.Queue
	playing bool
	started bool

	// Incremented each time a new track starts; stale completion callbacks
	// from skipped tracks carry an old value and are ignored.
	playbackID uint64

	volume int
}

// New builds a player. store may be nil; when set, every track start is
// recorded in the play history.
func New(logger *zap.Logger, store *library.Store, backend Backend, volume int) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	backend.SetVolume(volume)
	return &Local{
		logger:  logger,
		backend: backend,
		store:   store,
		volume:  volume,
		queue:   core.Queue{CurrentIndex: -1},
	}
}

// PlayAlbum replaces the queue with tracks and starts at startIndex.
func (p *Local) PlayAlbum(tracks []core.Track, startIndex int) error {
	if len(tracks) == 0 {
		return verrors.ErrQueueEmpty
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = core.NewQueue(tracks, startIndex)
	return p.startLocked(p.queue.CurrentIndex)
}

// PlayAll replaces the queue with tracks and starts from the beginning.
func (p *Local) PlayAll(tracks []core.Track) error {
	return p.PlayAlbum(tracks, 0)
}

// Play starts the queue from its current position, or resumes when paused.
func (p *Local) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.queue.IsEmpty() {
		return verrors.ErrQueueEmpty
	}
	if p.started && !p.playing {
		p.backend.Resume()
		p.playing = true
		return nil
	}
	if p.playing {
		return nil
	}
	idx := p.queue.CurrentIndex
	if idx < 0 {
		idx = 0
	}
	return p.startLocked(idx)
}

// Pause pauses playback. Pausing an idle player is a no-op.
func (p *Local) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return nil
	}
	p.backend.Pause()
	p.playing = false
	return nil
}

// Toggle flips between playing and paused.
func (p *Local) Toggle() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return verrors.ErrNothingPlaying
	}
	if p.playing {
		p.backend.Pause()
		p.playing = false
	} else {
		p.backend.Resume()
		p.playing = true
	}
	return nil
}

// Next skips to the next queued track. At the end of the queue playback
// stops.
func (p *Local) Next() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.queue.IsEmpty() {
		return verrors.ErrQueueEmpty
	}
	next := p.queue.NextIndex()
	if next < 0 {
		p.stopLocked()
		return nil
	}
	return p.startLocked(next)
}

// Prev moves back one track, restarting the first track when already at
// the head of the queue.
func (p *Local) Prev() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.queue.IsEmpty() {
		return verrors.ErrQueueEmpty
	}
	return p.startLocked(p.queue.PrevIndex())
}

// SetVolume adjusts output volume, clamped to 0..100.
func (p *Local) SetVolume(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = percent
	p.backend.SetVolume(percent)
}

// Volume returns the current volume percentage.
func (p *Local) Volume() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.volume
}

// State reports what is playing right now.
func (p *Local) State() core.PlaybackState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	st := core.PlaybackState{Playing: p.playing}
	if p.started {
		if t := p.queue.Current(); t != nil {
			trackCopy := *t
			st.Track = &trackCopy
			st.Progress = p.backend.Position()
		}
	}
	return st
}

// Queue returns a copy of the play queue.
func (p *Local) Queue() *core.Queue {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.queue.Clone()
}

// Close stops playback and releases the audio device.
func (p *Local) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return p.backend.Close()
}

// startLocked begins playback of the track at index. Caller holds mu.
func (p *Local) startLocked(index int) error {
	p.queue.CurrentIndex = index
	track := p.queue.Tracks[index]

	p.playbackID++
	id := p.playbackID
	if err := p.backend.Play(track, func() { p.onTrackDone(id) }); err != nil {
		p.playing = false
		return err
	}
	p.started = true
	p.playing = true

	p.logger.Debug("track started",
		zap.String("track", track.Title),
		zap.String("artist", track.Artist))

	if p.store != nil {
		if err := p.store.AddHistory(&track, time.Now()); err != nil {
			p.logger.Warn("recording history failed", zap.Error(err))
		}
	}
	return nil
}

// onTrackDone advances the queue when the finished track is still current.
func (p *Local) onTrackDone(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id != p.playbackID {
		return
	}
	next := p.queue.NextIndex()
	if next < 0 {
		p.playing = false
		return
	}
	if err := p.startLocked(next); err != nil {
		p.logger.Warn("auto-advance failed", zap.Error(err))
		p.playing = false
	}
}

// stopLocked halts the backend without touching the queue position.
func (p *Local) stopLocked() {
	p.playbackID++
	p.backend.Stop()
	p.playing = false
	p.started = false
}
