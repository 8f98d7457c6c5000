//go:build !cgo

package player

import (
	"sync"
	"time"

	"github.com/marloch/vinyl/internal/core"
)

// AudioAvailable indicates whether this build produces real audio output.
// Without cgo there is no sound device; playback is simulated in real time
// so the rest of the app behaves normally.
const AudioAvailable = false

// simBackend advances a silent clock for the duration of each track.
type simBackend struct {
	mu sync.Mutex

	timer   *time.Timer
	start   time.Time
	accrued time.Duration
	total   time.Duration
	running bool
	onDone  func()
	gen     uint64
}

// DefaultBackend returns the audio backend for this build.
func DefaultBackend() (Backend, error) {
	return &simBackend{}, nil
}

func (b *simBackend) Play(t core.Track, onDone func()) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopLocked()

	b.total = t.Duration
	if b.total <= 0 {
		b.total = 3 * time.Minute
	}
	b.accrued = 0
	b.start = time.Now()
	b.running = true
	b.onDone = onDone
	b.armLocked(b.total)
	return nil
}

// armLocked schedules completion after d. Caller holds mu.
func (b *simBackend) armLocked(d time.Duration) {
	b.gen++
	gen := b.gen
	b.timer = time.AfterFunc(d, func() { b.fire(gen) })
}

func (b *simBackend) fire(gen uint64) {
	b.mu.Lock()
	if gen != b.gen {
		b.mu.Unlock()
		return
	}
	b.running = false
	b.accrued = b.total
	b.timer = nil
	done := b.onDone
	b.onDone = nil
	b.mu.Unlock()
	if done != nil {
		done()
	}
}

func (b *simBackend) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		return
	}
	b.accrued += time.Since(b.start)
	b.running = false
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.gen++
}

func (b *simBackend) Resume() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running || b.onDone == nil || b.accrued >= b.total {
		return
	}
	b.start = time.Now()
	b.running = true
	b.armLocked(b.total - b.accrued)
}

func (b *simBackend) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()
}

func (b *simBackend) stopLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.gen++
	b.running = false
	b.accrued = 0
	b.total = 0
	b.onDone = nil
}

func (b *simBackend) Position() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return b.accrued + time.Since(b.start)
	}
	return b.accrued
}

func (b *simBackend) SetVolume(int) {}

func (b *simBackend) Close() error {
	b.Stop()
	return nil
}
