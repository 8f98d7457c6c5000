//go:build cgo

package player

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/marloch/vinyl/internal/core"
)

// AudioAvailable indicates whether this build produces real audio output.
const AudioAvailable = true

// beepBackend plays MP3 files through the system audio device.
type beepBackend struct {
	mu sync.Mutex

	initialized bool
	sampleRate  beep.SampleRate

	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	percent  int
}

// DefaultBackend returns the audio backend for this build.
func DefaultBackend() (Backend, error) {
	return &beepBackend{sampleRate: beep.SampleRate(44100), percent: 100}, nil
}

func (b *beepBackend) Play(t core.Track, onDone func()) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopLocked()

	f, err := os.Open(t.Path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", t.Path, err)
	}
	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("decoding %s: %w", t.Path, err)
	}

	if !b.initialized {
		if err := speaker.Init(b.sampleRate, b.sampleRate.N(time.Second/10)); err != nil {
			streamer.Close()
			return fmt.Errorf("initializing speaker: %w", err)
		}
		b.initialized = true
	}

	b.streamer = streamer
	b.format = format

	resampled := beep.Resample(4, format.SampleRate, b.sampleRate, streamer)
	b.ctrl = &beep.Ctrl{Streamer: resampled}
	b.volume = &effects.Volume{
		Streamer: b.ctrl,
		Base:     2,
		Volume:   volumeGain(b.percent),
		Silent:   b.percent == 0,
	}

	speaker.Play(beep.Seq(b.volume, beep.Callback(func() {
		// The callback runs on the speaker goroutine; starting the next
		// track from here would deadlock on the speaker lock.
		go onDone()
	})))
	return nil
}

func (b *beepBackend) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctrl == nil {
		return
	}
	speaker.Lock()
	b.ctrl.Paused = true
	speaker.Unlock()
}

func (b *beepBackend) Resume() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctrl == nil {
		return
	}
	speaker.Lock()
	b.ctrl.Paused = false
	speaker.Unlock()
}

func (b *beepBackend) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()
}

func (b *beepBackend) stopLocked() {
	if !b.initialized {
		return
	}
	speaker.Clear()
	if b.streamer != nil {
		b.streamer.Close()
		b.streamer = nil
	}
	b.ctrl = nil
	b.volume = nil
}

func (b *beepBackend) Position() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := b.streamer.Position()
	speaker.Unlock()
	return b.format.SampleRate.D(pos)
}

func (b *beepBackend) SetVolume(percent int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.percent = percent
	if b.volume == nil {
		return
	}
	speaker.Lock()
	b.volume.Volume = volumeGain(percent)
	b.volume.Silent = percent == 0
	speaker.Unlock()
}

func (b *beepBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()
	return nil
}

// volumeGain maps 0..100 to a base-2 gain exponent: 100 is unity, lower
// percentages fall off logarithmically.
func volumeGain(percent int) float64 {
	return -2 + 2*float64(percent)/100
}
