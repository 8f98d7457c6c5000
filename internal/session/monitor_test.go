package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/marloch/vinyl/internal/core"
)

type scriptedSource struct {
	mu    sync.Mutex
	state core.PlaybackState
}

func (s *scriptedSource) State() core.PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *scriptedSource) set(state core.PlaybackState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

type recordingDriver struct {
	mu    sync.Mutex
	calls []string
}

func (d *recordingDriver) Tick() { d.record("tick") }

func (d *recordingDriver) TrackChanged(id string) { d.record("track:" + id) }

func (d *recordingDriver) SetPlaying(playing bool) { d.record(fmt.Sprintf("playing:%t", playing)) }

func (d *recordingDriver) record(s string) {
	d.mu.Lock()
	d.calls = append(d.calls, s)
	d.mu.Unlock()
}

func (d *recordingDriver) snapshot() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.calls))
	copy(out, d.calls)
	return out
}

func (d *recordingDriver) waitFor(t *testing.T, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, c := range d.snapshot() {
			if c == want {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("never observed %q in %v", want, d.snapshot())
}

func track(id string) *core.Track {
	return &core.Track{ID: id, Title: id, Duration: 3 * time.Minute}
}

func TestMonitorReportsEdgesBeforeTicks(t *testing.T) {
	src := &scriptedSource{}
	drv := &recordingDriver{}
	m := NewMonitor(nil, src, drv, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)
	defer m.Stop()

	src.set(core.PlaybackState{Track: track("trk-1"), Playing: true})
	drv.waitFor(t, "track:trk-1")
	drv.waitFor(t, "playing:true")

	calls := drv.snapshot()
	trackAt, playAt, tickAt := -1, -1, -1
	for i, c := range calls {
		switch c {
		case "track:trk-1":
			trackAt = i
		case "playing:true":
			playAt = i
		}
		if c == "tick" && trackAt >= 0 && tickAt < 0 {
			tickAt = i
		}
	}
	if trackAt > playAt {
		t.Errorf("calls = %v, want track change before playing edge", calls)
	}
	if tickAt >= 0 && tickAt < trackAt {
		t.Errorf("calls = %v, want the poll's edges before its tick", calls)
	}
}

func TestMonitorReportsPauseEdge(t *testing.T) {
	src := &scriptedSource{state: core.PlaybackState{Track: track("trk-1"), Playing: true}}
	drv := &recordingDriver{}
	m := NewMonitor(nil, src, drv, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)
	defer m.Stop()

	drv.waitFor(t, "playing:true")

	src.set(core.PlaybackState{Track: track("trk-1"), Playing: false})
	drv.waitFor(t, "playing:false")
}

func TestMonitorIgnoresRepeatedState(t *testing.T) {
	src := &scriptedSource{state: core.PlaybackState{Track: track("trk-1"), Playing: true}}
	drv := &recordingDriver{}
	m := NewMonitor(nil, src, drv, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)
	defer m.Stop()

	drv.waitFor(t, "tick")
	time.Sleep(50 * time.Millisecond)
	m.Stop()

	trackEdges := 0
	for _, c := range drv.snapshot() {
		if c == "track:trk-1" {
			trackEdges++
		}
	}
	if trackEdges != 1 {
		t.Errorf("track edges = %d for a steady state, want 1", trackEdges)
	}
}

func TestMonitorTicksWhilePaused(t *testing.T) {
	src := &scriptedSource{state: core.PlaybackState{}}
	drv := &recordingDriver{}
	m := NewMonitor(nil, src, drv, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)
	defer m.Stop()

	// Ticks flow even with nothing playing; the engine decides what counts.
	drv.waitFor(t, "tick")
}

func TestMonitorStop(t *testing.T) {
	src := &scriptedSource{}
	drv := &recordingDriver{}
	m := NewMonitor(nil, src, drv, 10*time.Millisecond)

	errc := make(chan error, 1)
	go func() { errc <- m.Start(context.Background()) }()

	drv.waitFor(t, "tick")
	m.Stop()

	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Start() after Stop = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after Stop")
	}
}
