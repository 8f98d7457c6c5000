package overlay

import (
	"context"
	"sync"
	"testing"
	"time"
)

// stubProvider serves a fixed ad, optionally failing the first few calls.
type stubProvider struct {
	mu       sync.Mutex
	calls    int
	failures int
	err      error
	ad       Ad
}

func (p *stubProvider) Load(ctx context.Context) (*Ad, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failures {
		return nil, p.err
	}
	ad := p.ad
	return &ad, nil
}

func (p *stubProvider) loadCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// recordSink collects observability events for assertions.
type recordSink struct {
	mu        sync.Mutex
	shown     []string
	failed    []string
	dismissed []DismissOutcome
}

func (s *recordSink) AdShown(ad *Ad) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shown = append(s.shown, ad.ID)
}

func (s *recordSink) AdLoadFailed(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, reason)
}

func (s *recordSink) AdDismissed(outcome DismissOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dismissed = append(s.dismissed, outcome)
}

func (s *recordSink) counts() (shown, failed, dismissed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.shown), len(s.failed), len(s.dismissed)
}

func (s *recordSink) lastDismissed() DismissOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.dismissed) == 0 {
		return ""
	}
	return s.dismissed[len(s.dismissed)-1]
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// startEngine builds and starts an engine that is cleaned up with the test.
func startEngine(t *testing.T, cfg Config, provider Provider, sink Sink) *Engine {
	t.Helper()
	e := NewEngine(nil, cfg, provider, sink)
	ctx, cancel := context.WithCancel(context.Background())
	e.Start(ctx)
	t.Cleanup(func() {
		e.Close()
		cancel()
	})
	return e
}

func TestEngineShowsOverlayAtListenTarget(t *testing.T) {
	provider := &stubProvider{ad: Ad{ID: "promo-1", Title: "Go Premium"}}
	sink := &recordSink{}
	cfg := Config{ListenTarget: 2 * time.Second, SongTarget: 100, QualifyAfter: time.Second, DismissAfter: time.Hour}
	e := startEngine(t, cfg, provider, sink)

	e.SetForeground(true)
	e.SetPlaying(true)
	e.Tick()
	e.Tick()

	waitFor(t, "overlay to show", func() bool { return e.Snapshot().Visible })

	snap := e.Snapshot()
	if snap.Ad == nil || snap.Ad.ID != "promo-1" {
		t.Errorf("Snapshot().Ad = %+v, want promo-1", snap.Ad)
	}
	if got := provider.loadCalls(); got != 1 {
		t.Errorf("provider calls = %d, want 1", got)
	}
	shown, _, _ := sink.counts()
	if shown != 1 {
		t.Errorf("shown events = %d, want 1", shown)
	}
}

func TestEngineShowsOverlayAtSongTarget(t *testing.T) {
	provider := &stubProvider{ad: Ad{ID: "promo-2"}}
	cfg := Config{ListenTarget: time.Hour, SongTarget: 2, QualifyAfter: time.Second, DismissAfter: time.Hour}
	e := startEngine(t, cfg, provider, &recordSink{})

	e.SetForeground(true)
	e.SetPlaying(true)
	e.TrackChanged("a")
	e.Tick()
	e.TrackChanged("b")
	e.Tick()
	e.TrackChanged("c")
	e.Tick()

	waitFor(t, "overlay to show", func() bool { return e.Snapshot().Visible })
	if got := provider.loadCalls(); got != 1 {
		t.Errorf("provider calls = %d, want 1", got)
	}
}

func TestEngineBackgroundTicksDoNotCount(t *testing.T) {
	provider := &stubProvider{ad: Ad{ID: "promo-3"}}
	cfg := Config{ListenTarget: 2 * time.Second, SongTarget: 100, QualifyAfter: time.Second, DismissAfter: time.Hour}
	e := startEngine(t, cfg, provider, &recordSink{})

	e.SetPlaying(true)
	e.Tick()
	e.Tick()
	e.Tick()
	e.SetForeground(true)
	e.Tick()
	e.Tick()

	waitFor(t, "overlay to show", func() bool { return e.Snapshot().Visible })
	// The three background ticks contributed nothing; only the two
	// foreground ticks reached the target, triggering a single load.
	if got := provider.loadCalls(); got != 1 {
		t.Errorf("provider calls = %d, want 1", got)
	}
}

func TestEngineRetriesAfterFailedLoad(t *testing.T) {
	provider := &stubProvider{
		ad:       Ad{ID: "promo-4"},
		failures: 1,
		err:      &ReasonError{Reason: "timeout"},
	}
	sink := &recordSink{}
	cfg := Config{ListenTarget: 2 * time.Second, SongTarget: 100, QualifyAfter: time.Second, DismissAfter: time.Hour}
	e := startEngine(t, cfg, provider, sink)

	e.SetForeground(true)
	e.SetPlaying(true)
	e.Tick()
	e.Tick()

	waitFor(t, "failed load to be reported", func() bool {
		_, failed, _ := sink.counts()
		return failed == 1
	})
	if e.Snapshot().Visible {
		t.Error("overlay visible after a failed load")
	}
	sink.mu.Lock()
	reason := sink.failed[0]
	sink.mu.Unlock()
	if reason != "timeout" {
		t.Errorf("failure reason = %q, want %q", reason, "timeout")
	}

	// The counters kept their value, so the next tick retries.
	e.Tick()
	waitFor(t, "overlay to show on retry", func() bool { return e.Snapshot().Visible })
	if got := provider.loadCalls(); got != 2 {
		t.Errorf("provider calls = %d, want 2", got)
	}
}

func TestEngineAutoDismiss(t *testing.T) {
	provider := &stubProvider{ad: Ad{ID: "promo-5"}}
	sink := &recordSink{}
	cfg := Config{ListenTarget: time.Second, SongTarget: 100, QualifyAfter: time.Second, DismissAfter: 50 * time.Millisecond}
	e := startEngine(t, cfg, provider, sink)

	e.SetForeground(true)
	e.SetPlaying(true)
	e.Tick()

	waitFor(t, "overlay to show", func() bool { return e.Snapshot().Visible })
	waitFor(t, "overlay to auto-dismiss", func() bool { return !e.Snapshot().Visible })

	if got := sink.lastDismissed(); got != DismissAuto {
		t.Errorf("dismiss outcome = %q, want %q", got, DismissAuto)
	}

	// Progress restarted from zero: one more tick reaches the target again.
	e.Tick()
	waitFor(t, "second overlay to show", func() bool { return e.Snapshot().Visible })
	if got := provider.loadCalls(); got != 2 {
		t.Errorf("provider calls = %d, want 2", got)
	}
}

func TestEngineManualDismiss(t *testing.T) {
	provider := &stubProvider{ad: Ad{ID: "promo-6"}}
	sink := &recordSink{}
	cfg := Config{ListenTarget: time.Second, SongTarget: 100, QualifyAfter: time.Second, DismissAfter: time.Hour}
	e := startEngine(t, cfg, provider, sink)

	e.SetForeground(true)
	e.SetPlaying(true)
	e.Tick()

	waitFor(t, "overlay to show", func() bool { return e.Snapshot().Visible })

	// Extra ticks while the overlay is up must not start another load.
	e.Tick()
	e.Tick()
	e.Dismiss()

	waitFor(t, "overlay to hide", func() bool { return !e.Snapshot().Visible })
	if got := sink.lastDismissed(); got != DismissManual {
		t.Errorf("dismiss outcome = %q, want %q", got, DismissManual)
	}
	if got := provider.loadCalls(); got != 1 {
		t.Errorf("provider calls = %d, want 1", got)
	}
}

func TestEngineDismissWithoutOverlayIsNoOp(t *testing.T) {
	provider := &stubProvider{ad: Ad{ID: "promo-7"}}
	sink := &recordSink{}
	cfg := Config{ListenTarget: time.Second, SongTarget: 100, QualifyAfter: time.Second, DismissAfter: time.Hour}
	e := startEngine(t, cfg, provider, sink)

	e.Dismiss()
	e.SetForeground(true)
	e.SetPlaying(true)
	e.Tick()

	// Events are handled in order, so once the overlay is up the earlier
	// dismiss has been processed.
	waitFor(t, "overlay to show", func() bool { return e.Snapshot().Visible })
	_, _, dismissed := sink.counts()
	if dismissed != 0 {
		t.Errorf("dismissed events = %d, want 0", dismissed)
	}
}

func TestEnginePremiumBypassesEverything(t *testing.T) {
	provider := &stubProvider{ad: Ad{ID: "promo-8"}}
	cfg := Config{ListenTarget: time.Second, SongTarget: 1, QualifyAfter: time.Second, DismissAfter: time.Hour}
	e := startEngine(t, cfg, provider, &recordSink{})

	e.SetPremium(true)
	e.SetForeground(true)
	e.SetPlaying(true)
	for i := 0; i < 10; i++ {
		e.Tick()
	}
	e.TrackChanged("a")
	e.Tick()
	e.TrackChanged("b")
	e.Tick()

	// Leaving premium starts a fresh session; a single tick then reaches
	// the listen target. Exactly one load proves none happened while
	// premium was active.
	e.SetPremium(false)
	e.Tick()
	waitFor(t, "overlay to show after premium ended", func() bool { return e.Snapshot().Visible })
	if got := provider.loadCalls(); got != 1 {
		t.Errorf("provider calls = %d, want 1", got)
	}
}

func TestEngineAdsFlagBypassesEverything(t *testing.T) {
	provider := &stubProvider{ad: Ad{ID: "promo-9"}}
	cfg := Config{ListenTarget: time.Second, SongTarget: 100, QualifyAfter: time.Second, DismissAfter: time.Hour}
	e := startEngine(t, cfg, provider, &recordSink{})

	e.SetAdsEnabled(false)
	e.SetForeground(true)
	e.SetPlaying(true)
	for i := 0; i < 10; i++ {
		e.Tick()
	}

	e.SetAdsEnabled(true)
	e.Tick()
	waitFor(t, "overlay to show after flag re-enabled", func() bool { return e.Snapshot().Visible })
	if got := provider.loadCalls(); got != 1 {
		t.Errorf("provider calls = %d, want 1", got)
	}
}

func TestEnginePremiumHidesVisibleOverlay(t *testing.T) {
	provider := &stubProvider{ad: Ad{ID: "promo-10"}}
	sink := &recordSink{}
	cfg := Config{ListenTarget: time.Second, SongTarget: 100, QualifyAfter: time.Second, DismissAfter: time.Hour}
	e := startEngine(t, cfg, provider, sink)

	e.SetForeground(true)
	e.SetPlaying(true)
	e.Tick()
	waitFor(t, "overlay to show", func() bool { return e.Snapshot().Visible })

	e.SetPremium(true)
	waitFor(t, "overlay to hide", func() bool { return !e.Snapshot().Visible })

	// Hiding through an entitlement change is not a dismissal.
	_, _, dismissed := sink.counts()
	if dismissed != 0 {
		t.Errorf("dismissed events = %d, want 0", dismissed)
	}
}

func TestEngineWatch(t *testing.T) {
	provider := &stubProvider{ad: Ad{ID: "promo-11"}}
	cfg := Config{ListenTarget: time.Second, SongTarget: 100, QualifyAfter: time.Second, DismissAfter: time.Hour}
	e := startEngine(t, cfg, provider, &recordSink{})

	var mu sync.Mutex
	var states []ViewState
	cancel := e.Watch(func(vs ViewState) {
		mu.Lock()
		states = append(states, vs)
		mu.Unlock()
	})

	e.SetForeground(true)
	e.SetPlaying(true)
	e.Tick()

	waitFor(t, "watcher to observe the overlay", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(states) == 1 && states[0].Visible
	})

	cancel()
	e.Dismiss()
	waitFor(t, "overlay to hide", func() bool { return !e.Snapshot().Visible })

	mu.Lock()
	n := len(states)
	mu.Unlock()
	if n != 1 {
		t.Errorf("watcher calls after cancel = %d, want 1", n)
	}
}

func TestEngineCloseDropsEvents(t *testing.T) {
	provider := &stubProvider{ad: Ad{ID: "promo-12"}}
	cfg := Config{ListenTarget: 5 * time.Second, SongTarget: 100, QualifyAfter: time.Second, DismissAfter: time.Hour}
	e := NewEngine(nil, cfg, provider, nil)
	e.Start(context.Background())

	e.SetForeground(true)
	e.SetPlaying(true)
	e.Close()
	for i := 0; i < 10; i++ {
		e.Tick()
	}

	time.Sleep(50 * time.Millisecond)
	if e.Snapshot().Visible {
		t.Error("overlay shown after Close")
	}
	if got := provider.loadCalls(); got != 0 {
		t.Errorf("provider calls = %d, want 0", got)
	}
}
