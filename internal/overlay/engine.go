package overlay

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Events consumed by the engine goroutine. Every external input becomes one
// of these, including the completion of an async promo load.
type (
	evTick        struct{}
	evTrackChange struct{ id string }
	evForeground  struct{ active bool }
	evPlaying     struct{ playing bool }
	evDismiss     struct{}
	evPremium     struct{ premium bool }
	evAdsEnabled  struct{ enabled bool }
	evAdLoaded    struct{ ad *Ad }
	evAdFailed    struct{ reason string }
)

// Engine owns the overlay state machine. A single goroutine started by Start
// consumes events in arrival order; the exported methods only enqueue, so
// they are safe from any goroutine. Premium users and sessions with ads
// disabled see the engine as a pass-through: events are accepted and dropped.
type Engine struct {
	cfg      Config
	provider Provider
	sink     Sink
	logger   *zap.Logger

	events   chan any
	done     chan struct{}
	finished chan struct{}
	stop     sync.Once

	ctx    context.Context
	cancel context.CancelFunc

	// Owned by the run goroutine.
	premium      bool
	adsEnabled   bool
	st           timerState
	dismissTimer *time.Timer

	mu        sync.RWMutex
	snapshot  ViewState
	watchers  map[int]func(ViewState)
	nextWatch int
}

// NewEngine builds an engine with ads enabled and no premium entitlement.
// Call SetPremium and SetAdsEnabled after Start to reflect the real session.
func NewEngine(logger *zap.Logger, cfg Config, provider Provider, sink Sink) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = NopSink{}
	}
	return &Engine{
		cfg:        cfg.withDefaults(),
		provider:   provider,
		sink:       sink,
		logger:     logger,
		events:     make(chan any, 64),
		done:       make(chan struct{}),
		finished:   make(chan struct{}),
		adsEnabled: true,
		watchers:   make(map[int]func(ViewState)),
	}
}

// Start launches the engine goroutine. It returns immediately; the engine
// runs until ctx is cancelled or Close is called.
func (e *Engine) Start(ctx context.Context) {
	e.ctx, e.cancel = context.WithCancel(ctx)
	go e.run()
}

// Close stops the engine. Events delivered afterwards are dropped and no
// further state changes are published.
func (e *Engine) Close() {
	e.stop.Do(func() { close(e.done) })
}

// Tick reports one second of wall time. Delivered unconditionally by the
// session monitor; the engine decides whether it counts.
func (e *Engine) Tick() { e.deliver(evTick{}) }

// TrackChanged reports that the player moved to the track with the given ID.
func (e *Engine) TrackChanged(id string) { e.deliver(evTrackChange{id: id}) }

// SetForeground reports whether the app holds focus.
func (e *Engine) SetForeground(active bool) { e.deliver(evForeground{active: active}) }

// SetPlaying reports whether playback is running.
func (e *Engine) SetPlaying(playing bool) { e.deliver(evPlaying{playing: playing}) }

// Dismiss is the user closing the overlay card. A no-op when nothing is up.
func (e *Engine) Dismiss() { e.deliver(evDismiss{}) }

// SetPremium reports the premium entitlement. Turning it on hides any
// visible overlay and drops all progress.
func (e *Engine) SetPremium(premium bool) { e.deliver(evPremium{premium: premium}) }

// SetAdsEnabled reports the remote ads flag. Turning it off behaves like
// premium; turning it back on starts counting from zero.
func (e *Engine) SetAdsEnabled(enabled bool) { e.deliver(evAdsEnabled{enabled: enabled}) }

// Snapshot returns the last published view state.
func (e *Engine) Snapshot() ViewState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot
}

// Watch registers fn to be called on every view state change. The returned
// cancel unregisters it. fn runs on the engine goroutine and must not block.
func (e *Engine) Watch(fn func(ViewState)) (cancel func()) {
	e.mu.Lock()
	id := e.nextWatch
	e.nextWatch++
	e.watchers[id] = fn
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		delete(e.watchers, id)
		e.mu.Unlock()
	}
}

func (e *Engine) deliver(ev any) {
	select {
	case e.events <- ev:
	case <-e.done:
	case <-e.finished:
	}
}

func (e *Engine) run() {
	defer close(e.finished)
	defer e.cancel()
	defer e.stopDismissTimer()
	for {
		// Shutdown wins over queued events.
		select {
		case <-e.ctx.Done():
			return
		case <-e.done:
			return
		default:
		}
		select {
		case <-e.ctx.Done():
			return
		case <-e.done:
			return
		case ev := <-e.events:
			e.handle(ev)
		case <-e.dismissC():
			e.dismissTimer = nil
			e.dismiss(DismissAuto)
		}
	}
}

func (e *Engine) handle(ev any) {
	switch v := ev.(type) {
	case evPremium:
		if v.premium == e.premium {
			return
		}
		e.premium = v.premium
		e.applyBypassChange()
	case evAdsEnabled:
		if v.enabled == e.adsEnabled {
			return
		}
		e.adsEnabled = v.enabled
		e.applyBypassChange()
	case evForeground:
		e.st.appActive = v.active
	case evPlaying:
		e.st.playing = v.playing
	case evTick:
		if e.bypassed() {
			return
		}
		e.st.applyTick()
		e.maybeRequestLoad()
	case evTrackChange:
		if e.bypassed() {
			return
		}
		if e.st.applyTrackChange(v.id, e.cfg.QualifyAfter) {
			e.logger.Debug("song qualified",
				zap.Int("songs_played", e.st.songsPlayed),
				zap.Duration("active_listening", e.st.activeListening))
		}
	case evDismiss:
		if e.bypassed() || !e.st.visible {
			return
		}
		e.dismiss(DismissManual)
	case evAdLoaded:
		if e.bypassed() {
			return
		}
		e.st.applyLoaded(v.ad)
		e.armDismissTimer()
		e.logger.Debug("overlay shown", zap.String("ad_id", v.ad.ID))
		e.sink.AdShown(v.ad)
		e.publish()
	case evAdFailed:
		if e.bypassed() {
			return
		}
		e.st.applyLoadFailed()
		e.logger.Debug("promo load failed", zap.String("reason", v.reason))
		e.sink.AdLoadFailed(v.reason)
	}
}

// bypassed reports whether the session never shows overlays: premium
// entitlement or the remote ads flag turned off.
func (e *Engine) bypassed() bool {
	return e.premium || !e.adsEnabled
}

// applyBypassChange runs after premium or the ads flag flips. Entering
// bypass clears everything on screen and all progress; leaving it starts
// a fresh session from idle, which the entry reset already established.
func (e *Engine) applyBypassChange() {
	if !e.bypassed() {
		return
	}
	wasVisible := e.st.visible
	e.st.resetProgress()
	e.stopDismissTimer()
	if wasVisible {
		e.publish()
	}
}

// maybeRequestLoad checks the trigger condition once per tick and, when it
// holds, marks a load in flight and fetches off the engine goroutine. The
// result comes back as evAdLoaded or evAdFailed.
func (e *Engine) maybeRequestLoad() {
	if e.provider == nil || !e.st.shouldRequestLoad(e.cfg) {
		return
	}
	e.st.loadPending = true
	e.logger.Debug("promo triggered",
		zap.Duration("active_listening", e.st.activeListening),
		zap.Int("songs_played", e.st.songsPlayed))
	go e.load()
}

func (e *Engine) load() {
	ad, err := e.provider.Load(e.ctx)
	if err != nil {
		e.deliver(evAdFailed{reason: loadFailureReason(err)})
		return
	}
	if ad == nil {
		e.deliver(evAdFailed{reason: "malformed"})
		return
	}
	e.deliver(evAdLoaded{ad: ad})
}

func (e *Engine) dismiss(outcome DismissOutcome) {
	e.st.applyDismiss()
	e.stopDismissTimer()
	e.logger.Debug("overlay dismissed", zap.String("outcome", string(outcome)))
	e.sink.AdDismissed(outcome)
	e.publish()
}

func (e *Engine) armDismissTimer() {
	e.stopDismissTimer()
	e.dismissTimer = time.NewTimer(e.cfg.DismissAfter)
}

func (e *Engine) stopDismissTimer() {
	if e.dismissTimer != nil {
		e.dismissTimer.Stop()
		e.dismissTimer = nil
	}
}

// dismissC returns the pending auto-dismiss channel, or nil (which blocks
// in select) when no overlay is on screen.
func (e *Engine) dismissC() <-chan time.Time {
	if e.dismissTimer == nil {
		return nil
	}
	return e.dismissTimer.C
}

// publish recomputes the snapshot and notifies watchers when it changed.
func (e *Engine) publish() {
	next := e.st.view()
	e.mu.Lock()
	if next == e.snapshot {
		e.mu.Unlock()
		return
	}
	e.snapshot = next
	fns := make([]func(ViewState), 0, len(e.watchers))
	for _, fn := range e.watchers {
		fns = append(fns, fn)
	}
	e.mu.Unlock()
	for _, fn := range fns {
		fn(next)
	}
}
