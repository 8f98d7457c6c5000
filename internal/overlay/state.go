package overlay

import "time"

// tickStep is the accrual quantum. The session monitor delivers one tick
// per second of wall time, whether or not playback is audible; the engine
// decides here which ticks count.
const tickStep = time.Second

// timerState holds the counters behind the overlay trigger heuristic.
// It is owned exclusively by the engine goroutine; every method is a plain
// transition so the whole table is testable without concurrency.
type timerState struct {
	activeListening  time.Duration
	songsPlayed      int
	lastTrackID      string
	sinceTrackChange time.Duration

	appActive bool
	playing   bool

	visible     bool
	ad          *Ad
	loadPending bool
}

// applyTick advances the accumulators by one step when playback is audible
// to the user, meaning something is playing and the app has focus.
func (s *timerState) applyTick() {
	if !s.playing || !s.appActive {
		return
	}
	s.activeListening += tickStep
	s.sinceTrackChange += tickStep
}

// applyTrackChange records a track transition. The previous track counts as
// a play when it accrued at least qualifyAfter of foreground listening.
// Reports whether the play counter advanced. A repeat of the current track
// ID changes nothing.
func (s *timerState) applyTrackChange(id string, qualifyAfter time.Duration) bool {
	if id == s.lastTrackID {
		return false
	}
	counted := false
	if s.lastTrackID != "" && s.sinceTrackChange >= qualifyAfter {
		s.songsPlayed++
		counted = true
	}
	s.lastTrackID = id
	s.sinceTrackChange = 0
	return counted
}

// shouldRequestLoad reports whether the trigger condition holds: nothing on
// screen, no load in flight, and either threshold reached.
func (s *timerState) shouldRequestLoad(cfg Config) bool {
	if s.visible || s.loadPending {
		return false
	}
	return s.activeListening >= cfg.ListenTarget || s.songsPlayed >= cfg.SongTarget
}

// applyLoaded stores the fetched content and puts the overlay on screen.
func (s *timerState) applyLoaded(ad *Ad) {
	s.loadPending = false
	s.ad = ad
	s.visible = true
}

// applyLoadFailed abandons the in-flight load and nothing else. The counters
// still satisfy the trigger condition, so the next tick retries.
func (s *timerState) applyLoadFailed() {
	s.loadPending = false
}

// applyDismiss takes the overlay down and restarts progress toward the next
// one. sinceTrackChange survives: it resets only when the track changes.
func (s *timerState) applyDismiss() {
	s.visible = false
	s.ad = nil
	s.activeListening = 0
	s.songsPlayed = 0
}

// resetProgress returns the heuristic to fresh idle. The appActive and
// playing flags mirror the environment rather than progress, so they
// survive; everything the user earned toward an overlay is dropped.
func (s *timerState) resetProgress() {
	s.activeListening = 0
	s.songsPlayed = 0
	s.lastTrackID = ""
	s.sinceTrackChange = 0
	s.visible = false
	s.ad = nil
	s.loadPending = false
}

func (s *timerState) view() ViewState {
	return ViewState{Visible: s.visible, Ad: s.ad}
}
