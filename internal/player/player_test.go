package player

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/marloch/vinyl/internal/core"
	verrors "github.com/marloch/vinyl/internal/errors"
	"github.com/marloch/vinyl/internal/library"
)

// fakeBackend records calls and lets tests complete tracks on demand.
type fakeBackend struct {
	mu      sync.Mutex
	played  []string
	paused  bool
	stopped int
	volume  int
	onDone  func()
}

func (f *fakeBackend) Play(t core.Track, onDone func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played = append(f.played, t.ID)
	f.onDone = onDone
	f.paused = false
	return nil
}

func (f *fakeBackend) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = true
}

func (f *fakeBackend) Resume() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = false
}

func (f *fakeBackend) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
	f.onDone = nil
}

func (f *fakeBackend) Position() time.Duration { return 42 * time.Second }

func (f *fakeBackend) SetVolume(percent int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = percent
}

func (f *fakeBackend) Close() error { return nil }

// finish simulates the current track playing to completion.
func (f *fakeBackend) finish() {
	f.mu.Lock()
	done := f.onDone
	f.mu.Unlock()
	if done != nil {
		done()
	}
}

func (f *fakeBackend) playedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.played))
	copy(out, f.played)
	return out
}

func testTracks() []core.Track {
	return []core.Track{
		{ID: "trk-1", Title: "One", Artist: "Band", Duration: 2 * time.Minute},
		{ID: "trk-2", Title: "Two", Artist: "Band", Duration: 2 * time.Minute},
		{ID: "trk-3", Title: "Three", Artist: "Band", Duration: 2 * time.Minute},
	}
}

func equalIDs(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestPlayAlbumStartsAtIndex(t *testing.T) {
	f := &fakeBackend{}
	p := New(nil, nil, f, 80)

	if err := p.PlayAlbum(testTracks(), 1); err != nil {
		t.Fatalf("PlayAlbum() error = %v", err)
	}

	if got := f.playedIDs(); !equalIDs(got, []string{"trk-2"}) {
		t.Errorf("played = %v, want [trk-2]", got)
	}
	st := p.State()
	if !st.Playing || st.Track == nil || st.Track.ID != "trk-2" {
		t.Errorf("State() = %+v, want playing trk-2", st)
	}
	if st.Progress != 42*time.Second {
		t.Errorf("Progress = %v, want 42s", st.Progress)
	}
}

func TestPlayAlbumClampsStartIndex(t *testing.T) {
	f := &fakeBackend{}
	p := New(nil, nil, f, 80)

	if err := p.PlayAlbum(testTracks(), 99); err != nil {
		t.Fatalf("PlayAlbum() error = %v", err)
	}

	if got := f.playedIDs(); !equalIDs(got, []string{"trk-1"}) {
		t.Errorf("played = %v, want [trk-1]", got)
	}
}

func TestAutoAdvanceThroughQueue(t *testing.T) {
	f := &fakeBackend{}
	p := New(nil, nil, f, 80)

	if err := p.PlayAll(testTracks()); err != nil {
		t.Fatalf("PlayAll() error = %v", err)
	}
	f.finish()
	f.finish()

	if got := f.playedIDs(); !equalIDs(got, []string{"trk-1", "trk-2", "trk-3"}) {
		t.Errorf("played = %v, want the full queue in order", got)
	}
	if !p.State().Playing {
		t.Error("State().Playing = false mid-queue")
	}

	f.finish()
	st := p.State()
	if st.Playing {
		t.Error("State().Playing = true after the last track finished")
	}
	if st.Track == nil || st.Track.ID != "trk-3" {
		t.Errorf("State().Track = %+v, want trk-3", st.Track)
	}
}

func TestStaleCompletionIgnored(t *testing.T) {
	f := &fakeBackend{}
	p := New(nil, nil, f, 80)

	if err := p.PlayAll(testTracks()); err != nil {
		t.Fatalf("PlayAll() error = %v", err)
	}
	f.mu.Lock()
	stale := f.onDone
	f.mu.Unlock()

	if err := p.Next(); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	stale()

	if got := f.playedIDs(); !equalIDs(got, []string{"trk-1", "trk-2"}) {
		t.Errorf("played = %v, want [trk-1 trk-2]", got)
	}
	if st := p.State(); st.Track == nil || st.Track.ID != "trk-2" {
		t.Errorf("State().Track = %+v, want trk-2", st.Track)
	}
}

func TestToggle(t *testing.T) {
	f := &fakeBackend{}
	p := New(nil, nil, f, 80)

	if err := p.Toggle(); !errors.Is(err, verrors.ErrNothingPlaying) {
		t.Errorf("Toggle() on idle = %v, want ErrNothingPlaying", err)
	}

	if err := p.PlayAll(testTracks()); err != nil {
		t.Fatalf("PlayAll() error = %v", err)
	}
	if err := p.Toggle(); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if p.State().Playing {
		t.Error("State().Playing = true after pause")
	}
	if err := p.Toggle(); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if !p.State().Playing {
		t.Error("State().Playing = false after resume")
	}
}

func TestNextAtEndStops(t *testing.T) {
	f := &fakeBackend{}
	p := New(nil, nil, f, 80)

	tracks := testTracks()
	if err := p.PlayAlbum(tracks, len(tracks)-1); err != nil {
		t.Fatalf("PlayAlbum() error = %v", err)
	}
	if err := p.Next(); err != nil {
		t.Fatalf("Next() at end error = %v", err)
	}
	if p.State().Playing {
		t.Error("State().Playing = true after Next at queue end")
	}
	if f.stopped == 0 {
		t.Error("backend never stopped")
	}
}

func TestPrevStepsBackThenRestarts(t *testing.T) {
	f := &fakeBackend{}
	p := New(nil, nil, f, 80)

	if err := p.PlayAlbum(testTracks(), 1); err != nil {
		t.Fatalf("PlayAlbum() error = %v", err)
	}
	if err := p.Prev(); err != nil {
		t.Fatalf("Prev() error = %v", err)
	}
	if err := p.Prev(); err != nil {
		t.Fatalf("Prev() at start error = %v", err)
	}

	if got := f.playedIDs(); !equalIDs(got, []string{"trk-2", "trk-1", "trk-1"}) {
		t.Errorf("played = %v, want [trk-2 trk-1 trk-1]", got)
	}
}

func TestPlayOnEmptyQueue(t *testing.T) {
	f := &fakeBackend{}
	p := New(nil, nil, f, 80)

	if err := p.Play(); !errors.Is(err, verrors.ErrQueueEmpty) {
		t.Errorf("Play() = %v, want ErrQueueEmpty", err)
	}
	if err := p.PlayAll(nil); !errors.Is(err, verrors.ErrQueueEmpty) {
		t.Errorf("PlayAll(nil) = %v, want ErrQueueEmpty", err)
	}
}

func TestHistoryRecorded(t *testing.T) {
	store, err := library.Open(":memory:")
	if err != nil {
		t.Fatalf("library.Open() error = %v", err)
	}
	defer store.Close()

	f := &fakeBackend{}
	p := New(nil, store, f, 80)

	if err := p.PlayAll(testTracks()); err != nil {
		t.Fatalf("PlayAll() error = %v", err)
	}
	f.finish()

	entries, err := store.History(10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("History() len = %d, want 2", len(entries))
	}
	if entries[0].Track.ID != "trk-2" || entries[1].Track.ID != "trk-1" {
		t.Errorf("History() order = %q, %q, want trk-2 then trk-1",
			entries[0].Track.ID, entries[1].Track.ID)
	}
}

func TestVolumeClamped(t *testing.T) {
	f := &fakeBackend{}
	p := New(nil, nil, f, 150)
	if p.Volume() != 100 {
		t.Errorf("Volume() = %d, want 100", p.Volume())
	}
	p.SetVolume(-5)
	if p.Volume() != 0 {
		t.Errorf("Volume() = %d after SetVolume(-5), want 0", p.Volume())
	}
	if f.volume != 0 {
		t.Errorf("backend volume = %d, want 0", f.volume)
	}
}

func TestQueueCopyIsolated(t *testing.T) {
	f := &fakeBackend{}
	p := New(nil, nil, f, 80)
	if err := p.PlayAll(testTracks()); err != nil {
		t.Fatalf("PlayAll() error = %v", err)
	}

	q := p.Queue()
	q.Tracks[0].Title = "mutated"
	if p.Queue().Tracks[0].Title == "mutated" {
		t.Error("Queue() shares backing storage with the player")
	}
}
