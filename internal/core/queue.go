package core

// Queue is an ordered run of tracks with a play position. The zero value
// is an empty queue with no position.
type Queue struct {
	Tracks       []Track `json:"tracks"`
	CurrentIndex int     `json:"current_index"`
}

// NewQueue builds a queue positioned at start. An out-of-range start falls
// back to the first track.
func NewQueue(tracks []Track, start int) Queue {
	if start < 0 || start >= len(tracks) {
		start = 0
	}
	return Queue{Tracks: tracks, CurrentIndex: start}
}

// Current returns the track at the play position, or nil when the queue is
// empty or playback has not started.
func (q *Queue) Current() *Track {
	if q == nil || q.CurrentIndex < 0 || q.CurrentIndex >= len(q.Tracks) {
		return nil
	}
	return &q.Tracks[q.CurrentIndex]
}

// NextIndex returns the position after the current one, or -1 when the
// queue is exhausted.
func (q *Queue) NextIndex() int {
	if q == nil || q.CurrentIndex+1 >= len(q.Tracks) {
		return -1
	}
	return q.CurrentIndex + 1
}

// PrevIndex returns the position before the current one. Backing up past
// the first track stays on it.
func (q *Queue) PrevIndex() int {
	if q == nil || q.CurrentIndex <= 0 {
		return 0
	}
	return q.CurrentIndex - 1
}

// Len returns the number of queued tracks.
func (q *Queue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.Tracks)
}

// IsEmpty reports whether the queue has no tracks.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// Clone returns a copy whose track slice is independent of the original.
func (q *Queue) Clone() *Queue {
	c := Queue{
		Tracks:       make([]Track, len(q.Tracks)),
		CurrentIndex: q.CurrentIndex,
	}
	copy(c.Tracks, q.Tracks)
	return &c
}
