package core

import "time"

// Player defines the interface for local music playback control.
type Player interface {
	// Playback control
	Play() error
	Pause() error
	Toggle() error
	Next() error
	Prev() error

	// Queue loading
	PlayAlbum(tracks []Track, startIndex int) error
	PlayAll(tracks []Track) error

	// State queries
	State() PlaybackState
	Queue() *Queue

	// Close releases the audio backend. The player is unusable afterwards.
	Close() error
}

// HistoryEntry represents a recently played track.
type HistoryEntry struct {
	Track    *Track    `json:"track"`
	PlayedAt time.Time `json:"played_at"`
}
