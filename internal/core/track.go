package core

import "time"

// Track represents a playable audio file from the local library.
type Track struct {
	ID       string        `json:"id"`
	AlbumID  string        `json:"album_id"`
	Title    string        `json:"title"`
	Artist   string        `json:"artist"`
	Album    string        `json:"album"`
	TrackNo  int           `json:"track_no"`
	Path     string        `json:"path"`
	Duration time.Duration `json:"duration"`
}

// Album groups the tracks found in one library directory.
type Album struct {
	ID         string        `json:"id"`
	Artist     string        `json:"artist"`
	Title      string        `json:"title"`
	Dir        string        `json:"dir"`
	TrackCount int           `json:"track_count"`
	Duration   time.Duration `json:"duration"`
	AddedAt    time.Time     `json:"added_at"`
}
