// Package library indexes the music directory into a local SQLite database
// and serves album, track, history, feedback and telemetry rows to the rest
// of the app.
package library

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/marloch/vinyl/internal/core"
	verrors "github.com/marloch/vinyl/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS albums (
	id          TEXT PRIMARY KEY,
	artist      TEXT NOT NULL,
	title       TEXT NOT NULL,
	dir         TEXT NOT NULL UNIQUE,
	track_count INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	added_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tracks (
	id          TEXT PRIMARY KEY,
	album_id    TEXT NOT NULL REFERENCES albums(id) ON DELETE CASCADE,
	title       TEXT NOT NULL,
	artist      TEXT NOT NULL,
	album       TEXT NOT NULL,
	track_no    INTEGER NOT NULL DEFAULT 0,
	path        TEXT NOT NULL UNIQUE,
	duration_ms INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS history (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	track_id  TEXT NOT NULL,
	title     TEXT NOT NULL,
	artist    TEXT NOT NULL,
	played_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS feedback (
	id         TEXT PRIMARY KEY,
	message    TEXT NOT NULL,
	contact    TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	sent_at    INTEGER
);

CREATE TABLE IF NOT EXISTS events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	attrs      TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
`

// Store wraps the SQLite database holding the library index and app data.
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if necessary) the database at path and ensures the
// schema exists. Pass ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}
	db, err := sqlx.Connect("sqlite3", path+"?_fk=1")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

type albumRow struct {
	ID         string `db:"id"`
	Artist     string `db:"artist"`
	Title      string `db:"title"`
	Dir        string `db:"dir"`
	TrackCount int    `db:"track_count"`
	DurationMS int64  `db:"duration_ms"`
	AddedAt    int64  `db:"added_at"`
}

type trackRow struct {
	ID         string `db:"id"`
	AlbumID    string `db:"album_id"`
	Title      string `db:"title"`
	Artist     string `db:"artist"`
	Album      string `db:"album"`
	TrackNo    int    `db:"track_no"`
	Path       string `db:"path"`
	DurationMS int64  `db:"duration_ms"`
}

func (r albumRow) toCore() core.Album {
	return core.Album{
		ID:         r.ID,
		Artist:     r.Artist,
		Title:      r.Title,
		Dir:        r.Dir,
		TrackCount: r.TrackCount,
		Duration:   time.Duration(r.DurationMS) * time.Millisecond,
		AddedAt:    time.Unix(r.AddedAt, 0),
	}
}

func (r trackRow) toCore() core.Track {
	return core.Track{
		ID:       r.ID,
		AlbumID:  r.AlbumID,
		Title:    r.Title,
		Artist:   r.Artist,
		Album:    r.Album,
		TrackNo:  r.TrackNo,
		Path:     r.Path,
		Duration: time.Duration(r.DurationMS) * time.Millisecond,
	}
}

// SaveScan replaces the whole library index in one transaction.
func (s *Store) SaveScan(albums []core.Album, tracks []core.Track) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tracks`); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM albums`); err != nil {
		return err
	}
	for _, a := range albums {
		_, err := tx.Exec(
			`INSERT INTO albums (id, artist, title, dir, track_count, duration_ms, added_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.Artist, a.Title, a.Dir, a.TrackCount, a.Duration.Milliseconds(), a.AddedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("inserting album %q: %w", a.Title, err)
		}
	}
	for _, t := range tracks {
		_, err := tx.Exec(
			`INSERT INTO tracks (id, album_id, title, artist, album, track_no, path, duration_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.AlbumID, t.Title, t.Artist, t.Album, t.TrackNo, t.Path, t.Duration.Milliseconds(),
		)
		if err != nil {
			return fmt.Errorf("inserting track %q: %w", t.Title, err)
		}
	}
	return tx.Commit()
}

// Albums returns every album ordered by artist then title.
func (s *Store) Albums() ([]core.Album, error) {
	var rows []albumRow
	err := s.db.Select(&rows, `SELECT * FROM albums ORDER BY artist, title`)
	if err != nil {
		return nil, err
	}
	albums := make([]core.Album, len(rows))
	for i, r := range rows {
		albums[i] = r.toCore()
	}
	return albums, nil
}

// AlbumTracks returns an album's tracks in track order.
func (s *Store) AlbumTracks(albumID string) ([]core.Track, error) {
	var rows []trackRow
	err := s.db.Select(&rows,
		`SELECT * FROM tracks WHERE album_id = ? ORDER BY track_no, title`, albumID)
	if err != nil {
		return nil, err
	}
	tracks := make([]core.Track, len(rows))
	for i, r := range rows {
		tracks[i] = r.toCore()
	}
	return tracks, nil
}

// AllTracks returns the whole index in artist/album/track order.
func (s *Store) AllTracks() ([]core.Track, error) {
	var rows []trackRow
	err := s.db.Select(&rows,
		`SELECT * FROM tracks ORDER BY artist, album, track_no, title`)
	if err != nil {
		return nil, err
	}
	tracks := make([]core.Track, len(rows))
	for i, r := range rows {
		tracks[i] = r.toCore()
	}
	return tracks, nil
}

// FindAlbum returns the first album whose title or artist matches query,
// case-insensitively, or ErrAlbumNotFound.
func (s *Store) FindAlbum(query string) (*core.Album, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	var row albumRow
	err := s.db.Get(&row,
		`SELECT * FROM albums
		 WHERE lower(title) LIKE ? OR lower(artist) LIKE ?
		 ORDER BY artist, title LIMIT 1`, pattern, pattern)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, verrors.ErrAlbumNotFound
	}
	if err != nil {
		return nil, err
	}
	album := row.toCore()
	return &album, nil
}

// SearchTracks returns up to limit tracks whose title, artist or album
// matches query, case-insensitively.
func (s *Store) SearchTracks(query string, limit int) ([]core.Track, error) {
	if limit <= 0 {
		limit = 30
	}
	pattern := "%" + strings.ToLower(query) + "%"
	var rows []trackRow
	err := s.db.Select(&rows,
		`SELECT * FROM tracks
		 WHERE lower(title) LIKE ? OR lower(artist) LIKE ? OR lower(album) LIKE ?
		 ORDER BY artist, album, track_no, title LIMIT ?`,
		pattern, pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	tracks := make([]core.Track, len(rows))
	for i, r := range rows {
		tracks[i] = r.toCore()
	}
	return tracks, nil
}

// Counts returns the number of albums and tracks in the index.
func (s *Store) Counts() (albums, tracks int, err error) {
	if err = s.db.Get(&albums, `SELECT COUNT(*) FROM albums`); err != nil {
		return 0, 0, err
	}
	if err = s.db.Get(&tracks, `SELECT COUNT(*) FROM tracks`); err != nil {
		return 0, 0, err
	}
	return albums, tracks, nil
}

// AddHistory records a track play.
func (s *Store) AddHistory(t *core.Track, at time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO history (track_id, title, artist, played_at) VALUES (?, ?, ?, ?)`,
		t.ID, t.Title, t.Artist, at.Unix(),
	)
	return err
}

// History returns the most recent plays, newest first.
func (s *Store) History(limit int) ([]core.HistoryEntry, error) {
	type historyRow struct {
		TrackID  string `db:"track_id"`
		Title    string `db:"title"`
		Artist   string `db:"artist"`
		PlayedAt int64  `db:"played_at"`
	}
	var rows []historyRow
	err := s.db.Select(&rows,
		`SELECT track_id, title, artist, played_at FROM history
		 ORDER BY played_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]core.HistoryEntry, len(rows))
	for i, r := range rows {
		entries[i] = core.HistoryEntry{
			Track:    &core.Track{ID: r.TrackID, Title: r.Title, Artist: r.Artist},
			PlayedAt: time.Unix(r.PlayedAt, 0),
		}
	}
	return entries, nil
}

// Feedback is a user-submitted message, kept locally until delivered.
type Feedback struct {
	ID        string `db:"id"`
	Message   string `db:"message"`
	Contact   string `db:"contact"`
	CreatedAt int64  `db:"created_at"`
	SentAt    *int64 `db:"sent_at"`
}

// SaveFeedback stores a feedback message.
func (s *Store) SaveFeedback(fb Feedback) error {
	_, err := s.db.Exec(
		`INSERT INTO feedback (id, message, contact, created_at) VALUES (?, ?, ?, ?)`,
		fb.ID, fb.Message, fb.Contact, fb.CreatedAt,
	)
	return err
}

// UnsentFeedback returns feedback rows not yet delivered, oldest first.
func (s *Store) UnsentFeedback() ([]Feedback, error) {
	var rows []Feedback
	err := s.db.Select(&rows,
		`SELECT * FROM feedback WHERE sent_at IS NULL ORDER BY created_at`)
	return rows, err
}

// MarkFeedbackSent records the delivery time of a feedback row.
func (s *Store) MarkFeedbackSent(id string, at time.Time) error {
	_, err := s.db.Exec(`UPDATE feedback SET sent_at = ? WHERE id = ?`, at.Unix(), id)
	return err
}

// Event is a telemetry row.
type Event struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	Attrs     string `db:"attrs"`
	CreatedAt int64  `db:"created_at"`
}

// AddEvent appends a telemetry event.
func (s *Store) AddEvent(name, attrs string, at time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO events (name, attrs, created_at) VALUES (?, ?, ?)`,
		name, attrs, at.Unix(),
	)
	return err
}

// RecentEvents returns the newest telemetry events.
func (s *Store) RecentEvents(limit int) ([]Event, error) {
	var rows []Event
	err := s.db.Select(&rows,
		`SELECT * FROM events ORDER BY id DESC LIMIT ?`, limit)
	return rows, err
}
