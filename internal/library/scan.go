package library

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/marloch/vinyl/internal/core"
	verrors "github.com/marloch/vinyl/internal/errors"
)

// ScanStats summarizes a completed library scan.
type ScanStats struct {
	Albums int
	Tracks int
}

// Scanner walks the music directory and rebuilds the index. Files that fail
// to decode are skipped and reported; they never abort the scan.
type Scanner struct {
	store  *Store
	logger *zap.Logger
	probe  func(path string) (time.Duration, error)
}

// NewScanner returns a scanner backed by the given store.
func NewScanner(logger *zap.Logger, store *Store) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{store: store, logger: logger, probe: ProbeDuration}
}

type albumAccum struct {
	album  core.Album
	tracks []core.Track
}

// Scan walks dir, expecting an Artist/Album/NN - Title.mp3 layout with
// loose fallbacks, and replaces the index with what it finds.
func (s *Scanner) Scan(dir string) (*verrors.PartialResult[ScanStats], error) {
	result := &verrors.PartialResult[ScanStats]{}
	accums := make(map[string]*albumAccum)

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			result.AddError(err)
			return nil
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".mp3") {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			result.AddError(err)
			return nil
		}
		dur, err := s.probe(path)
		if err != nil {
			s.logger.Warn("skipping unreadable file",
				zap.String("path", path), zap.Error(err))
			result.AddError(fmt.Errorf("%s: %w", rel, err))
			return nil
		}

		artist, albumTitle := splitRelPath(rel)
		trackNo, title := parseTrackName(filepath.Base(path))

		key := artist + "\x00" + albumTitle
		acc := accums[key]
		if acc == nil {
			acc = &albumAccum{album: core.Album{
				ID:      stableID("album", artist+"/"+albumTitle),
				Artist:  artist,
				Title:   albumTitle,
				Dir:     filepath.Dir(path),
				AddedAt: time.Now(),
			}}
			accums[key] = acc
		}
		acc.tracks = append(acc.tracks, core.Track{
			ID:       stableID("track", rel),
			AlbumID:  acc.album.ID,
			Title:    title,
			Artist:   artist,
			Album:    albumTitle,
			TrackNo:  trackNo,
			Path:     path,
			Duration: dur,
		})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	accs := lo.Values(accums)
	sort.Slice(accs, func(i, j int) bool {
		if accs[i].album.Artist != accs[j].album.Artist {
			return accs[i].album.Artist < accs[j].album.Artist
		}
		return accs[i].album.Title < accs[j].album.Title
	})

	var albums []core.Album
	var tracks []core.Track
	for _, acc := range accs {
		sort.Slice(acc.tracks, func(i, j int) bool {
			if acc.tracks[i].TrackNo != acc.tracks[j].TrackNo {
				return acc.tracks[i].TrackNo < acc.tracks[j].TrackNo
			}
			return acc.tracks[i].Title < acc.tracks[j].Title
		})
		acc.album.TrackCount = len(acc.tracks)
		for _, t := range acc.tracks {
			acc.album.Duration += t.Duration
		}
		albums = append(albums, acc.album)
		tracks = append(tracks, acc.tracks...)
	}

	if err := s.store.SaveScan(albums, tracks); err != nil {
		return nil, err
	}

	s.logger.Info("library scan complete",
		zap.Int("albums", len(albums)),
		zap.Int("tracks", len(tracks)),
		zap.Int("skipped", len(result.Errors)))

	result.Data = ScanStats{Albums: len(albums), Tracks: len(tracks)}
	return result, nil
}

// stableID derives the same UUID for the same library entity on every scan,
// so references held across rescans stay valid.
func stableID(kind, name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("vinyl:"+kind+":"+name)).String()
}

// splitRelPath maps a file's relative path to (artist, album). Expected
// layout is Artist/Album/Track.mp3; shallower files land in "Singles".
func splitRelPath(rel string) (artist, album string) {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	switch {
	case len(parts) >= 3:
		return parts[0], parts[1]
	case len(parts) == 2:
		return parts[0], "Singles"
	default:
		return "Unknown Artist", "Singles"
	}
}

// parseTrackName splits "NN - Title" style file names into a track number
// and title. Names without a short numeric prefix keep number 0.
func parseTrackName(base string) (int, string) {
	name := strings.TrimSuffix(base, filepath.Ext(base))
	i := 0
	for i < len(name) && name[i] >= '0' && name[i] <= '9' {
		i++
	}
	if i == 0 || i > 3 {
		return 0, name
	}
	n, _ := strconv.Atoi(name[:i])
	rest := strings.TrimLeft(name[i:], " .-_")
	if rest == "" {
		return n, name
	}
	return n, rest
}
