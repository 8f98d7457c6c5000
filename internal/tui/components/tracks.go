package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/marloch/vinyl/internal/core"
	"github.com/marloch/vinyl/internal/tui/styles"
)

// Tracks displays the track list of the selected album.
type Tracks struct {
	cursor int
	offset int
}

// NewTracks creates a new Tracks component
func NewTracks() *Tracks {
	return &Tracks{}
}

// SelectNext moves the cursor down
func (t *Tracks) SelectNext(total int) {
	if t.cursor < total-1 {
		t.cursor++
	}
}

// SelectPrev moves the cursor up
func (t *Tracks) SelectPrev() {
	if t.cursor > 0 {
		t.cursor--
	}
}

// Selected returns the cursor index
func (t *Tracks) Selected() int {
	return t.cursor
}

// Reset moves the cursor back to the top, for when the album changes.
func (t *Tracks) Reset() {
	t.cursor = 0
	t.offset = 0
}

// Render renders the tracks panel
func (t *Tracks) Render(tracks []core.Track, playingTrackID string, width, height int, focused bool) string {
	title := styles.PanelTitle("Tracks", focused)

	var content string
	if len(tracks) == 0 {
		content = styles.Muted.Render("Select an album")
	} else {
		content = t.renderList(tracks, playingTrackID, width-4, height-4)
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
	))
}

func (t *Tracks) renderList(tracks []core.Track, playingTrackID string, width, maxLines int) string {
	if maxLines < 1 {
		maxLines = 1
	}

	if t.cursor < t.offset {
		t.offset = t.cursor
	}
	if t.cursor >= t.offset+maxLines {
		t.offset = t.cursor - maxLines + 1
	}

	end := t.offset + maxLines
	if end > len(tracks) {
		end = len(tracks)
	}

	lines := make([]string, 0, maxLines)
	for i := t.offset; i < end; i++ {
		track := tracks[i]

		marker := "  "
		if track.ID == playingTrackID {
			marker = styles.Playing.Render("♪ ")
		}

		no := fmt.Sprintf("%2d ", track.TrackNo)
		dur := styles.Dim.Render(" " + formatDuration(track.Duration))
		line := truncate(track.Title, width-12)

		if i == t.cursor {
			lines = append(lines, styles.Selected.Render("▸ "+marker+no+line)+dur)
		} else {
			lines = append(lines, "  "+marker+styles.Dim.Render(no)+line+dur)
		}
	}

	if end < len(tracks) {
		lines = append(lines, styles.Dim.Render(fmt.Sprintf("  …%d more", len(tracks)-end)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d", m, s)
}
