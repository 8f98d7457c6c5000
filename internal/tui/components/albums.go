package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/marloch/vinyl/internal/core"
	"github.com/marloch/vinyl/internal/tui/styles"
)

// Albums displays the album list with a movable cursor.
type Albums struct {
	cursor int
	offset int
}

// NewAlbums creates a new Albums component
func NewAlbums() *Albums {
	return &Albums{}
}

// SelectNext moves the cursor down
func (a *Albums) SelectNext(total int) {
	if a.cursor < total-1 {
		a.cursor++
	}
}

// SelectPrev moves the cursor up
func (a *Albums) SelectPrev() {
	if a.cursor > 0 {
		a.cursor--
	}
}

// Selected returns the cursor index
func (a *Albums) Selected() int {
	return a.cursor
}

// Clamp keeps the cursor inside the list after a rescan shrinks it.
func (a *Albums) Clamp(total int) {
	if total == 0 {
		a.cursor = 0
		return
	}
	if a.cursor >= total {
		a.cursor = total - 1
	}
}

// Render renders the albums panel
func (a *Albums) Render(albums []core.Album, playingAlbumID string, width, height int, focused bool) string {
	title := styles.PanelTitle(fmt.Sprintf("Albums (%d)", len(albums)), focused)

	var content string
	if len(albums) == 0 {
		content = styles.Muted.Render("Library is empty. Press r to scan.")
	} else {
		content = a.renderList(albums, playingAlbumID, width-4, height-4)
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

func (a *Albums) renderList(albums []core.Album, playingAlbumID string, width, maxLines int) string {
	if maxLines < 1 {
		maxLines = 1
	}

	// Keep the cursor visible
	if a.cursor < a.offset {
		a.offset = a.cursor
	}
	if a.cursor >= a.offset+maxLines {
		a.offset = a.cursor - maxLines + 1
	}

	end := a.offset + maxLines
	if end > len(albums) {
		end = len(albums)
	}

	lines := make([]string, 0, maxLines)
	for i := a.offset; i < end; i++ {
		album := albums[i]

		marker := "  "
		if album.ID == playingAlbumID {
			marker = styles.Playing.Render("♪ ")
		}

		line := truncate(album.Artist+" — "+album.Title, width-8)
		count := styles.Dim.Render(fmt.Sprintf(" %d", album.TrackCount))

		if i == a.cursor {
			lines = append(lines, styles.Selected.Render("▸ "+marker+line)+count)
		} else {
			lines = append(lines, "  "+marker+line+count)
		}
	}

	if end < len(albums) {
		lines = append(lines, styles.Dim.Render(fmt.Sprintf("  …%d more", len(albums)-end)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func truncate(s string, max int) string {
	if max < 1 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
