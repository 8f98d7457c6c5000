package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/marloch/vinyl/internal/core"
	"github.com/marloch/vinyl/internal/tui/styles"
)

// History displays recently played tracks
type History struct{}

// NewHistory creates a new History component
func NewHistory() *History {
	return &History{}
}

// Render renders the history panel
func (h *History) Render(entries []core.HistoryEntry, width, height int, focused bool) string {
	title := styles.PanelTitle("History", focused)

	var content string
	if len(entries) == 0 {
		content = styles.Muted.Render("No history yet")
	} else {
		content = h.renderHistory(entries, width-4, height-4)
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

func (h *History) renderHistory(entries []core.HistoryEntry, width, maxLines int) string {
	lines := make([]string, 0, maxLines)

	for i, entry := range entries {
		if i >= maxLines {
			break
		}
		track := entry.Track
		if track == nil {
			continue
		}

		timeAgo := formatTimeAgo(entry.PlayedAt)

		available := width - len(timeAgo) - 4
		info := truncate(track.Title+" — "+track.Artist, available)

		padding := width - 2 - lipgloss.Width(info) - len(timeAgo)
		if padding < 1 {
			padding = 1
		}

		line := fmt.Sprintf("%s%s%s",
			info,
			lipgloss.NewStyle().Width(padding).Render(""),
			styles.Dim.Render(timeAgo))

		lines = append(lines, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func formatTimeAgo(t time.Time) string {
	d := time.Since(t)

	if d < time.Minute {
		return "now"
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return t.Format("Jan 2")
}
