package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/marloch/vinyl/internal/core"
	"github.com/marloch/vinyl/internal/tui/styles"
)

// NowPlaying displays the currently playing track
type NowPlaying struct{}

// NewNowPlaying creates a new NowPlaying component
func NewNowPlaying() *NowPlaying {
	return &NowPlaying{}
}

// Render renders the now playing panel
func (n *NowPlaying) Render(state core.PlaybackState, volume int, width, height int, focused bool) string {
	title := styles.PanelTitle("Now Playing", focused)

	var content string
	if state.Track == nil {
		content = styles.Muted.Render("Nothing playing")
	} else {
		content = n.renderTrack(state, volume, width-4)
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

func (n *NowPlaying) renderTrack(state core.PlaybackState, volume, width int) string {
	track := state.Track

	icon := styles.StatusIcon(state.Playing)
	title := styles.Title.Render(truncate(track.Title, width-4))
	artist := styles.Subtitle.Render(truncate(track.Artist, width-4))
	album := styles.Dim.Render(truncate(track.Album, width-4))

	// Times on either side of the bar
	progressWidth := width - 14
	if progressWidth < 10 {
		progressWidth = 10
	}
	bar := styles.ProgressBar(state.ProgressPercent(), progressWidth)
	progress := fmt.Sprintf("%s %s %s",
		formatDuration(state.Progress), bar, formatDuration(track.Duration))

	vol := styles.Muted.Render(fmt.Sprintf("vol %d%%", volume))

	return lipgloss.JoinVertical(lipgloss.Left,
		icon+" "+title,
		"  "+artist,
		"  "+album,
		"",
		progress,
		"",
		vol,
	)
}
