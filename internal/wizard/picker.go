package wizard

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/marloch/vinyl/internal/core"
)

// AlbumModel is the bubbletea model for the album picker.
type AlbumModel struct {
	albums   []core.Album
	cursor   int
	selected *core.Album
	width    int
	height   int
}

// Styles for album picker
var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205"))

	pickerItemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	pickerSelectedStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Background(lipgloss.Color("237"))

	pickerMetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// NewAlbumModel creates a new album picker model.
func NewAlbumModel(albums []core.Album) AlbumModel {
	return AlbumModel{
		albums: albums,
		width:  80,
		height: 20,
	}
}

// Init initializes the model.
func (m AlbumModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m AlbumModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return m, tea.Quit

		case "enter", " ":
			if len(m.albums) > 0 && m.cursor < len(m.albums) {
				m.selected = &m.albums[m.cursor]
				return m, tea.Quit
			}

		case "up", "k", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j", "ctrl+n":
			if m.cursor < len(m.albums)-1 {
				m.cursor++
			}

		case "home", "g":
			m.cursor = 0

		case "end", "G":
			m.cursor = len(m.albums) - 1
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// View renders the model.
func (m AlbumModel) View() string {
	var b strings.Builder

	b.WriteString(pickerTitleStyle.Render("Select Album"))
	b.WriteString("\n\n")

	if len(m.albums) == 0 {
		b.WriteString(pickerMetaStyle.Render("No albums matched"))
	} else {
		for i, album := range m.albums {
			line := album.Artist + " - " + album.Title
			meta := fmt.Sprintf(" (%d tracks, %s)",
				album.TrackCount, album.Duration.Round(time.Second))
			line += pickerMetaStyle.Render(meta)

			if i == m.cursor {
				b.WriteString(pickerSelectedStyle.Render("▸ " + line))
			} else {
				b.WriteString(pickerItemStyle.Render("  " + line))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(pickerMetaStyle.Render("↑/↓ navigate • enter select • esc quit"))

	return b.String()
}

// Selected returns the selected album, or nil if none.
func (m AlbumModel) Selected() *core.Album {
	return m.selected
}

// RunAlbumPicker runs the album picker and returns the chosen album,
// or nil when the user cancels.
func RunAlbumPicker(albums []core.Album) (*core.Album, error) {
	model := NewAlbumModel(albums)
	p := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}
	return finalModel.(AlbumModel).Selected(), nil
}
