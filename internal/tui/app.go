// Package tui is the full-screen player interface: library browser,
// playback controls, history and the free-tier promo card.
package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/marloch/vinyl/internal/core"
	"github.com/marloch/vinyl/internal/library"
	"github.com/marloch/vinyl/internal/overlay"
	"github.com/marloch/vinyl/internal/player"
	"github.com/marloch/vinyl/internal/tui/components"
	"github.com/marloch/vinyl/internal/tui/styles"
)

// Panel represents which panel is focused
type Panel int

const (
	PanelAlbums Panel = iota
	PanelTracks
	PanelNowPlaying
	PanelHistory
)

const (
	historyLimit   = 20
	searchLimit    = 30
	searchDebounce = 300 * time.Millisecond
)

// App holds everything the interface drives. The caller owns the
// lifecycle of all of it.
type App struct {
	Logger   *zap.Logger
	Player   *player.Local
	Store    *library.Store
	Engine   *overlay.Engine
	Scanner  *library.Scanner
	MusicDir string
	Refresh  time.Duration
	Premium  bool
	Version  string
}

// Model is the main TUI model
type Model struct {
	app          *App
	width        int
	height       int
	focusedPanel Panel

	// State
	state   core.PlaybackState
	volume  int
	albums  []core.Album
	tracks  []core.Track
	trackOf string // album ID the tracks belong to
	history []core.HistoryEntry
	promo   overlay.ViewState

	// Components
	albumsView  *components.Albums
	tracksView  *components.Tracks
	nowPlaying  *components.NowPlaying
	historyView *components.History
	promoView   *components.Promo

	showHelp bool
	scanning bool

	// Search state
	showSearch    bool
	searchInput   textinput.Model
	searchResults []core.Track
	searchCursor  int
	searching     bool
	lastQuery     string
	searchErr     error

	lastError   error
	errorExpiry time.Time

	quitting bool
}

// NewModel creates a new TUI model
func NewModel(app *App) Model {
	ti := textinput.New()
	ti.Placeholder = "Search tracks, albums, artists..."
	ti.CharLimit = 100
	ti.Width = 50

	return Model{
		app:         app,
		albumsView:  components.NewAlbums(),
		tracksView:  components.NewTracks(),
		nowPlaying:  components.NewNowPlaying(),
		historyView: components.NewHistory(),
		promoView:   components.NewPromo(),
		searchInput: ti,
	}
}

// Messages
type tickMsg time.Time
type albumsMsg []core.Album
type tracksMsg struct {
	albumID string
	tracks  []core.Track
}
type historyMsg []core.HistoryEntry
type errMsg error
type scanDoneMsg struct{ err error }
type refreshMsg struct{}

// Search messages
type searchDebounceMsg struct{ query string }
type searchResultsMsg struct {
	results []core.Track
	err     error
}

// PromoMsg carries the promo overlay state into the interface. The
// overlay engine publishes it through Program.Send.
type PromoMsg overlay.ViewState

// LibraryChangedMsg asks the interface to rescan, sent by the library
// watcher through Program.Send.
type LibraryChangedMsg struct{}

// Commands
func (m Model) tick() tea.Cmd {
	refresh := m.app.Refresh
	if refresh <= 0 {
		refresh = time.Second
	}
	return tea.Tick(refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchAlbums() tea.Cmd {
	return func() tea.Msg {
		albums, err := m.app.Store.Albums()
		if err != nil {
			return errMsg(err)
		}
		return albumsMsg(albums)
	}
}

func (m Model) fetchTracks(albumID string) tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.app.Store.AlbumTracks(albumID)
		if err != nil {
			return errMsg(err)
		}
		return tracksMsg{albumID: albumID, tracks: tracks}
	}
}

func (m Model) fetchHistory() tea.Cmd {
	return func() tea.Msg {
		entries, err := m.app.Store.History(historyLimit)
		if err != nil {
			return errMsg(err)
		}
		return historyMsg(entries)
	}
}

func (m Model) rescan() tea.Cmd {
	return func() tea.Msg {
		_, err := m.app.Scanner.Scan(m.app.MusicDir)
		return scanDoneMsg{err: err}
	}
}

func (m Model) doSearch(query string) tea.Cmd {
	return func() tea.Msg {
		if query == "" {
			return searchResultsMsg{results: nil}
		}
		results, err := m.app.Store.SearchTracks(query, searchLimit)
		if err != nil {
			return searchResultsMsg{err: err}
		}
		return searchResultsMsg{results: results}
	}
}

// playSearchResult starts the track's album from that track, so the rest
// of the record keeps playing afterwards.
func (m Model) playSearchResult(track core.Track) tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.app.Store.AlbumTracks(track.AlbumID)
		if err != nil {
			return errMsg(err)
		}
		start := 0
		for i, t := range tracks {
			if t.ID == track.ID {
				start = i
				break
			}
		}
		if err := m.app.Player.PlayAlbum(tracks, start); err != nil {
			return errMsg(err)
		}
		return refreshMsg{}
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	if m.app.Engine != nil {
		m.app.Engine.SetForeground(true)
	}
	return tea.Batch(
		m.tick(),
		m.fetchAlbums(),
		m.fetchHistory(),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.FocusMsg:
		if m.app.Engine != nil {
			m.app.Engine.SetForeground(true)
		}
		return m, nil

	case tea.BlurMsg:
		if m.app.Engine != nil {
			m.app.Engine.SetForeground(false)
		}
		return m, nil

	case tickMsg:
		if time.Now().After(m.errorExpiry) {
			m.lastError = nil
		}
		oldTrack := m.state.TrackID()
		m.state = m.app.Player.State()
		m.volume = m.app.Player.Volume()
		if m.state.TrackID() != oldTrack {
			return m, tea.Batch(m.tick(), m.fetchHistory())
		}
		return m, m.tick()

	case refreshMsg:
		oldTrack := m.state.TrackID()
		m.state = m.app.Player.State()
		m.volume = m.app.Player.Volume()
		if m.state.TrackID() != oldTrack {
			return m, m.fetchHistory()
		}
		return m, nil

	case albumsMsg:
		m.albums = msg
		m.albumsView.Clamp(len(m.albums))
		// Keep the tracks panel in sync with whatever is selected
		if len(m.albums) == 0 {
			m.tracks = nil
			m.trackOf = ""
			return m, nil
		}
		selected := m.albums[m.albumsView.Selected()]
		if selected.ID != m.trackOf {
			return m, m.fetchTracks(selected.ID)
		}
		return m, nil

	case tracksMsg:
		m.tracks = msg.tracks
		m.trackOf = msg.albumID
		m.tracksView.Reset()
		return m, nil

	case historyMsg:
		m.history = msg
		return m, nil

	case PromoMsg:
		m.promo = overlay.ViewState(msg)
		return m, nil

	case LibraryChangedMsg:
		if m.scanning {
			return m, nil
		}
		m.scanning = true
		return m, m.rescan()

	case scanDoneMsg:
		m.scanning = false
		if msg.err != nil {
			return m, func() tea.Msg { return errMsg(msg.err) }
		}
		return m, m.fetchAlbums()

	case searchDebounceMsg:
		if msg.query == m.searchInput.Value() && msg.query != m.lastQuery {
			m.lastQuery = msg.query
			m.searching = true
			return m, m.doSearch(msg.query)
		}
		return m, nil

	case searchResultsMsg:
		m.searching = false
		m.searchResults = msg.results
		m.searchErr = msg.err
		m.searchCursor = 0
		return m, nil

	case errMsg:
		m.lastError = msg
		m.errorExpiry = time.Now().Add(5 * time.Second)
		return m, nil
	}

	// Forward other messages to the text input while search is open
	if m.showSearch {
		var inputCmd tea.Cmd
		m.searchInput, inputCmd = m.searchInput.Update(msg)
		return m, inputCmd
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}

	if m.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			m.showHelp = false
		}
		return m, nil
	}

	// The promo card captures only its own keys. Playback keys keep
	// working while it is up.
	if m.promo.Visible {
		switch msg.String() {
		case "x", "esc":
			if m.app.Engine != nil {
				m.app.Engine.Dismiss()
			}
			return m, nil
		}
	}

	if m.showSearch {
		return m.handleSearchKeyPress(msg)
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "?":
		m.showHelp = true
		return m, nil

	case "/":
		m.showSearch = true
		m.searchInput.SetValue("")
		m.searchInput.Focus()
		m.searchResults = nil
		m.searchCursor = 0
		m.lastQuery = ""
		m.searchErr = nil
		return m, textinput.Blink

	case "tab":
		m.focusedPanel = (m.focusedPanel + 1) % 4
		return m, nil

	case "shift+tab":
		m.focusedPanel = (m.focusedPanel + 3) % 4
		return m, nil

	case "r":
		if m.scanning {
			return m, nil
		}
		m.scanning = true
		return m, m.rescan()
	}

	// Playback controls
	switch msg.String() {
	case " ":
		if err := m.app.Player.Toggle(); err != nil {
			return m, m.playbackErr(err)
		}
		return m, m.refreshState()
	case "n":
		if err := m.app.Player.Next(); err != nil {
			return m, m.playbackErr(err)
		}
		return m, m.refreshState()
	case "p":
		if err := m.app.Player.Prev(); err != nil {
			return m, m.playbackErr(err)
		}
		return m, m.refreshState()
	case "+", "=":
		m.app.Player.SetVolume(m.app.Player.Volume() + 5)
		m.volume = m.app.Player.Volume()
		return m, nil
	case "-":
		m.app.Player.SetVolume(m.app.Player.Volume() - 5)
		m.volume = m.app.Player.Volume()
		return m, nil
	}

	// Panel-specific keys
	switch m.focusedPanel {
	case PanelAlbums:
		switch msg.String() {
		case "j", "down":
			m.albumsView.SelectNext(len(m.albums))
			return m.syncTracksWithCursor()
		case "k", "up":
			m.albumsView.SelectPrev()
			return m.syncTracksWithCursor()
		case "enter":
			m.focusedPanel = PanelTracks
			return m, nil
		}
	case PanelTracks:
		switch msg.String() {
		case "j", "down":
			m.tracksView.SelectNext(len(m.tracks))
		case "k", "up":
			m.tracksView.SelectPrev()
		case "enter":
			if len(m.tracks) == 0 {
				return m, nil
			}
			if err := m.app.Player.PlayAlbum(m.tracks, m.tracksView.Selected()); err != nil {
				return m, m.playbackErr(err)
			}
			return m, m.refreshState()
		}
	}

	return m, nil
}

func (m Model) syncTracksWithCursor() (tea.Model, tea.Cmd) {
	if len(m.albums) == 0 {
		return m, nil
	}
	selected := m.albums[m.albumsView.Selected()]
	if selected.ID == m.trackOf {
		return m, nil
	}
	return m, m.fetchTracks(selected.ID)
}

func (m Model) handleSearchKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg.String() {
	case "esc":
		m.showSearch = false
		m.searchInput.Blur()
		return m, nil

	case "enter":
		if len(m.searchResults) > 0 && m.searchCursor < len(m.searchResults) {
			result := m.searchResults[m.searchCursor]
			m.showSearch = false
			m.searchInput.Blur()
			return m, m.playSearchResult(result)
		}
		return m, nil

	case "up", "ctrl+p":
		if m.searchCursor > 0 {
			m.searchCursor--
		}
		return m, nil

	case "down", "ctrl+n":
		if m.searchCursor < len(m.searchResults)-1 {
			m.searchCursor++
		}
		return m, nil
	}

	// Handle text input
	var inputCmd tea.Cmd
	m.searchInput, inputCmd = m.searchInput.Update(msg)
	cmds = append(cmds, inputCmd)

	// Debounce search
	if m.searchInput.Value() != m.lastQuery {
		cmds = append(cmds, tea.Tick(searchDebounce, func(time.Time) tea.Msg {
			return searchDebounceMsg{query: m.searchInput.Value()}
		}))
	}

	return m, tea.Batch(cmds...)
}

func (m Model) refreshState() tea.Cmd {
	return func() tea.Msg {
		return refreshMsg{}
	}
}

func (m Model) playbackErr(err error) tea.Cmd {
	return func() tea.Msg { return errMsg(err) }
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.width == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.promo.Visible && m.promo.Ad != nil {
		return m.promoView.Render(m.promo.Ad, m.width, m.height)
	}

	if m.showSearch {
		return m.renderSearch()
	}

	// Two columns: library browser on the left, playback on the right
	leftWidth := m.width * 55 / 100
	rightWidth := m.width - leftWidth - 2
	topHeight := m.height * 50 / 100
	bottomHeight := m.height - topHeight - 2

	playingAlbum := ""
	playingTrack := ""
	if m.state.Track != nil {
		playingAlbum = m.state.Track.AlbumID
		playingTrack = m.state.Track.ID
	}

	albumsView := m.albumsView.Render(m.albums, playingAlbum, leftWidth-2, topHeight-2, m.focusedPanel == PanelAlbums)
	tracksView := m.tracksView.Render(m.tracks, playingTrack, leftWidth-2, bottomHeight-2, m.focusedPanel == PanelTracks)
	nowPlaying := m.nowPlaying.Render(m.state, m.volume, rightWidth-2, topHeight-2, m.focusedPanel == PanelNowPlaying)
	historyView := m.historyView.Render(m.history, rightWidth-2, bottomHeight-2, m.focusedPanel == PanelHistory)

	leftCol := lipgloss.JoinVertical(lipgloss.Left, albumsView, tracksView)
	rightCol := lipgloss.JoinVertical(lipgloss.Left, nowPlaying, historyView)

	main := lipgloss.JoinHorizontal(lipgloss.Top, leftCol, rightCol)

	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) renderSearch() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Search Library"))
	b.WriteString("\n\n")
	b.WriteString(m.searchInput.View())
	b.WriteString("\n\n")

	if m.searchErr != nil {
		b.WriteString(styles.Paused.Render("Error: " + m.searchErr.Error()))
	} else if m.searching {
		b.WriteString(styles.Muted.Render("Searching..."))
	} else if len(m.searchResults) == 0 && m.searchInput.Value() != "" && m.lastQuery != "" {
		b.WriteString(styles.Muted.Render("No results found"))
	} else {
		maxResults := 10
		for i, track := range m.searchResults {
			if i >= maxResults {
				b.WriteString(styles.Muted.Render("  ...and more"))
				break
			}

			line := track.Title + " " + styles.Muted.Render(track.Artist+" — "+track.Album)
			if i == m.searchCursor {
				b.WriteString(styles.Selected.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styles.Muted.Render("↑/↓:nav  Enter:play  Esc:close"))

	content := lipgloss.NewStyle().
		Width(60).
		Padding(1, 2).
		Render(b.String())

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.FocusedBorder.Render(content))
}

func (m Model) renderStatusBar() string {
	tier := styles.Dim.Render("free")
	if m.app.Premium {
		tier = styles.Highlight.Render("premium")
	}

	status := styles.Dim.Render("q:quit  ?:help  /:search  space:play/pause  n:next  p:prev  +/-:volume  r:rescan  tab:panel")
	if m.scanning {
		status = styles.Muted.Render("Scanning library…")
	}
	if m.lastError != nil {
		status = styles.Paused.Render("Error: " + m.lastError.Error())
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(status + "  " + tier)
}

func (m Model) renderHelp() string {
	title := "vinyl - Keyboard Shortcuts"
	if m.app.Version != "" {
		title = "vinyl " + m.app.Version + " - Keyboard Shortcuts"
	}
	help := `
  ` + title + `
  ══════════════════════════

  Global
  ──────
  q, Ctrl+C    Quit
  ?            Toggle help
  /            Search library
  Tab          Next panel
  Shift+Tab    Previous panel
  r            Rescan library

  Playback
  ────────
  Space        Play/Pause
  n            Next track
  p            Previous track
  +/=          Volume up
  -            Volume down

  Library
  ───────
  j/↓ k/↑      Move cursor
  Enter        Open album / play track

  Promo card
  ──────────
  x, Esc       Close

  Press ? or Esc to close
`

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.BorderStyle.Render(help))
}

// Program wraps the running bubbletea program so the caller can push
// messages from watcher and overlay callbacks.
type Program struct {
	prog *tea.Program
}

// New builds the program. Call Run to start it; Send is safe from any
// goroutine once built.
func New(app *App) *Program {
	if app.Logger == nil {
		app.Logger = zap.NewNop()
	}
	model := NewModel(app)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus())
	return &Program{prog: p}
}

// Send delivers a message to the interface.
func (p *Program) Send(msg tea.Msg) {
	p.prog.Send(msg)
}

// Run blocks until the user quits.
func (p *Program) Run() error {
	_, err := p.prog.Run()
	return err
}
