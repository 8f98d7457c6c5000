package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/marloch/vinyl/internal/overlay"
	"github.com/marloch/vinyl/internal/tui/styles"
)

// Promo renders the free-tier promo card.
type Promo struct{}

// NewPromo creates a new Promo component
func NewPromo() *Promo {
	return &Promo{}
}

// Render renders the promo card centered in the given area. Playback
// keys keep working underneath; only x closes it early.
func (p *Promo) Render(ad *overlay.Ad, width, height int) string {
	cardWidth := 52
	if cardWidth > width-4 {
		cardWidth = width - 4
	}
	if cardWidth < 20 {
		cardWidth = 20
	}

	title := styles.Highlight.Render(ad.Title)
	body := lipgloss.NewStyle().
		Width(cardWidth - 4).
		Foreground(styles.Text).
		Render(ad.Body)

	parts := []string{title, "", body}
	if ad.ActionURL != "" {
		parts = append(parts, "", styles.Dim.Render(ad.ActionURL))
	}
	parts = append(parts, "", styles.Muted.Render("x: close • closes itself in a few seconds"))

	card := styles.PromoBorder.
		Padding(1, 2).
		Width(cardWidth).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}
