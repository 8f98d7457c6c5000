package wizard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
)

// RunFeedbackForm prompts for a feedback message and an optional reply
// address. Used when 'vinyl feedback' is run without arguments.
func RunFeedbackForm() (message, contact string, err error) {
	if !IsTerminal() {
		return "", "", fmt.Errorf("no message given and no terminal to ask; run 'vinyl feedback <message>'")
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("What should we know?").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("a message is required")
					}
					return nil
				}).
				Value(&message),
			huh.NewInput().
				Title("Email for replies (optional)").
				Value(&contact),
		),
	)

	if err := form.Run(); err != nil {
		return "", "", fmt.Errorf("feedback cancelled: %w", err)
	}

	return strings.TrimSpace(message), strings.TrimSpace(contact), nil
}
