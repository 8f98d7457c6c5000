// Package wizard holds the interactive prompts: first-run onboarding,
// the feedback form, and the album picker used when a play query is
// ambiguous.
package wizard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/marloch/vinyl/internal/config"
)

// IsTerminal returns true if stdout is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// RunOnboarding walks a first-time user through the settings that need
// a human answer and fills them into cfg. The caller decides where to
// save the result.
func RunOnboarding(cfg *config.Config) error {
	if !IsTerminal() {
		return fmt.Errorf("onboarding needs a terminal; set VINYL_LIBRARY_MUSIC_DIR or write a config file instead")
	}

	musicDir := cfg.Library.MusicDir
	watch := cfg.Library.Watch
	telemetry := cfg.Telemetry.Enabled

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Where is your music?").
				Description("Directory scanned for .mp3 files, laid out artist/album/track").
				Value(&musicDir).
				Validate(validateMusicDir),
			huh.NewConfirm().
				Title("Watch for library changes?").
				Description("Rescans automatically when files are added or removed").
				Value(&watch),
			huh.NewConfirm().
				Title("Keep local usage stats?").
				Description("Promo card events are recorded in your library database, never uploaded").
				Value(&telemetry),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	cfg.Library.MusicDir = expandHome(strings.TrimSpace(musicDir))
	cfg.Library.Watch = watch
	cfg.Telemetry.Enabled = telemetry
	return nil
}

func validateMusicDir(s string) error {
	s = expandHome(strings.TrimSpace(s))
	if s == "" {
		return fmt.Errorf("a music directory is required")
	}
	info, err := os.Stat(s)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s does not exist", s)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s)
	}
	return nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
