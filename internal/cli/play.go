package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marloch/vinyl/internal/config"
	"github.com/marloch/vinyl/internal/core"
	"github.com/marloch/vinyl/internal/entitle"
	verrors "github.com/marloch/vinyl/internal/errors"
	"github.com/marloch/vinyl/internal/library"
	"github.com/marloch/vinyl/internal/overlay"
	"github.com/marloch/vinyl/internal/player"
	"github.com/marloch/vinyl/internal/promo"
	"github.com/marloch/vinyl/internal/remote"
	"github.com/marloch/vinyl/internal/session"
	"github.com/marloch/vinyl/internal/telemetry"
	"github.com/marloch/vinyl/internal/tui"
	"github.com/marloch/vinyl/internal/wizard"
)

var playCmd = &cobra.Command{
	Use:   "play [album]",
	Short: "Open the player",
	Long: `Open the full-screen player.

With an album query, playback starts immediately. When the query
matches more than one album a picker comes up.

Examples:
  vinyl play                # Open the player
  vinyl play "abbey road"   # Start playing a matching album`,
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	// First run: ask the questions config can't answer itself.
	if cfgFile == "" && !config.Exists() {
		if err := wizard.RunOnboarding(cfg); err != nil {
			return err
		}
		if err := config.Save(cfg, config.DefaultPath()); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Printf("Saved config to %s\n", config.DefaultPath())
	}

	logger, err := telemetry.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Remote app config never blocks startup. Offline it falls back
	// to the cached copy, then to defaults.
	rc := remote.NewClient(logger, cfg.Remote.BaseURL, remoteCachePath(),
		time.Duration(cfg.Remote.Timeout)*time.Second,
		time.Duration(cfg.Remote.CacheTTL)*time.Minute)
	appCfg := rc.Load(ctx)

	if !remote.IsSupported(Version, appCfg.MinVersion) {
		return fmt.Errorf("%w: this build is %s, the service requires %s or newer",
			verrors.ErrUpdateRequired, Version, appCfg.MinVersion)
	}

	store, err := library.Open(cfg.Library.DBPath)
	if err != nil {
		return fmt.Errorf("opening library: %w", err)
	}
	defer func() { _ = store.Close() }()

	scanner := library.NewScanner(logger, store)
	if err := ensureScanned(store, scanner); err != nil {
		return err
	}

	backend, err := player.DefaultBackend()
	if err != nil {
		return fmt.Errorf("audio backend: %w", err)
	}
	pl := player.New(logger, store, backend, cfg.Defaults.Volume)
	defer func() { _ = pl.Close() }()

	manager, err := entitle.NewManager(logger, "", os.Getenv("VINYL_PREMIUM_SECRET"))
	if err != nil {
		return err
	}
	premium := manager.Premium()

	// The promo card machinery. Premium users carry it disarmed.
	promoURL := appCfg.PromoURL
	if promoURL == "" {
		promoURL = cfg.Remote.PromoURL
	}
	provider := promo.NewProvider(logger, promoURL,
		time.Duration(cfg.Remote.Timeout)*time.Second)
	recorder := telemetry.NewRecorder(logger, store, cfg.Telemetry.Enabled)

	engine := overlay.NewEngine(logger, appCfg.Overlay.ToEngine(), provider, recorder)
	engine.SetPremium(premium)
	engine.SetAdsEnabled(appCfg.AdsEnabled)
	engine.Start(ctx)
	defer engine.Close()

	monitor := session.NewMonitor(logger, pl, engine, time.Second)
	go func() { _ = monitor.Start(ctx) }()
	defer monitor.Stop()

	// Optional immediate playback from the query.
	if query := strings.Join(args, " "); query != "" {
		if err := playQuery(store, pl, query); err != nil {
			return err
		}
	}

	prog := tui.New(&tui.App{
		Logger:   logger,
		Player:   pl,
		Store:    store,
		Engine:   engine,
		Scanner:  scanner,
		MusicDir: cfg.Library.MusicDir,
		Refresh:  time.Duration(cfg.TUI.RefreshInterval) * time.Millisecond,
		Premium:  premium,
		Version:  Version,
	})

	unwatch := engine.Watch(func(vs overlay.ViewState) {
		prog.Send(tui.PromoMsg(vs))
	})
	defer unwatch()

	if cfg.Library.Watch {
		watcher, err := library.NewWatcher(logger, cfg.Library.MusicDir, 2*time.Second, func() {
			prog.Send(tui.LibraryChangedMsg{})
		})
		if err != nil {
			logger.Warn("library watcher unavailable", zap.Error(err))
		} else {
			defer watcher.Close()
		}
	}

	if !player.AudioAvailable {
		logger.Warn("built without audio support, playback is simulated")
	}

	return prog.Run()
}

// ensureScanned builds the index on first use so the player never
// opens onto an empty library when music exists on disk.
func ensureScanned(store *library.Store, scanner *library.Scanner) error {
	albums, tracks, err := store.Counts()
	if err != nil {
		return err
	}
	if albums > 0 || tracks > 0 {
		return nil
	}

	result, err := scanner.Scan(cfg.Library.MusicDir)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", cfg.Library.MusicDir, err)
	}
	if Verbose() {
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", e)
		}
	}
	return nil
}

func playQuery(store *library.Store, pl *player.Local, query string) error {
	albums, err := store.Albums()
	if err != nil {
		return err
	}

	q := strings.ToLower(query)
	var matches []core.Album
	for _, a := range albums {
		if strings.Contains(strings.ToLower(a.Title), q) ||
			strings.Contains(strings.ToLower(a.Artist), q) {
			matches = append(matches, a)
		}
	}

	var chosen *core.Album
	switch len(matches) {
	case 0:
		return fmt.Errorf("%w: no album matches %q", verrors.ErrAlbumNotFound, query)
	case 1:
		chosen = &matches[0]
	default:
		chosen, err = wizard.RunAlbumPicker(matches)
		if err != nil {
			return err
		}
		if chosen == nil {
			return nil // cancelled
		}
	}

	tracks, err := store.AlbumTracks(chosen.ID)
	if err != nil {
		return err
	}
	return pl.PlayAlbum(tracks, 0)
}

func remoteCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "vinyl", "app-config.json")
}
