package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	verrors "github.com/marloch/vinyl/internal/errors"
	"github.com/marloch/vinyl/internal/library"
	"github.com/marloch/vinyl/internal/telemetry"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the music directory and rebuild the library index",
	Long: `Walk the music directory and rebuild the album and track index.

Files that cannot be read are skipped and reported, the rest of the
library still updates.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	logger, err := telemetry.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, err := library.Open(cfg.Library.DBPath)
	if err != nil {
		return fmt.Errorf("opening library: %w", err)
	}
	defer func() { _ = store.Close() }()

	scanner := library.NewScanner(logger, store)
	result, err := scanner.Scan(cfg.Library.MusicDir)
	if err != nil {
		return verrors.WithSuggestion(
			fmt.Errorf("scanning %s: %w", cfg.Library.MusicDir, err),
			"Check the library.music_dir path in your config file")
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"albums":  result.Data.Albums,
			"tracks":  result.Data.Tracks,
			"skipped": len(result.Errors),
		})
	}

	fmt.Printf("Indexed %d albums, %d tracks from %s\n",
		result.Data.Albums, result.Data.Tracks, cfg.Library.MusicDir)

	if len(result.Errors) > 0 {
		fmt.Printf("Skipped %d files\n", len(result.Errors))
		if Verbose() {
			for _, e := range result.Errors {
				fmt.Fprintf(os.Stderr, "  %v\n", e)
			}
		} else {
			fmt.Println("Run with --verbose to see why")
		}
	}

	return nil
}
