package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marloch/vinyl/internal/config"
	"github.com/marloch/vinyl/internal/library"
	"github.com/marloch/vinyl/internal/telemetry"
	"github.com/marloch/vinyl/internal/wizard"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup",
	Long: `Walk through the setup questions and write the config file.

Runs automatically the first time 'vinyl play' starts without a config;
run it again any time to change your answers.`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	if err := wizard.RunOnboarding(cfg); err != nil {
		return err
	}

	path := getConfigPath()
	if err := config.Save(cfg, path); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Saved config to %s\n", path)

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
		return fmt.Errorf("scanning %s: %w", cfg.Library.MusicDir, err)
	}

	fmt.Printf("Indexed %d albums, %d tracks. Run 'vinyl play' to start listening.\n",
		result.Data.Albums, result.Data.Tracks)
	return nil
}
