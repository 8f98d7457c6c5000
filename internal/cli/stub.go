package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marloch/vinyl/internal/stubserver"
	"github.com/marloch/vinyl/internal/telemetry"
)

var stubAddr string

var stubCmd = &cobra.Command{
	Use:    "stub",
	Short:  "Run a local stand-in for the vinyl service",
	Hidden: true,
	Long: `Run a local server with the app-config, promo and feedback
endpoints, for developing without the real backend:

  vinyl stub &
  VINYL_REMOTE_BASE_URL=http://localhost:8734 vinyl play`,
	RunE: runStub,
}

func init() {
	stubCmd.Flags().StringVar(&stubAddr, "addr", "localhost:8734", "listen address")
	rootCmd.AddCommand(stubCmd)
}

func runStub(cmd *cobra.Command, args []string) error {
	logger, err := telemetry.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	fmt.Printf("Serving on http://%s (app-config, promo, feedback)\n", stubAddr)
	return stubserver.New(logger).Start(cmd.Context(), stubAddr)
}
