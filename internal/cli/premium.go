package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marloch/vinyl/internal/entitle"
	"github.com/marloch/vinyl/internal/telemetry"
)

var premiumCmd = &cobra.Command{
	Use:   "premium",
	Short: "Manage the premium entitlement",
	Long: `Premium removes the promo cards from the player.

Tokens come from the vinyl service. Verification happens locally, so
premium keeps working offline once activated.`,
}

var premiumActivateCmd = &cobra.Command{
	Use:   "activate <token>",
	Short: "Activate a premium token",
	Args:  cobra.ExactArgs(1),
	RunE:  runPremiumActivate,
}

var premiumStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current entitlement",
	RunE:  runPremiumStatus,
}

var premiumDeactivateCmd = &cobra.Command{
	Use:   "deactivate",
	Short: "Remove the stored token",
	RunE:  runPremiumDeactivate,
}

func init() {
	premiumCmd.AddCommand(premiumActivateCmd)
	premiumCmd.AddCommand(premiumStatusCmd)
	premiumCmd.AddCommand(premiumDeactivateCmd)
	rootCmd.AddCommand(premiumCmd)
}

func premiumManager() (*entitle.Manager, error) {
	logger, err := telemetry.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	return entitle.NewManager(logger, "", os.Getenv("VINYL_PREMIUM_SECRET"))
}

func runPremiumActivate(cmd *cobra.Command, args []string) error {
	manager, err := premiumManager()
	if err != nil {
		return err
	}

	claims, err := manager.Activate(args[0])
	if err != nil {
		return err
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"status":  "active",
			"plan":    claims.Plan,
			"expires": claims.ExpiresAt.Time,
		})
	}

	fmt.Printf("Premium active until %s. Enjoy the quiet.\n",
		claims.ExpiresAt.Format("2006-01-02"))
	return nil
}

func runPremiumStatus(cmd *cobra.Command, args []string) error {
	manager, err := premiumManager()
	if err != nil {
		return err
	}

	claims, err := manager.Status()
	if err != nil {
		if JSONOutput() {
			return json.NewEncoder(os.Stdout).Encode(map[string]string{"status": "free"})
		}
		fmt.Println("Free tier.")
		if Verbose() {
			fmt.Printf("  (%v)\n", err)
		}
		return nil
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"status":  "active",
			"plan":    claims.Plan,
			"expires": claims.ExpiresAt.Time,
		})
	}

	fmt.Printf("Premium, valid until %s\n", claims.ExpiresAt.Format("2006-01-02"))
	return nil
}

func runPremiumDeactivate(cmd *cobra.Command, args []string) error {
	manager, err := premiumManager()
	if err != nil {
		return err
	}
	if err := manager.Deactivate(); err != nil {
		return err
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]string{"status": "free"})
	}
	fmt.Println("Premium token removed.")
	return nil
}
