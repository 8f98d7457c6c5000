package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/marloch/vinyl/internal/feedback"
	"github.com/marloch/vinyl/internal/library"
	"github.com/marloch/vinyl/internal/telemetry"
	"github.com/marloch/vinyl/internal/wizard"
)

var feedbackContact string

var feedbackCmd = &cobra.Command{
	Use:   "feedback [message]",
	Short: "Send feedback to the developers",
	Long: `Send a feedback message. With no arguments, opens a short form.

The message is stored locally first and uploaded when the service is
reachable, so it works offline too. 'vinyl feedback flush' retries any
messages still waiting.`,
	Args: cobra.ArbitraryArgs,
	RunE: runFeedback,
}

var feedbackFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Retry uploading stored feedback",
	Args:  cobra.NoArgs,
	RunE:  runFeedbackFlush,
}

func init() {
	feedbackCmd.Flags().StringVar(&feedbackContact, "contact", "", "email for replies (optional)")
	feedbackCmd.AddCommand(feedbackFlushCmd)
	rootCmd.AddCommand(feedbackCmd)
}

func feedbackService() (*feedback.Service, *library.Store, error) {
	logger, err := telemetry.NewLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}

	store, err := library.Open(cfg.Library.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening library: %w", err)
	}

	svc := feedback.NewService(logger, store, cfg.Remote.BaseURL,
		time.Duration(cfg.Remote.Timeout)*time.Second)
	return svc, store, nil
}

func runFeedback(cmd *cobra.Command, args []string) error {
	message := strings.Join(args, " ")
	contact := feedbackContact
	if len(args) == 0 {
		var err error
		message, contact, err = wizard.RunFeedbackForm()
		if err != nil {
			return err
		}
	}

	svc, store, err := feedbackService()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	fb, err := svc.Submit(cmd.Context(), message, contact)
	if err != nil {
		return err
	}

	delivered := fb.SentAt != nil

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"id":        fb.ID,
			"delivered": delivered,
		})
	}

	if delivered {
		fmt.Println("Thanks! Feedback delivered.")
	} else {
		fmt.Println("Thanks! Stored locally, will upload when the service is reachable.")
	}
	return nil
}

func runFeedbackFlush(cmd *cobra.Command, args []string) error {
	svc, store, err := feedbackService()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	sent, err := svc.Flush(cmd.Context())
	if err != nil {
		if sent > 0 {
			fmt.Printf("Delivered %d, then: %v\n", sent, err)
			return nil
		}
		return err
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]int{"delivered": sent})
	}

	if sent == 0 {
		fmt.Println("Nothing waiting.")
	} else {
		fmt.Printf("Delivered %d stored message(s).\n", sent)
	}
	return nil
}
