package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/marloch/vinyl/internal/library"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently played tracks",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := library.Open(cfg.Library.DBPath)
	if err != nil {
		return fmt.Errorf("opening library: %w", err)
	}
	defer func() { _ = store.Close() }()

	entries, err := store.History(historyLimit)
	if err != nil {
		return err
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("Nothing played yet.")
		return nil
	}

	t := newTable("Played", "Title", "Artist")
	for _, e := range entries {
		if e.Track == nil {
			continue
		}
		t.AppendRow(table.Row{
			humanize.Time(e.PlayedAt),
			e.Track.Title,
			e.Track.Artist,
		})
	}
	t.Render()

	return nil
}
