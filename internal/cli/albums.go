package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/marloch/vinyl/internal/library"
)

var albumsCmd = &cobra.Command{
	Use:   "albums",
	Short: "List the albums in the library",
	RunE:  runAlbums,
}

var tracksCmd = &cobra.Command{
	Use:   "tracks <album>",
	Short: "List the tracks of an album",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTracks,
}

func init() {
	rootCmd.AddCommand(albumsCmd)
	rootCmd.AddCommand(tracksCmd)
}

func runAlbums(cmd *cobra.Command, args []string) error {
	store, err := library.Open(cfg.Library.DBPath)
	if err != nil {
		return fmt.Errorf("opening library: %w", err)
	}
	defer func() { _ = store.Close() }()

	albums, err := store.Albums()
	if err != nil {
		return err
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(albums)
	}

	if len(albums) == 0 {
		fmt.Println("Library is empty. Run 'vinyl scan' first.")
		return nil
	}

	t := newTable("Artist", "Album", "Tracks", "Length", "Added")
	for _, a := range albums {
		t.AppendRow(table.Row{
			a.Artist,
			a.Title,
			strconv.Itoa(a.TrackCount),
			FormatDuration(a.Duration),
			humanize.Time(a.AddedAt),
		})
	}
	t.Render()

	return nil
}

func runTracks(cmd *cobra.Command, args []string) error {
	store, err := library.Open(cfg.Library.DBPath)
	if err != nil {
		return fmt.Errorf("opening library: %w", err)
	}
	defer func() { _ = store.Close() }()

	album, err := store.FindAlbum(strings.Join(args, " "))
	if err != nil {
		return err
	}

	tracks, err := store.AlbumTracks(album.ID)
	if err != nil {
		return err
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(tracks)
	}

	fmt.Printf("%s — %s\n\n", album.Artist, album.Title)

	t := newTable("#", "Title", "Length")
	for _, tr := range tracks {
		t.AppendRow(table.Row{
			strconv.Itoa(tr.TrackNo),
			tr.Title,
			FormatDuration(tr.Duration),
		})
	}
	t.Render()

	return nil
}
