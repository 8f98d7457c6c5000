package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

// Populated via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

type buildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the vinyl version",
	Run: func(cmd *cobra.Command, args []string) {
		info := buildInfo{
			Version:   Version,
			Commit:    Commit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		}
		if JSONOutput() {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(info)
			return
		}

		fmt.Printf("vinyl %s\n", info.Version)
		if Verbose() {
			fmt.Printf("  commit:  %s\n", info.Commit)
			fmt.Printf("  built:   %s\n", info.BuildDate)
			fmt.Printf("  go:      %s\n", info.GoVersion)
			fmt.Printf("  os/arch: %s\n", info.Platform)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
