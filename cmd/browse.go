package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/schemadrift/schemadrift/internal/report"
	"github.com/schemadrift/schemadrift/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse <report.json>",
	Short: "Browse a saved comparison report interactively",
	Args:  cobra.ExactArgs(1),
	Run:   runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) {
	f, err := os.Open(args[0])
	if err != nil {
		log.Fatalf("Failed to open report: %v", err)
	}
	defer func() { _ = f.Close() }()

	run, err := report.ReadJSON(f)
	if err != nil {
		log.Fatalf("Failed to read report: %v", err)
	}

	if err := tui.Run(run); err != nil {
		log.Fatalf("Browser failed: %v", err)
	}
}
