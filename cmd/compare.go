package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/schemadrift/schemadrift/internal/config"
	"github.com/schemadrift/schemadrift/internal/report"
	"github.com/schemadrift/schemadrift/internal/runner"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare two schema sources and report structural differences",
	Long: `Compare two schema sources and report structural differences.

Sources are names from schemadrift.toml or inline kind:location specs.`,
	Example: `  # Compare checked-in DDL against the warehouse defined in config
  schemadrift compare --left git --right warehouse

  # Inline specs, JSON report for the spreadsheet pipeline
  schemadrift compare --left ddl:./sql --right iceberg:./snapshot.json --format json > report.json`,
	Run: runCompare,
}

var (
	compareLeft       string
	compareRight      string
	compareFormat     string
	compareFailOnDiff bool
)

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringVar(&compareLeft, "left", "", "Left source (config name or kind:location)")
	compareCmd.Flags().StringVar(&compareRight, "right", "", "Right source (config name or kind:location)")
	compareCmd.Flags().StringVar(&compareFormat, "format", "text", "Output format: text or json")
	compareCmd.Flags().BoolVar(&compareFailOnDiff, "fail-on-diff", false, "Exit non-zero when differences are found")
}

func runCompare(cmd *cobra.Command, args []string) {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config file: %v", err)
	}

	leftArg := compareLeft
	if leftArg == "" {
		leftArg = cfg.DefaultLeft
	}
	rightArg := compareRight
	if rightArg == "" {
		rightArg = cfg.DefaultRight
	}
	if leftArg == "" || rightArg == "" {
		log.Fatalf("Both sides are required: pass --left/--right or set default_left/default_right in schemadrift.toml")
	}

	left, closeLeft, err := openSource(cfg, leftArg)
	if err != nil {
		log.Fatalf("Failed to open left source: %v", err)
	}
	defer closeLeft()

	right, closeRight, err := openSource(cfg, rightArg)
	if err != nil {
		log.Fatalf("Failed to open right source: %v", err)
	}
	defer closeRight()

	run, err := runner.Compare(context.Background(), left, right)
	if err != nil {
		log.Fatalf("Comparison failed: %v", err)
	}

	switch compareFormat {
	case "json":
		if err := report.WriteJSON(os.Stdout, run); err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
	case "text":
		if err := report.WriteText(os.Stdout, run); err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
	default:
		log.Fatalf("Unsupported format: %s (use 'text' or 'json')", compareFormat)
	}

	if len(run.Errors) > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d table(s) could not be compared\n", len(run.Errors))
	}
	if compareFailOnDiff && len(run.Entries) > 0 {
		os.Exit(1)
	}
}
