package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/schemadrift/schemadrift/internal/reader"
	"github.com/schemadrift/schemadrift/internal/sqlcheck"
)

var validateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Run strict parser diagnostics over a DDL file or directory",
	Long: `Run strict parser diagnostics over a DDL file or directory.

The comparison itself uses a tolerant grammar; validate exists so CI can
catch broken SQL before drift is measured.`,
	Args: cobra.ExactArgs(1),
	Run:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) {
	text, err := loadDDLText(args[0])
	if err != nil {
		log.Fatalf("Failed to load DDL: %v", err)
	}

	statements, splitErrs := reader.Split(text)
	for _, e := range splitErrs {
		fmt.Fprintf(os.Stderr, "error: %v\n", e)
	}

	diags := sqlcheck.Check(statements)
	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "error: %s\n", d)
	}

	if len(splitErrs) > 0 || len(diags) > 0 {
		os.Exit(1)
	}
	fmt.Printf("%d statement(s) OK\n", len(statements))
}
