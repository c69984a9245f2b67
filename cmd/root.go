package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "schemadrift",
	Short: "schemadrift compares table definitions across SQL text, warehouses and lakehouse catalogs.",
	Long:  `schemadrift compares table definitions across SQL text, warehouses and lakehouse catalogs.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
