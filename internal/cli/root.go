// Package cli defines the eden command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags.
var Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "eden",
	Short: "Eden Pods reconciliation daemon",
	Long: `eden reconciles locally submitted throws and harvests against the
Algorand ledger and serves one consistent unified timeline over HTTP.
Pending submissions are confirmed by polling the indexer, expired after a
TTL, and never shown twice.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the eden version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "eden %s\n", Version)
	},
}
