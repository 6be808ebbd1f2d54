// Command syncd runs the sync job supervisor: it loads the job and
// filename-issue stores, constructs the Job Engine, and either serves
// indefinitely or executes one operator subcommand against the stores.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lucidlink/syncd/internal/logging"
)

var (
	logLevel string
	logJSON  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "syncd",
	Short: "syncd runs and operates parallel directory-sync jobs against a FUSE-mounted filespace",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "output logs as JSON")
	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(issuesCmd)
	rootCmd.AddCommand(dryRunCmd)
}

func initLogging() {
	logging.Init(logging.Config{Level: logging.Level(logLevel), JSON: logJSON})
}
