package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	envFile   string
	logLevel  string
	logFormat string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "pipeline",
		Short: "Edinburgh Finds ingestion pipeline",
		Long: `Edinburgh Finds pipeline ingests location and entity data for Edinburgh
from heterogeneous sources and resolves it into canonical entities.

Stages:
- ingest: fetch raw payloads from configured sources, dedupe by content hash
- extract: map raw captures into validated extracted records
- retry: re-run quarantined extraction failures with a bounded retry budget
- finalize: merge extracted records by trust and upsert canonical entities
- migrate: apply or roll back database migrations`,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "env file to load before reading configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, console) (default: json)")
}
