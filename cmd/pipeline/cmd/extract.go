package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LarjGit/edinburgh-finds-sub001/internal/extract"
)

var (
	extractRawID      string
	extractSource     string
	extractLimit      int
	extractDryRun     bool
	extractForceRetry bool
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Map stored raw captures into extracted records",
	Long: `Map stored raw captures into validated extracted records, one record per
(capture, source) pair. Captures that already have a record are skipped
unless --force-retry is set; failures land in quarantine for the retry
command.

Examples:
  # Extract everything pending
  pipeline extract

  # Extract one capture by ID
  pipeline extract --raw-id 01JFXG...

  # Re-extract every serper capture, replacing existing records
  pipeline extract --source serper --force-retry

  # Validate extraction without writing anything
  pipeline extract --source ncr --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		runner := a.newRunner()
		opts := extract.Options{
			DryRun:     extractDryRun,
			ForceRetry: extractForceRetry,
			Limit:      extractLimit,
		}
		out := cmd.OutOrStdout()

		if extractRawID != "" {
			outcome, err := runner.RunSingle(ctx, extractRawID, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: %s\n", extractRawID, outcome)
			return nil
		}

		var summary *extract.Summary
		if extractSource != "" {
			summary, err = runner.RunBySource(ctx, extractSource, opts)
		} else {
			summary, err = runner.RunAllPending(ctx, opts)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Extracted:         %d\n", summary.Successful)
		fmt.Fprintf(out, "Already extracted: %d\n", summary.AlreadyExtracted)
		fmt.Fprintf(out, "Failed:            %d\n", summary.Failed)
		if summary.EstimatedCostUSD > 0 {
			fmt.Fprintf(out, "Estimated cost:    $%.4f\n", summary.EstimatedCostUSD)
		}

		// A batch of already-extracted captures is a success; any failed
		// capture is not, even when others succeeded.
		if summary.Failed > 0 {
			return fmt.Errorf("%d of %d captures failed", summary.Failed, summary.Total())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&extractRawID, "raw-id", "", "extract a single raw capture by ID")
	extractCmd.Flags().StringVar(&extractSource, "source", "", "extract all stored captures for one source")
	extractCmd.Flags().IntVar(&extractLimit, "limit", 0, "cap the number of captures processed (0 = no cap)")
	extractCmd.Flags().BoolVar(&extractDryRun, "dry-run", false, "extract and validate without persisting anything")
	extractCmd.Flags().BoolVar(&extractForceRetry, "force-retry", false, "re-extract captures that already have a record")
}
