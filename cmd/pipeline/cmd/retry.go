package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LarjGit/edinburgh-finds-sub001/internal/quarantine"
)

var (
	retryMaxRetries int
	retryLimit      int
)

// retryCmd represents the retry command
var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Re-run quarantined extraction failures",
	Long: `Re-run extraction for quarantined failures whose retry count is still
under the budget. A successful retry clears the quarantine row; a failed one
bumps the retry count. Failures past the budget wait for human review.

Examples:
  # Retry everything under the default budget
  pipeline retry

  # Retry at most 10 failures with a budget of 5 attempts
  pipeline retry --limit 10 --max-retries 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		service := quarantine.NewService(a.repo.Failures(), a.log)
		handler := quarantine.NewExtractionHandler(a.newRunner())

		summary, err := service.RetryBatch(ctx, retryMaxRetries, retryLimit, handler)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Retried:   %d\n", summary.Retried)
		fmt.Fprintf(out, "Succeeded: %d\n", summary.Succeeded)
		fmt.Fprintf(out, "Failed:    %d\n", summary.Failed)

		if summary.Failed > 0 {
			return fmt.Errorf("%d retries failed", summary.Failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(retryCmd)

	retryCmd.Flags().IntVar(&retryMaxRetries, "max-retries", quarantine.DefaultMaxRetries, "retry budget per failure")
	retryCmd.Flags().IntVar(&retryLimit, "limit", 0, "cap the number of failures retried (0 = no cap)")
}
