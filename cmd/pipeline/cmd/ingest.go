package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LarjGit/edinburgh-finds-sub001/internal/connector"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/ingest"
)

var (
	ingestQuery   string
	ingestSources []string
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch raw payloads from configured sources",
	Long: `Fetch raw payloads from one or more configured sources and persist them
as raw captures. Payloads whose content hash already exists are skipped.

Each invocation is anchored to an orchestration run; pass the run ID printed
here to the finalize command later.

Examples:
  # Query every enabled source
  pipeline ingest --query "padel edinburgh"

  # Query a single source
  pipeline ingest --query "padel edinburgh" --source serper

  # Query several sources in one run
  pipeline ingest --query "climbing" --source serper --source google_places`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		configs, err := connector.LoadSourceConfigs(a.cfg.Pipeline.SourcesPath)
		if err != nil {
			return fmt.Errorf("load source configs: %w", err)
		}

		orchestrator := ingest.NewOrchestrator(
			connector.DefaultRegistry(),
			configs,
			connector.Deps{Store: a.store, Captures: a.repo.Captures(), Logger: a.log},
			a.repo.Runs(),
			a.log,
			a.cfg.Pipeline.Parallelism,
		)

		summary, err := orchestrator.Run(ctx, ingestQuery, ingestSources)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run:          %s\n", summary.RunID)
		fmt.Fprintf(out, "Stored:       %d\n", summary.Stored)
		fmt.Fprintf(out, "Deduplicated: %d\n", summary.Deduplicated)
		fmt.Fprintf(out, "Failed:       %d\n", summary.Failed)
		for _, result := range summary.Results {
			if result.Err != nil {
				fmt.Fprintf(out, "  %s: %v\n", result.Source, result.Err)
			}
		}

		if summary.Stored == 0 && summary.Deduplicated == 0 && summary.Failed > 0 {
			return fmt.Errorf("every source failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestQuery, "query", "", "search query to pass to each connector")
	ingestCmd.Flags().StringArrayVar(&ingestSources, "source", nil, "source to ingest (repeatable; default: all enabled sources)")
}
