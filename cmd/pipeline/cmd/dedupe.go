package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/LarjGit/edinburgh-finds-sub001/internal/domain/extractions"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/match"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/slug"
)

var dedupeRunID string

// dedupeCmd represents the dedupe command
var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Report extracted records that match as duplicates",
	Long: `Report groups of extracted records that the matching cascade considers
the same entity: shared external ID, equivalent slug, or fuzzy name+location
agreement. Read-only; use the report to seed manual trust overrides before
finalizing.

Examples:
  # Check every extracted record
  pipeline dedupe

  # Check only the records produced at or after one run
  pipeline dedupe --run-id 0b07...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		since := time.Time{}
		if dedupeRunID != "" {
			run, err := a.repo.Runs().GetByID(ctx, dedupeRunID)
			if err != nil {
				return err
			}
			since = run.CreatedAt
		}

		records, err := a.repo.Extractions().ListCreatedSince(ctx, since)
		if err != nil {
			return err
		}

		candidates := make([]match.Record, len(records))
		for i, record := range records {
			candidates[i] = matchRecord(record)
		}

		out := cmd.OutOrStdout()
		groupCount := 0
		for _, group := range match.NewDeduplicator().FindDuplicates(candidates) {
			if len(group) < 2 {
				continue
			}
			groupCount++
			fmt.Fprintf(out, "group %d:\n", groupCount)
			for _, index := range group {
				record := records[index]
				fmt.Fprintf(out, "  %s  %s  %q\n", record.ID, record.Source, candidates[index].EntityName)
			}
		}
		fmt.Fprintf(out, "%d duplicate group(s) across %d record(s)\n", groupCount, len(records))
		return nil
	},
}

// matchRecord projects an extracted record onto the fields the matchers
// inspect.
func matchRecord(record extractions.ExtractedRecord) match.Record {
	name, _ := record.Attributes["entity_name"].(string)
	out := match.Record{
		EntityName:  name,
		Slug:        slug.Make(name),
		ExternalIDs: record.ExternalIDs,
	}
	if lat, ok := record.Attributes["latitude"].(float64); ok {
		out.Latitude = &lat
	}
	if lng, ok := record.Attributes["longitude"].(float64); ok {
		out.Longitude = &lng
	}
	return out
}

func init() {
	rootCmd.AddCommand(dedupeCmd)

	dedupeCmd.Flags().StringVar(&dedupeRunID, "run-id", "", "restrict the report to records created at or after this run")
}
