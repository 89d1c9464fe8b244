package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/octobees/business-directory/api/internal/app"
	"github.com/octobees/business-directory/api/internal/enrichment"
	"github.com/octobees/business-directory/api/internal/enrichment/batch"
	"github.com/octobees/business-directory/api/internal/entity"
)

func enrichCmd() *cobra.Command {
	var (
		target      string
		scrapedOnly bool
		pageSize    int
		noLock      bool
	)

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Backfill business records from detail pages or web search",
		Long: `Walks every eligible record once in insertion order and fills missing
fields from the configured target. Interrupting the run finishes the record in
flight and prints what was done so far.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := entity.ParseEnrichmentTarget(target)
			if err != nil {
				return err
			}

			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			coordinator, closePipeline, err := app.NewPipeline(cmd.Context(), e.cfg, e.businesses, e.log, app.PipelineOptions{
				Filter:      enrichment.Filter{Target: parsed, ScrapedOnly: scrapedOnly},
				PageSize:    pageSize,
				DisableLock: noLock,
			})
			if err != nil {
				return err
			}
			defer closePipeline()

			stats, runErr := coordinator.Run(cmd.Context())
			renderStats(cmd.OutOrStdout(), stats)
			if errors.Is(runErr, batch.ErrRunInProgress) {
				return fmt.Errorf("another %s run holds the lock", parsed)
			}
			if runErr != nil {
				return fmt.Errorf("enrichment run %s: %w", stats.State, runErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", string(entity.TargetDetails), "what to enrich from: details or presence")
	cmd.Flags().BoolVar(&scrapedOnly, "scraped-only", false, "presence only: limit to records with a contact person")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "records per page (defaults to ENRICH_PAGE_SIZE)")
	cmd.Flags().BoolVar(&noLock, "no-lock", false, "skip the redis run lock")

	return cmd
}

func renderStats(out io.Writer, stats batch.Stats) {
	t := newTable(out)
	t.SetTitle(fmt.Sprintf("Enrichment run %s (%s)", stats.RunID, stats.Target))
	t.AppendHeader(table.Row{"State", "Eligible", "Processed", "Succeeded", "Failed", "Skipped", "Changed", "Duration"})
	t.AppendRow(table.Row{stats.State, stats.Total, stats.Processed, stats.Succeeded, stats.Failed, stats.Skipped, stats.Changed, stats.Duration().Round(time.Millisecond)})
	t.Render()

	if len(stats.Errors) == 0 {
		return
	}
	errs := newTable(out)
	errs.SetTitle("Failed and skipped records")
	errs.AppendHeader(table.Row{"Business", "Name", "Result", "Class", "Message"})
	for _, re := range stats.Errors {
		errs.AppendRow(table.Row{re.BusinessID, re.Name, re.Result, re.Class, re.Message})
	}
	errs.Render()
}
