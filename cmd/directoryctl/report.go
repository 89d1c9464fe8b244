package main

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/octobees/business-directory/api/internal/dto"
	"github.com/octobees/business-directory/api/internal/entity"
	"github.com/octobees/business-directory/api/internal/repository"
)

func reportCmd() *cobra.Command {
	var sample int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show enrichment coverage and a sample of scraped records",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			counts, err := e.businesses.Counts(cmd.Context())
			if err != nil {
				return err
			}
			var scraped []entity.Business
			if sample > 0 {
				scraped, _, err = e.businesses.List(cmd.Context(), dto.BusinessListFilter{ScrapedOnly: true, Page: 1, Limit: sample})
				if err != nil {
					return err
				}
			}
			renderReport(cmd.OutOrStdout(), counts, scraped)
			return nil
		},
	}

	cmd.Flags().IntVar(&sample, "sample", 5, "number of scraped records to show")
	return cmd
}

func renderReport(out io.Writer, counts repository.BusinessCounts, sample []entity.Business) {
	t := newTable(out)
	t.SetTitle("Directory coverage")
	t.AppendHeader(table.Row{"Metric", "Records"})
	t.AppendRows([]table.Row{
		{"Total", counts.Total},
		{"With contact person", counts.Scraped},
		{"Details completed", counts.DetailsCompleted},
		{"Details failed", counts.DetailsFailed},
		{"Presence completed", counts.PresenceCompleted},
		{"Presence failed", counts.PresenceFailed},
		{"Public presence found", counts.WithPresence},
		{"Legacy shape", counts.Legacy},
	})
	t.Render()

	if len(sample) == 0 {
		return
	}
	s := newTable(out)
	s.SetTitle("Scraped sample")
	s.AppendHeader(table.Row{"Name", "Corporate ID", "Contact", "Category", "Address"})
	for _, b := range sample {
		s.AppendRow(table.Row{b.Name, b.CorporateID.String(), b.ContactPerson.String(), b.Category.String(), b.Address.String()})
	}
	s.Render()
}
