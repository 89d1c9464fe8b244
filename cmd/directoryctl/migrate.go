package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/octobees/business-directory/api/internal/migrate"
)

func migrateCmd() *cobra.Command {
	var (
		dryRun   bool
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Rewrite legacy records into the current shape",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			report, err := migrate.Run(cmd.Context(), e.businesses, e.log, migrate.Options{PageSize: pageSize, DryRun: dryRun})

			out := cmd.OutOrStdout()
			t := newTable(out)
			t.AppendHeader(table.Row{"Scanned", "Migrated", "Unrecognised"})
			t.AppendRow(table.Row{report.Scanned, report.Migrated, report.Unrecognised})
			t.Render()
			if len(report.Problems) > 0 {
				p := newTable(out)
				p.SetTitle("Unrecognised records")
				p.AppendHeader(table.Row{"ID", "Name", "Reason"})
				for _, prob := range report.Problems {
					p.AppendRow(table.Row{prob.ID, prob.Name, prob.Reason})
				}
				p.Render()
			}
			if dryRun {
				fmt.Fprintln(out, "dry run: nothing was written")
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report without writing")
	cmd.Flags().IntVar(&pageSize, "page-size", 200, "records per page")
	return cmd
}
