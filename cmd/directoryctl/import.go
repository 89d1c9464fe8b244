package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/octobees/business-directory/api/internal/service"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv|file.xlsx|file.json>",
		Short: "Import businesses from a spreadsheet or JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer f.Close()

			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			svc := service.NewBusinessesService(e.businesses)
			summary, err := svc.Import(cmd.Context(), filepath.Base(args[0]), f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			t := newTable(out)
			t.AppendHeader(table.Row{"Rows", "Inserted", "Updated", "Skipped"})
			t.AppendRow(table.Row{summary.Total, summary.Inserted, summary.Updated, summary.Skipped})
			t.Render()
			for _, rowErr := range summary.Errors {
				fmt.Fprintf(out, "row %d: %s\n", rowErr.Row, rowErr.Message)
			}
			return nil
		},
	}
}
