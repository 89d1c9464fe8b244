package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/octobees/business-directory/api/internal/entity"
)

const exportPageSize = 500

type allLister interface {
	ListAll(ctx context.Context, afterSeq int64, limit int) ([]entity.Business, error)
}

func exportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump every business as a JSON array",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				defer f.Close()
				out = f
			}

			n, err := writeExport(cmd.Context(), e.businesses, out)
			if err != nil {
				return err
			}
			e.log.WithField("records", n).Info("export finished")
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "file to write, - for stdout")
	return cmd
}

// writeExport streams records page by page so large tables never sit in memory.
func writeExport(ctx context.Context, store allLister, w io.Writer) (int, error) {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("["); err != nil {
		return 0, err
	}

	var (
		cursor int64
		n      int
	)
	for {
		page, err := store.ListAll(ctx, cursor, exportPageSize)
		if err != nil {
			return n, fmt.Errorf("list businesses: %w", err)
		}
		if len(page) == 0 {
			break
		}
		for _, b := range page {
			data, err := json.Marshal(b)
			if err != nil {
				return n, fmt.Errorf("encode %s: %w", b.ID, err)
			}
			if n > 0 {
				bw.WriteString(",")
			}
			bw.WriteString("\n  ")
			bw.Write(data)
			n++
			cursor = b.Seq
		}
	}

	if n > 0 {
		bw.WriteString("\n")
	}
	bw.WriteString("]\n")
	return n, bw.Flush()
}
