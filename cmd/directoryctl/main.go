// Command directoryctl runs operator tasks against the business directory:
// enrichment runs, legacy migration, reports, imports and exports.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/octobees/business-directory/api/internal/config"
	"github.com/octobees/business-directory/api/internal/database"
	"github.com/octobees/business-directory/api/internal/logging"
	"github.com/octobees/business-directory/api/internal/repository"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "directoryctl",
		Short:         "Operator tools for the business directory",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(enrichCmd())
	cmd.AddCommand(migrateCmd())
	cmd.AddCommand(reportCmd())
	cmd.AddCommand(exportCmd())
	cmd.AddCommand(importCmd())
	cmd.AddCommand(initDBCmd())
	cmd.AddCommand(tokenCmd())
	cmd.AddCommand(hashPasswordCmd())

	return cmd
}

// env is the configuration and storage shared by the database commands.
type env struct {
	cfg        *config.Config
	log        *logrus.Logger
	pool       *pgxpool.Pool
	businesses *repository.PGXBusinessesRepository
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	pool, err := database.Connect(ctx, cfg.DatabaseURL, 4)
	if err != nil {
		return nil, err
	}
	if err := database.ApplySchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &env{
		cfg:        cfg,
		log:        log,
		pool:       pool,
		businesses: repository.NewPGXBusinessesRepository(pool),
	}, nil
}

func (e *env) Close() {
	e.pool.Close()
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

func initDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the tables and indexes if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
}
