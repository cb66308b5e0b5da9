package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ratepipe/ratepipe/internal/pipeline"
	"github.com/ratepipe/ratepipe/pkg/charts"
	"github.com/ratepipe/ratepipe/pkg/clients"
	"github.com/ratepipe/ratepipe/pkg/compression"
	"github.com/ratepipe/ratepipe/pkg/connector/core"
	csvdest "github.com/ratepipe/ratepipe/pkg/connector/destinations/csv"
	"github.com/ratepipe/ratepipe/pkg/connector/destinations/postgresql"
	csvsource "github.com/ratepipe/ratepipe/pkg/connector/sources/csv"
	"github.com/ratepipe/ratepipe/pkg/errors"
	"github.com/ratepipe/ratepipe/pkg/logger"
	"github.com/ratepipe/ratepipe/pkg/models"
	"github.com/ratepipe/ratepipe/pkg/reports"
	"github.com/ratepipe/ratepipe/pkg/transform"
)

func newSuperstoreCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "superstore",
		Short: "Load the Sample Superstore dataset and produce reports",
		Long: `Commands working on the Sample Superstore dataset in PostgreSQL.

Connection settings come from the postgres section of the configuration or
from DB_HOST, DB_PORT, DB_NAME, DB_USER and DB_PASS (a .env file is read).`,
	}
	cmd.AddCommand(
		newSuperstoreLoadCmd(a),
		newSuperstoreExportCmd(a),
		newSuperstoreChartsCmd(a),
	)
	return cmd
}

func newSuperstoreLoadCmd(a *app) *cobra.Command {
	var file string
	var limit int

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Append the CSV dataset to the superstore table",
		Long: `Read the Sample Superstore CSV (latin1, optionally compressed), profile it and
append its rows to the superstore table, creating the table when missing.

Example:
  ratepipe superstore load
  ratepipe superstore load --file data/raw/SampleSuperstore.csv.gz --limit 100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg.Superstore
			if file != "" {
				cfg.CSVPath = file
			}
			if cmd.Flags().Changed("limit") {
				cfg.Limit = limit
			}
			if cfg.Limit < 0 {
				return errors.New(errors.ErrorTypeValidation, "--limit cannot be negative")
			}

			return a.execute(cmd, func(ctx context.Context) error {
				return a.withPool(ctx, func(pool *pgxpool.Pool) error {
					log := logger.Get()
					p := pipeline.New[models.SuperstoreOrder, models.SuperstoreOrder]("superstore_load",
						csvsource.NewSuperstoreSource(cfg, log),
						transform.NewSuperstoreProfiler(log),
						postgresql.NewSuperstoreLoader(pool, cfg.Table, log),
						pipeline.WithLogger(log),
						pipeline.WithMetrics(a.metrics))
					return p.Run(ctx)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file to load (default from config)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Load at most this many rows (0 = all)")
	return cmd
}

func newSuperstoreExportCmd(a *app) *cobra.Command {
	var all bool
	var compress string

	cmd := &cobra.Command{
		Use:   "export [query]",
		Short: "Export analytical query results to CSV",
		Long: fmt.Sprintf(`Run a named analytical query and write the result to <reports_dir>/tables/<query>.csv.

Available queries: %v

Example:
  ratepipe superstore export top_products
  ratepipe superstore export --all --compress gzip`, reports.Names()),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := exportNames(args, all, a.cfg.Superstore.Table)
			if err != nil {
				return err
			}
			algo, err := compression.Parse(compress)
			if err != nil {
				return errors.Wrap(err, errors.ErrorTypeValidation, "invalid --compress value")
			}

			return a.execute(cmd, func(ctx context.Context) error {
				return a.withPool(ctx, func(pool *pgxpool.Pool) error {
					log := logger.Get()
					dst := csvdest.NewTableDestination(filepath.Join(a.cfg.Superstore.ReportsDir, "tables"), algo, log)
					p := pipeline.New[models.Table, models.Table]("superstore_export",
						reports.NewRunner(pool, a.cfg.Superstore.Table, log).Extractor(names...),
						core.Passthrough[models.Table](),
						dst,
						pipeline.WithLogger(log),
						pipeline.WithMetrics(a.metrics))
					if err := p.Run(ctx); err != nil {
						return err
					}
					for _, path := range dst.Written() {
						fmt.Fprintf(cmd.OutOrStdout(), "Results exported to %s\n", path)
					}
					return nil
				})
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Export every query")
	cmd.Flags().StringVar(&compress, "compress", "none", "Compress output: none, gzip, zstd, snappy, s2, lz4")
	return cmd
}

// exportNames resolves the queries selected on the command line.
func exportNames(args []string, all bool, table string) ([]string, error) {
	switch {
	case all && len(args) > 0:
		return nil, errors.New(errors.ErrorTypeValidation, "pass either a query name or --all, not both")
	case all:
		return reports.Names(), nil
	case len(args) == 0:
		return nil, errors.Newf(errors.ErrorTypeValidation, "a query name or --all is required; available: %v", reports.Names())
	}
	if _, err := reports.SQL(args[0], table); err != nil {
		return nil, err
	}
	return args, nil
}

func newSuperstoreChartsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "charts",
		Short: "Render HTML charts for all analytical queries",
		Long: `Run every analytical query and render one HTML chart per query into
<reports_dir>/figures.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.execute(cmd, func(ctx context.Context) error {
				return a.withPool(ctx, func(pool *pgxpool.Pool) error {
					log := logger.Get()
					renderer := charts.NewRenderer(filepath.Join(a.cfg.Superstore.ReportsDir, "figures"), log)
					p := pipeline.New[models.Table, models.Table]("superstore_charts",
						reports.NewRunner(pool, a.cfg.Superstore.Table, log).Extractor(),
						core.Passthrough[models.Table](),
						renderer,
						pipeline.WithLogger(log),
						pipeline.WithMetrics(a.metrics))
					if err := p.Run(ctx); err != nil {
						return err
					}
					for _, path := range renderer.Written() {
						fmt.Fprintf(cmd.OutOrStdout(), "Figure saved: %s\n", path)
					}
					return nil
				})
			})
		},
	}
}

// withPool opens a PostgreSQL pool for the duration of fn.
func (a *app) withPool(ctx context.Context, fn func(*pgxpool.Pool) error) error {
	pool, err := clients.NewPostgresPool(ctx, a.cfg.Postgres, logger.Get())
	if err != nil {
		return err
	}
	defer pool.Close()

	a.log.Debug("connected", zap.String("database", a.cfg.Postgres.Name))
	return fn(pool)
}
