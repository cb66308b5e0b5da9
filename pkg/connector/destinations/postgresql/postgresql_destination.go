// Package postgresql loads ratepipe records into PostgreSQL.
//
// Destination replaces the rates table on every run, the same contract as the
// sqlite destination. SuperstoreLoader appends superstore orders to an
// existing table and reports its row statistics.
package postgresql

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/ratepipe/ratepipe/pkg/clients"
	"github.com/ratepipe/ratepipe/pkg/config"
	"github.com/ratepipe/ratepipe/pkg/errors"
	"github.com/ratepipe/ratepipe/pkg/models"
)

// rateColumnTypes are the declared types of models.RateColumns.
var rateColumnTypes = []string{"text", "text", "integer", "double precision", "timestamp", "double precision"}

// Conn is the subset of pgx shared by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Conn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Destination replaces a PostgreSQL table with normalized rates.
type Destination struct {
	config config.PostgresConfig
	logger *zap.Logger
}

// NewDestination creates a rates destination. The connection is opened by
// each Load call.
func NewDestination(cfg config.PostgresConfig, logger *zap.Logger) *Destination {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Destination{
		config: cfg,
		logger: logger.With(zap.String("component", "postgresql_destination")),
	}
}

// Load drops and recreates the rates table and copies records into it inside
// one transaction.
func (d *Destination) Load(ctx context.Context, records []models.NormalizedRateRecord) error {
	pool, err := clients.NewPostgresPool(ctx, d.config, d.logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeQuery, "failed to begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := ReplaceRates(ctx, tx, d.config.RatesTable, records); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, errors.ErrorTypeQuery, "failed to commit transaction")
	}

	d.logger.Info("table replaced",
		zap.String("database", d.config.Name),
		zap.String("table", d.config.RatesTable),
		zap.Int("rows", len(records)))
	return nil
}

// ReplaceRates drops table, recreates it and bulk copies records. Callers
// pass a transaction to make the replacement atomic.
func ReplaceRates(ctx context.Context, conn Conn, table string, records []models.NormalizedRateRecord) error {
	ident := pgx.Identifier{table}

	if _, err := conn.Exec(ctx, "DROP TABLE IF EXISTS "+ident.Sanitize()); err != nil {
		return errors.Wrap(err, errors.ErrorTypeQuery, "failed to drop table").WithDetail("table", table)
	}
	if _, err := conn.Exec(ctx, createTableSQL(ident, models.RateColumns, rateColumnTypes, false)); err != nil {
		return errors.Wrap(err, errors.ErrorTypeQuery, "failed to create table").WithDetail("table", table)
	}

	rows := make([][]any, len(records))
	for i, r := range records {
		var rate any
		if r.Rate != nil {
			rate = *r.Rate
		}
		rows[i] = []any{r.Code, r.Name, r.Scale, rate, r.Date, r.RateNorm}
	}

	n, err := conn.CopyFrom(ctx, ident, models.RateColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeQuery, "failed to copy rows").WithDetail("table", table)
	}
	if n != int64(len(rows)) {
		return errors.Newf(errors.ErrorTypeQuery, "copied %d of %d rows", n, len(rows)).WithDetail("table", table)
	}
	return nil
}

func createTableSQL(table pgx.Identifier, columns, types []string, ifNotExists bool) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = fmt.Sprintf("%s %s", pgx.Identifier{c}.Sanitize(), types[i])
	}
	clause := "CREATE TABLE "
	if ifNotExists {
		clause += "IF NOT EXISTS "
	}
	return clause + table.Sanitize() + " (" + strings.Join(defs, ", ") + ")"
}
