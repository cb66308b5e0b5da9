// Package sqlite implements the default rates destination: a table in an
// embedded SQLite database file that is replaced on every load.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/ratepipe/ratepipe/pkg/config"
	"github.com/ratepipe/ratepipe/pkg/errors"
	"github.com/ratepipe/ratepipe/pkg/models"
)

// columnTypes are the declared types of models.RateColumns.
var columnTypes = []string{"TEXT", "TEXT", "INTEGER", "REAL", "TIMESTAMP", "REAL"}

// Destination replaces a SQLite table with the loaded records.
type Destination struct {
	path   string
	table  string
	logger *zap.Logger
}

// NewDestination creates a destination for cfg. A nil logger is replaced by
// a no-op one.
func NewDestination(cfg config.SQLiteConfig, logger *zap.Logger) *Destination {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Destination{
		path:   cfg.Path,
		table:  cfg.Table,
		logger: logger.With(zap.String("component", "sqlite_destination")),
	}
}

// Load drops and recreates the table and inserts records, all in one
// transaction. A failed load leaves the previous table in place.
func (d *Destination) Load(ctx context.Context, records []models.NormalizedRateRecord) error {
	db, err := sql.Open("sqlite", d.path)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to open database").WithDetail("path", d.path)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to open database").WithDetail("path", d.path)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeQuery, "failed to begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := d.replace(ctx, tx, records); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeQuery, "failed to commit transaction")
	}

	d.logger.Info("table replaced",
		zap.String("path", d.path),
		zap.String("table", d.table),
		zap.Int("rows", len(records)))
	return nil
}

func (d *Destination) replace(ctx context.Context, tx *sql.Tx, records []models.NormalizedRateRecord) error {
	table := quoteIdent(d.table)

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return errors.Wrap(err, errors.ErrorTypeQuery, "failed to drop table").WithDetail("table", d.table)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(table)); err != nil {
		return errors.Wrap(err, errors.ErrorTypeQuery, "failed to create table").WithDetail("table", d.table)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL(table))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeQuery, "failed to prepare insert").WithDetail("table", d.table)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Values()...); err != nil {
			return errors.Wrap(err, errors.ErrorTypeQuery, "failed to insert row").
				WithDetail("table", d.table).
				WithDetail("row", i)
		}
	}
	return nil
}

func createTableSQL(table string) string {
	cols := make([]string, len(models.RateColumns))
	for i, c := range models.RateColumns {
		cols[i] = fmt.Sprintf("%s %s", quoteIdent(c), columnTypes[i])
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(cols, ", "))
}

func insertSQL(table string) string {
	cols := make([]string, len(models.RateColumns))
	marks := make([]string, len(models.RateColumns))
	for i, c := range models.RateColumns {
		cols[i] = quoteIdent(c)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), strings.Join(marks, ", "))
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
