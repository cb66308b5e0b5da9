package postgresql

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ratepipe/ratepipe/pkg/errors"
	"github.com/ratepipe/ratepipe/pkg/models"
)

// superstoreColumnTypes are the declared types of models.SuperstoreColumns.
var superstoreColumnTypes = []string{
	"bigint", "text", "timestamp", "timestamp", "text",
	"text", "text", "text", "text", "text",
	"text", "text", "text", "text", "text",
	"text", "text", "double precision", "bigint", "double precision", "double precision",
}

// TableStats summarizes a loaded superstore table.
type TableStats struct {
	Rows            int64 `json:"rows"`
	UniqueOrders    int64 `json:"unique_orders"`
	UniqueCustomers int64 `json:"unique_customers"`
	Columns         int64 `json:"columns"`
}

// SuperstoreLoader appends superstore orders to a table, creating it on
// first use.
type SuperstoreLoader struct {
	conn   Conn
	table  string
	logger *zap.Logger
	stats  TableStats
}

// NewSuperstoreLoader creates a loader writing to table through conn.
func NewSuperstoreLoader(conn Conn, table string, logger *zap.Logger) *SuperstoreLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SuperstoreLoader{
		conn:   conn,
		table:  table,
		logger: logger.With(zap.String("component", "superstore_loader"), zap.String("table", table)),
	}
}

// Load implements core.Loader. Rows already in the table are kept.
func (l *SuperstoreLoader) Load(ctx context.Context, orders []models.SuperstoreOrder) error {
	ident := pgx.Identifier{l.table}

	if _, err := l.conn.Exec(ctx, createTableSQL(ident, models.SuperstoreColumns, superstoreColumnTypes, true)); err != nil {
		return errors.Wrap(err, errors.ErrorTypeQuery, "failed to create table").WithDetail("table", l.table)
	}

	n, err := l.conn.CopyFrom(ctx, ident, models.SuperstoreColumns,
		pgx.CopyFromSlice(len(orders), func(i int) ([]any, error) {
			return orders[i].Values(), nil
		}))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeQuery, "failed to copy rows").WithDetail("table", l.table)
	}
	l.logger.Info("rows appended", zap.Int64("rows", n))

	stats, err := l.Stats(ctx)
	if err != nil {
		return err
	}
	l.stats = stats

	l.logger.Info("table statistics",
		zap.Int64("total_rows", stats.Rows),
		zap.Int64("unique_orders", stats.UniqueOrders),
		zap.Int64("unique_customers", stats.UniqueCustomers),
		zap.Int64("columns", stats.Columns))
	return nil
}

// Stats queries row, distinct order, distinct customer and column counts.
func (l *SuperstoreLoader) Stats(ctx context.Context) (TableStats, error) {
	var stats TableStats
	ident := pgx.Identifier{l.table}.Sanitize()

	err := l.conn.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT "Order ID"), COUNT(DISTINCT "Customer ID") FROM `+ident,
	).Scan(&stats.Rows, &stats.UniqueOrders, &stats.UniqueCustomers)
	if err != nil {
		return stats, errors.Wrap(err, errors.ErrorTypeQuery, "failed to count rows").WithDetail("table", l.table)
	}

	err = l.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1`,
		l.table,
	).Scan(&stats.Columns)
	if err != nil {
		return stats, errors.Wrap(err, errors.ErrorTypeQuery, "failed to count columns").WithDetail("table", l.table)
	}
	return stats, nil
}

// LastStats returns the statistics gathered by the last successful Load.
func (l *SuperstoreLoader) LastStats() TableStats {
	return l.stats
}
