// Package reports runs the embedded analytical queries over the superstore
// table and returns their results as models.Table values.
package reports

import (
	"context"
	"embed"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ratepipe/ratepipe/pkg/connector/core"
	"github.com/ratepipe/ratepipe/pkg/errors"
	"github.com/ratepipe/ratepipe/pkg/models"
)

// Query names.
const (
	MonthlyRevenue      = "monthly_revenue"
	TopProducts         = "top_products"
	TopCustomers        = "top_customers"
	CategoryMix         = "category_mix"
	DiscountSensitivity = "discount_sensitivity"
)

// tablePlaceholder is replaced by the quoted superstore table name.
const tablePlaceholder = "{{table}}"

//go:embed queries/*.sql
var queryFS embed.FS

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Names returns the available query names, sorted.
func Names() []string {
	entries, err := queryFS.ReadDir("queries")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".sql"))
	}
	sort.Strings(names)
	return names
}

// SQL returns the text of query name bound to table.
func SQL(name, table string) (string, error) {
	data, err := queryFS.ReadFile("queries/" + name + ".sql")
	if err != nil {
		return "", errors.Newf(errors.ErrorTypeNotFound, "unknown query %q", name).
			WithDetail("available", strings.Join(Names(), ", "))
	}
	return strings.ReplaceAll(string(data), tablePlaceholder, pgx.Identifier{table}.Sanitize()), nil
}

// Runner executes named queries against one table.
type Runner struct {
	querier Querier
	table   string
	logger  *zap.Logger
}

// NewRunner creates a runner. A nil logger is replaced by a no-op one.
func NewRunner(q Querier, table string, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		querier: q,
		table:   table,
		logger:  logger.With(zap.String("component", "reports")),
	}
}

// Run executes query name and collects its result.
func (r *Runner) Run(ctx context.Context, name string) (models.Table, error) {
	query, err := SQL(name, r.table)
	if err != nil {
		return models.Table{}, err
	}

	start := time.Now()
	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		return models.Table{}, errors.Wrap(err, errors.ErrorTypeQuery, "failed to run query").WithDetail("query", name)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	result := models.Table{Name: name, Columns: make([]string, len(fields))}
	for i, f := range fields {
		result.Columns[i] = f.Name
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return models.Table{}, errors.Wrap(err, errors.ErrorTypeQuery, "failed to decode row").WithDetail("query", name)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return models.Table{}, errors.Wrap(err, errors.ErrorTypeQuery, "failed to read rows").WithDetail("query", name)
	}

	r.logger.Info("query completed",
		zap.String("query", name),
		zap.Int("rows", result.Len()),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

// Extractor returns an extractor producing one table per name, in order.
// With no names every query runs.
func (r *Runner) Extractor(names ...string) core.Extractor[models.Table] {
	if len(names) == 0 {
		names = Names()
	}
	return core.ExtractorFunc[models.Table](func(ctx context.Context) ([]models.Table, error) {
		tables := make([]models.Table, 0, len(names))
		for _, name := range names {
			t, err := r.Run(ctx, name)
			if err != nil {
				return nil, err
			}
			tables = append(tables, t)
		}
		return tables, nil
	})
}
