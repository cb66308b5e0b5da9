// Package charts renders report tables as standalone HTML charts using
// go-echarts.
package charts

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"go.uber.org/zap"

	"github.com/ratepipe/ratepipe/pkg/errors"
	"github.com/ratepipe/ratepipe/pkg/models"
	"github.com/ratepipe/ratepipe/pkg/reports"
)

// Kind is the chart type.
type Kind string

const (
	// Line draws the value column as a line over the label column
	Line Kind = "line"
	// Bar draws horizontal bars, largest value on top
	Bar Kind = "bar"
)

// Spec describes how a report table is drawn.
type Spec struct {
	Kind   Kind
	Title  string
	XName  string
	YName  string
	Label  string
	Value  string
	Limit  int
	Width  string
	Height string
}

// Specs maps report names to chart specs.
var Specs = map[string]Spec{
	reports.MonthlyRevenue: {
		Kind: Line, Title: "Monthly Revenue Trend", XName: "Month", YName: "Revenue ($)",
		Label: "month", Value: "revenue", Width: "1200px", Height: "500px",
	},
	reports.TopProducts: {
		Kind: Bar, Title: "Top 10 Products by Revenue", XName: "Product Name", YName: "Total Revenue ($)",
		Label: "product_name", Value: "total_revenue", Limit: 10, Width: "1000px", Height: "500px",
	},
	reports.TopCustomers: {
		Kind: Bar, Title: "Top 10 Customers by Revenue", XName: "Customer Name", YName: "Total Revenue ($)",
		Label: "customer_name", Value: "total_revenue", Limit: 10, Width: "1000px", Height: "500px",
	},
	reports.CategoryMix: {
		Kind: Bar, Title: "Revenue by Category", XName: "Category", YName: "Revenue ($)",
		Label: "category", Value: "revenue", Width: "800px", Height: "500px",
	},
	reports.DiscountSensitivity: {
		Kind: Line, Title: "Total Profit by Discount Range", XName: "Discount Range", YName: "Total Profit ($)",
		Label: "discount_range", Value: "total_profit", Width: "800px", Height: "500px",
	},
}

// Renderer writes one HTML file per table into a directory.
type Renderer struct {
	dir    string
	logger *zap.Logger

	written []string
}

// NewRenderer creates a renderer writing to dir.
func NewRenderer(dir string, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{dir: dir, logger: logger.With(zap.String("component", "charts"))}
}

// Path returns the file a chart for table name is written to.
func (r *Renderer) Path(name string) string {
	return filepath.Join(r.dir, name+".html")
}

// Written returns the files produced so far.
func (r *Renderer) Written() []string {
	return r.written
}

// Load implements core.Loader. Tables without a Spec are skipped.
func (r *Renderer) Load(ctx context.Context, tables []models.Table) error {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create directory").WithDetail("path", r.dir)
	}
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		spec, ok := Specs[t.Name]
		if !ok {
			r.logger.Warn("no chart defined for table", zap.String("table", t.Name))
			continue
		}
		if err := r.renderFile(t, spec); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderFile(t models.Table, spec Spec) error {
	path := r.Path(t.Name)
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create file").WithDetail("path", path)
	}
	defer f.Close()

	if err := Render(f, t, spec); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close file").WithDetail("path", path)
	}

	r.written = append(r.written, path)
	r.logger.Info("chart saved", zap.String("table", t.Name), zap.String("path", path))
	return nil
}

// Render draws t according to spec and writes the HTML page to w.
func Render(w io.Writer, t models.Table, spec Spec) error {
	labels, values, err := series(t, spec)
	if err != nil {
		return err
	}

	global := []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: spec.Title,
			Width:     spec.Width,
			Height:    spec.Height,
		}),
		charts.WithTitleOpts(opts.Title{Title: spec.Title}),
	}

	switch spec.Kind {
	case Line:
		data := make([]opts.LineData, len(values))
		for i, v := range values {
			data[i] = opts.LineData{Value: v}
		}
		line := charts.NewLine()
		line.SetGlobalOptions(append(global,
			charts.WithXAxisOpts(opts.XAxis{Name: spec.XName, AxisLabel: &opts.AxisLabel{Rotate: 45}}),
			charts.WithYAxisOpts(opts.YAxis{Name: spec.YName}),
		)...)
		line.SetXAxis(labels).AddSeries(spec.YName, data)
		err = line.Render(w)

	case Bar:
		// the category axis is drawn bottom up
		n := len(values)
		data := make([]opts.BarData, n)
		reversed := make([]string, n)
		for i := range values {
			data[n-1-i] = opts.BarData{Value: values[i]}
			reversed[n-1-i] = labels[i]
		}
		bar := charts.NewBar()
		bar.SetGlobalOptions(append(global,
			charts.WithXAxisOpts(opts.XAxis{Name: spec.XName}),
			charts.WithYAxisOpts(opts.YAxis{Name: spec.YName}),
		)...)
		bar.SetXAxis(reversed).AddSeries(spec.YName, data)
		bar.XYReversal()
		err = bar.Render(w)

	default:
		return errors.Newf(errors.ErrorTypeValidation, "unsupported chart kind %q", spec.Kind)
	}

	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to render chart").WithDetail("table", t.Name)
	}
	return nil
}

func series(t models.Table, spec Spec) ([]string, []float64, error) {
	li, vi := t.ColumnIndex(spec.Label), t.ColumnIndex(spec.Value)
	if li < 0 || vi < 0 {
		return nil, nil, errors.Newf(errors.ErrorTypeData, "table %s needs columns %s and %s", t.Name, spec.Label, spec.Value).
			WithDetail("columns", t.Columns)
	}

	if spec.Limit > 0 {
		t = t.Head(spec.Limit)
	}

	labels := make([]string, t.Len())
	values := make([]float64, t.Len())
	for i := range t.Rows {
		labels[i] = label(t.Rows[i][li])
		v, err := t.Float(i, vi)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.ErrorTypeData, fmt.Sprintf("invalid value in row %d", i)).WithDetail("table", t.Name)
		}
		values[i] = v
	}
	return labels, values, nil
}

func label(v any) string {
	if ts, ok := v.(time.Time); ok {
		return ts.Format("2006-01")
	}
	return models.FormatValue(v)
}
