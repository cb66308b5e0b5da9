// Package csv reads the Sample Superstore dataset from a CSV file.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/ratepipe/ratepipe/pkg/compression"
	"github.com/ratepipe/ratepipe/pkg/config"
	"github.com/ratepipe/ratepipe/pkg/errors"
	"github.com/ratepipe/ratepipe/pkg/models"
)

// dateLayouts are tried in order for Order Date and Ship Date.
var dateLayouts = []string{"1/2/2006", "2006-01-02", "2006-01-02 15:04:05"}

// SuperstoreSource extracts orders from a latin1 encoded CSV file, optionally
// compressed (the algorithm is picked from the file extension).
type SuperstoreSource struct {
	path   string
	limit  int
	logger *zap.Logger
}

// NewSuperstoreSource creates a source reading cfg.CSVPath.
func NewSuperstoreSource(cfg config.SuperstoreConfig, logger *zap.Logger) *SuperstoreSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SuperstoreSource{
		path:   cfg.CSVPath,
		limit:  cfg.Limit,
		logger: logger.With(zap.String("component", "superstore_source")),
	}
}

// Extract reads every row, or the first limit rows when a limit is set.
func (s *SuperstoreSource) Extract(ctx context.Context) ([]models.SuperstoreOrder, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open CSV file").
			WithDetail("path", s.path)
	}
	defer f.Close()

	s.logger.Info("loading data", zap.String("path", s.path))

	dr, err := compression.NewReader(f, compression.FromPath(s.path))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open compressed CSV file").
			WithDetail("path", s.path)
	}
	defer dr.Close()

	orders, err := s.read(ctx, charmap.ISO8859_1.NewDecoder().Reader(dr))
	if err != nil {
		return nil, err
	}

	s.logger.Info("data loaded",
		zap.Int("rows", len(orders)),
		zap.Int("columns", len(models.SuperstoreColumns)))
	return orders, nil
}

func (s *SuperstoreSource) read(ctx context.Context, r io.Reader) ([]models.SuperstoreOrder, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrorTypeData, "CSV file is empty")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read CSV header")
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var orders []models.SuperstoreOrder
	for line := 2; s.limit == 0 || len(orders) < s.limit; line++ {
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "malformed CSV row").
				WithDetail("line", line)
		}

		order, err := parseOrder(record, index)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, fmt.Sprintf("invalid row on line %d", line)).
				WithDetail("line", line)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// columnIndex maps each expected column to its position in header.
func columnIndex(header []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if i == 0 {
			// UTF-8 byte order mark seen through the latin1 decoder
			name = strings.TrimPrefix(strings.TrimPrefix(name, "\u00ef\u00bb\u00bf"), "\ufeff")
		}
		positions[name] = i
	}

	var missing []string
	for _, col := range models.SuperstoreColumns {
		if _, ok := positions[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Newf(errors.ErrorTypeData, "CSV header is missing columns: %s", strings.Join(missing, ", "))
	}
	return positions, nil
}

type rowParser struct {
	record []string
	index  map[string]int
	err    error
}

func (p *rowParser) text(col string) string {
	return strings.TrimSpace(p.record[p.index[col]])
}

func (p *rowParser) integer(col string) int {
	if p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(strings.ReplaceAll(p.text(col), ",", ""))
	if err != nil {
		p.err = fmt.Errorf("column %q: %w", col, err)
	}
	return v
}

func (p *rowParser) number(col string) float64 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(p.text(col), ",", ""), 64)
	if err != nil {
		p.err = fmt.Errorf("column %q: %w", col, err)
	}
	return v
}

func (p *rowParser) date(col string) time.Time {
	if p.err != nil {
		return time.Time{}
	}
	raw := p.text(col)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	p.err = fmt.Errorf("column %q: unrecognized date %q", col, raw)
	return time.Time{}
}

func parseOrder(record []string, index map[string]int) (models.SuperstoreOrder, error) {
	p := &rowParser{record: record, index: index}

	order := models.SuperstoreOrder{
		RowID:        p.integer("Row ID"),
		OrderID:      p.text("Order ID"),
		OrderDate:    p.date("Order Date"),
		ShipDate:     p.date("Ship Date"),
		ShipMode:     p.text("Ship Mode"),
		CustomerID:   p.text("Customer ID"),
		CustomerName: p.text("Customer Name"),
		Segment:      p.text("Segment"),
		Country:      p.text("Country"),
		City:         p.text("City"),
		State:        p.text("State"),
		PostalCode:   p.text("Postal Code"),
		Region:       p.text("Region"),
		ProductID:    p.text("Product ID"),
		Category:     p.text("Category"),
		SubCategory:  p.text("Sub-Category"),
		ProductName:  p.text("Product Name"),
		Sales:        p.number("Sales"),
		Quantity:     p.integer("Quantity"),
		Discount:     p.number("Discount"),
		Profit:       p.number("Profit"),
	}
	return order, p.err
}
