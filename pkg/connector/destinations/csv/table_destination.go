// Package csv writes report tables to CSV files, one file per table, with
// optional compression.
package csv

import (
	"bufio"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ratepipe/ratepipe/pkg/compression"
	"github.com/ratepipe/ratepipe/pkg/errors"
	"github.com/ratepipe/ratepipe/pkg/models"
)

// TableDestination writes each loaded table to <dir>/<name>.csv, plus the
// compression extension when one is configured.
type TableDestination struct {
	dir       string
	algorithm compression.Algorithm
	level     compression.Level
	logger    *zap.Logger

	written []string
}

// NewTableDestination creates a destination rooted at dir.
func NewTableDestination(dir string, algorithm compression.Algorithm, logger *zap.Logger) *TableDestination {
	if logger == nil {
		logger = zap.NewNop()
	}
	if algorithm == "" {
		algorithm = compression.None
	}
	return &TableDestination{
		dir:       dir,
		algorithm: algorithm,
		level:     compression.Default,
		logger:    logger.With(zap.String("component", "csv_destination")),
	}
}

// Path returns the file a table named name is written to.
func (d *TableDestination) Path(name string) string {
	return filepath.Join(d.dir, name+".csv"+d.algorithm.Extension())
}

// Written returns the files produced so far.
func (d *TableDestination) Written() []string {
	return d.written
}

// Load implements core.Loader. Existing files are overwritten.
func (d *TableDestination) Load(ctx context.Context, tables []models.Table) error {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create directory").WithDetail("path", d.dir)
	}
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.write(t); err != nil {
			return err
		}
	}
	return nil
}

func (d *TableDestination) write(t models.Table) error {
	path := d.Path(t.Name)

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create file").WithDetail("path", path)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	cw, err := compression.NewWriter(bw, d.algorithm, d.level)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to create compressor").WithDetail("algorithm", string(d.algorithm))
	}

	w := csv.NewWriter(cw)
	if err := w.Write(t.Columns); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write header").WithDetail("path", path)
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = models.FormatValue(row[i])
			}
		}
		if err := w.Write(record); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write row").WithDetail("path", path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush rows").WithDetail("path", path)
	}
	if err := cw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to finish compression").WithDetail("path", path)
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush file").WithDetail("path", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close file").WithDetail("path", path)
	}

	d.written = append(d.written, path)
	d.logger.Info("table exported",
		zap.String("table", t.Name),
		zap.String("path", path),
		zap.Int("rows", t.Len()))
	return nil
}
