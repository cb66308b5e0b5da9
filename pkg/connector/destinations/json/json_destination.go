// Package json writes normalized rates to a JSON file. The file is replaced
// on every load: records are written to a temporary file in the same
// directory which is then renamed over the target.
package json

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ratepipe/ratepipe/pkg/config"
	"github.com/ratepipe/ratepipe/pkg/errors"
	jsonpkg "github.com/ratepipe/ratepipe/pkg/json"
	"github.com/ratepipe/ratepipe/pkg/models"
)

// JSONFormat represents the JSON file format
type JSONFormat string

const (
	// JSONArray represents a file containing a JSON array of objects
	JSONArray JSONFormat = "array"
	// JSONLines represents line-delimited JSON (JSONL/NDJSON)
	JSONLines JSONFormat = "lines"
)

// JSONDestination writes rates to a JSON file
type JSONDestination struct {
	path   string
	format JSONFormat
	indent string
	logger *zap.Logger
}

// NewJSONDestination creates a destination for cfg
func NewJSONDestination(cfg config.JSONConfig, logger *zap.Logger) *JSONDestination {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &JSONDestination{
		path:   cfg.Path,
		format: JSONFormat(cfg.Format),
		logger: logger.With(zap.String("component", "json_destination")),
	}
	if d.format == "" {
		d.format = JSONArray
	}
	if cfg.Pretty && d.format == JSONArray {
		d.indent = "  "
	}
	return d
}

// Load replaces the output file with records.
func (d *JSONDestination) Load(ctx context.Context, records []models.NormalizedRateRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create directory").WithDetail("path", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(d.path)+".*")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create file").WithDetail("path", d.path)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename

	if err := d.write(tmp, records); err != nil {
		tmp.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write records").WithDetail("path", d.path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close file").WithDetail("path", d.path)
	}
	if err := os.Rename(tmp.Name(), d.path); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to replace file").WithDetail("path", d.path)
	}

	d.logger.Info("file written",
		zap.String("path", d.path),
		zap.String("format", string(d.format)),
		zap.Int("records", len(records)))
	return nil
}

func (d *JSONDestination) write(f *os.File, records []models.NormalizedRateRecord) error {
	switch d.format {
	case JSONArray:
		return jsonpkg.WriteArray(f, records, d.indent)
	case JSONLines:
		w := bufio.NewWriter(f)
		for _, r := range records {
			data, err := jsonpkg.Marshal(r)
			if err != nil {
				return err
			}
			if _, err := w.Write(append(data, '\n')); err != nil {
				return err
			}
		}
		return w.Flush()
	default:
		return fmt.Errorf("unsupported format %q", d.format)
	}
}
