package json

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ratepipe/ratepipe/pkg/config"
	"github.com/ratepipe/ratepipe/pkg/connector/registry"
	"github.com/ratepipe/ratepipe/pkg/errors"
	jsonpkg "github.com/ratepipe/ratepipe/pkg/json"
	"github.com/ratepipe/ratepipe/pkg/models"
	"github.com/ratepipe/ratepipe/pkg/testutil"
)

var day = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

func records() []models.NormalizedRateRecord {
	return []models.NormalizedRateRecord{
		{RateRecord: models.RateRecord{Code: "USD", Name: "Доллар США", Scale: 1, Rate: models.Float64(3.4197), Date: day}, RateNorm: 3.4197},
		{RateRecord: models.RateRecord{Code: "CNY", Name: "Китайских юаней", Scale: 10, Rate: models.Float64(4.6737), Date: day}, RateNorm: 0.46737},
	}
}

func TestJSONDestination_Array(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "rates.json")
	dst := NewJSONDestination(config.JSONConfig{Path: path, Format: "array", Pretty: true}, testutil.TestLogger(t))

	require.NoError(t, dst.Load(context.Background(), records()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got []map[string]interface{}
	require.NoError(t, jsonpkg.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "USD", got[0]["code"])
	assert.Equal(t, "Китайских юаней", got[1]["name"])
	assert.Equal(t, float64(10), got[1]["scale"])
	assert.InDelta(t, 0.46737, got[1]["rate_norm"], 1e-12)
	assert.Equal(t, "2025-01-02T00:00:00Z", got[0]["date"])
}

func TestJSONDestination_Lines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.ndjson")
	dst := NewJSONDestination(config.JSONConfig{Path: path, Format: "lines"}, nil)

	require.NoError(t, dst.Load(context.Background(), records()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var rec models.NormalizedRateRecord
	require.NoError(t, jsonpkg.Unmarshal([]byte(lines[1]), &rec))
	assert.Equal(t, "CNY", rec.Code)
	assert.True(t, day.Equal(rec.Date))
}

func TestJSONDestination_Replaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.json")
	dst := NewJSONDestination(config.JSONConfig{Path: path, Format: "array"}, nil)

	require.NoError(t, dst.Load(context.Background(), records()))
	require.NoError(t, dst.Load(context.Background(), nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must be cleaned up")
}

func TestJSONDestination_UnwritableDir(t *testing.T) {
	file := testutil.WriteFile(t, "blocker", []byte("x"))
	dst := NewJSONDestination(config.JSONConfig{Path: filepath.Join(file, "rates.json")}, nil)

	err := dst.Load(context.Background(), records())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestRegistered(t *testing.T) {
	dst, err := registry.CreateDestination("json", config.Default())
	require.NoError(t, err)
	assert.IsType(t, &JSONDestination{}, dst)
}
