package csv

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ratepipe/ratepipe/pkg/compression"
	"github.com/ratepipe/ratepipe/pkg/errors"
	"github.com/ratepipe/ratepipe/pkg/models"
	"github.com/ratepipe/ratepipe/pkg/testutil"
)

func sampleTable() models.Table {
	return models.Table{
		Name:    "monthly_revenue",
		Columns: []string{"month", "revenue"},
		Rows: [][]any{
			{time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC), 14236.895},
			{time.Date(2014, 2, 1, 0, 0, 0, 0, time.UTC), 4519.892},
			{time.Date(2014, 3, 1, 0, 0, 0, 0, time.UTC), nil},
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r, err := compression.NewReader(f, compression.FromPath(path))
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestTableDestination_Plain(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports", "tables")
	dst := NewTableDestination(dir, compression.None, testutil.TestLogger(t))

	require.NoError(t, dst.Load(context.Background(), []models.Table{sampleTable()}))

	path := filepath.Join(dir, "monthly_revenue.csv")
	assert.Equal(t, []string{path}, dst.Written())
	assert.Equal(t, [][]string{
		{"month", "revenue"},
		{"2014-01-01 00:00:00", "14236.895"},
		{"2014-02-01 00:00:00", "4519.892"},
		{"2014-03-01 00:00:00", ""},
	}, readCSV(t, path))
}

func TestTableDestination_Compressed(t *testing.T) {
	for _, algo := range []compression.Algorithm{compression.Gzip, compression.Zstd, compression.Snappy, compression.S2, compression.LZ4} {
		t.Run(string(algo), func(t *testing.T) {
			dir := t.TempDir()
			dst := NewTableDestination(dir, algo, nil)
			require.NoError(t, dst.Load(context.Background(), []models.Table{sampleTable()}))

			path := dst.Path("monthly_revenue")
			assert.Equal(t, filepath.Join(dir, "monthly_revenue.csv"+algo.Extension()), path)
			records := readCSV(t, path)
			require.Len(t, records, 4)
			assert.Equal(t, "14236.895", records[1][1])
		})
	}
}

func TestTableDestination_Overwrites(t *testing.T) {
	dir := t.TempDir()
	dst := NewTableDestination(dir, compression.None, nil)
	table := sampleTable()

	require.NoError(t, dst.Load(context.Background(), []models.Table{table}))
	table.Rows = table.Rows[:1]
	require.NoError(t, dst.Load(context.Background(), []models.Table{table}))

	assert.Len(t, readCSV(t, dst.Path(table.Name)), 2)
}

func TestTableDestination_DirError(t *testing.T) {
	blocker := testutil.WriteFile(t, "blocker", []byte("x"))
	dst := NewTableDestination(filepath.Join(blocker, "tables"), compression.None, nil)

	err := dst.Load(context.Background(), []models.Table{sampleTable()})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}
