package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	tbl := Table{
		Name:    "category_mix",
		Columns: []string{"category", "revenue", "orders"},
		Rows: [][]any{
			{"Technology", 836154.03, int64(1847)},
			{"Furniture", 741999.80, int64(2121)},
			{"Office Supplies", "719047.03", nil},
		},
	}

	assert.Equal(t, 1, tbl.ColumnIndex("revenue"))
	assert.Equal(t, -1, tbl.ColumnIndex("profit"))
	assert.Equal(t, 3, tbl.Len())
	head2 := tbl.Head(2)
	assert.Equal(t, 2, head2.Len())
	head10 := tbl.Head(10)
	assert.Equal(t, 3, head10.Len())

	v, err := tbl.Float(0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 836154.03, v, 1e-9)

	v, err = tbl.Float(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2121.0, v)

	v, err = tbl.Float(2, 1)
	require.NoError(t, err)
	assert.InDelta(t, 719047.03, v, 1e-9)

	_, err = tbl.Float(0, 0)
	assert.Error(t, err)

	assert.Equal(t, "", tbl.String(2, 2))
	assert.Equal(t, "1847", tbl.String(0, 2))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "2.5", FormatValue(2.5))
	assert.Equal(t, "2024-03-01 00:00:00", FormatValue(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "abc", FormatValue([]byte("abc")))
	assert.Equal(t, "true", FormatValue(true))
}

func TestNormalizedRateRecord_Values(t *testing.T) {
	r := NormalizedRateRecord{
		RateRecord: RateRecord{
			Code:  "EUR",
			Name:  "Евро",
			Scale: 1,
			Rate:  Float64(3.4),
			Date:  time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		},
		RateNorm: 3.4,
	}

	assert.Equal(t, []any{"EUR", "Евро", 1, 3.4, "2025-01-02 00:00:00", 3.4}, r.Values())
	assert.Len(t, r.Values(), len(RateColumns))
}
