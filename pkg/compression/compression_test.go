package compression

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	original := []byte(strings.Repeat("month,revenue\n2017-01-01,94924.8356\n", 200))

	for _, alg := range []Algorithm{None, Gzip, Zstd, Snappy, S2, LZ4} {
		for _, level := range []Level{Fastest, Default, Best} {
			t.Run(string(alg), func(t *testing.T) {
				var buf bytes.Buffer
				w, err := NewWriter(&buf, alg, level)
				require.NoError(t, err)
				_, err = w.Write(original)
				require.NoError(t, err)
				require.NoError(t, w.Close())

				if alg != None {
					assert.Less(t, buf.Len(), len(original))
				}

				r, err := NewReader(&buf, alg)
				require.NoError(t, err)
				got, err := io.ReadAll(r)
				require.NoError(t, err)
				require.NoError(t, r.Close())
				assert.Equal(t, original, got)
			})
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Algorithm
		wantErr bool
	}{
		{in: "", want: None},
		{in: "none", want: None},
		{in: "GZIP", want: Gzip},
		{in: " zstd ", want: Zstd},
		{in: "lz4", want: LZ4},
		{in: "brotli", wantErr: true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestFromPath(t *testing.T) {
	assert.Equal(t, Gzip, FromPath("reports/tables/monthly_revenue.csv.gz"))
	assert.Equal(t, Zstd, FromPath("data/raw/SampleSuperstore.CSV.ZST"))
	assert.Equal(t, LZ4, FromPath("x.lz4"))
	assert.Equal(t, None, FromPath("data/raw/SampleSuperstore.csv"))
	assert.Equal(t, ".gz", Gzip.Extension())
	assert.Equal(t, "", None.Extension())
}
