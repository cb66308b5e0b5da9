package csv

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/ratepipe/ratepipe/pkg/compression"
	"github.com/ratepipe/ratepipe/pkg/config"
	"github.com/ratepipe/ratepipe/pkg/errors"
	"github.com/ratepipe/ratepipe/pkg/testutil"
)

const header = "Row ID,Order ID,Order Date,Ship Date,Ship Mode,Customer ID,Customer Name,Segment,Country,City,State,Postal Code,Region,Product ID,Category,Sub-Category,Product Name,Sales,Quantity,Discount,Profit\n"

const sampleRows = `1,CA-2016-152156,11/8/2016,11/11/2016,Second Class,CG-12520,Claire Gute,Consumer,United States,Henderson,Kentucky,42420,South,FUR-BO-10001798,Furniture,Bookcases,Bush Somerset Collection Bookcase,261.96,2,0,41.9136
2,CA-2016-152156,11/8/2016,11/11/2016,Second Class,CG-12520,Claire Gute,Consumer,United States,Henderson,Kentucky,42420,South,FUR-CH-10000454,Furniture,Chairs,"Hon Deluxe Fabric Upholstered Stacking Chairs, Rounded Back","1,731.90",3,0,219.582
3,US-2015-108966,10/11/2015,10/18/2015,Standard Class,SO-20335,Sean O'Donnell,Consumer,United States,Fort Lauderdale,Florida,33311,South,FUR-TA-10000577,Furniture,Tables,Bretford CR4500 Series Slim Rectangular Table,957.5775,5,0.45,-383.031
`

func latin1(t *testing.T, s string) []byte {
	b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return b
}

func newSource(t *testing.T, path string, limit int) *SuperstoreSource {
	cfg := config.Default().Superstore
	cfg.CSVPath = path
	cfg.Limit = limit
	return NewSuperstoreSource(cfg, testutil.TestLogger(t))
}

func TestSuperstoreSource_Extract(t *testing.T) {
	path := testutil.WriteFile(t, "SampleSuperstore.csv", latin1(t, header+sampleRows))

	orders, err := newSource(t, path, 0).Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 3)

	first := orders[0]
	assert.Equal(t, 1, first.RowID)
	assert.Equal(t, "CA-2016-152156", first.OrderID)
	assert.Equal(t, time.Date(2016, 11, 8, 0, 0, 0, 0, time.UTC), first.OrderDate)
	assert.Equal(t, time.Date(2016, 11, 11, 0, 0, 0, 0, time.UTC), first.ShipDate)
	assert.Equal(t, "42420", first.PostalCode)
	assert.Equal(t, "Bookcases", first.SubCategory)
	assert.Equal(t, 261.96, first.Sales)
	assert.Equal(t, 2, first.Quantity)

	assert.Equal(t, 1731.90, orders[1].Sales)
	assert.Equal(t, "Hon Deluxe Fabric Upholstered Stacking Chairs, Rounded Back", orders[1].ProductName)
	assert.Equal(t, -383.031, orders[2].Profit)
	assert.Equal(t, 0.45, orders[2].Discount)
}

func TestSuperstoreSource_Latin1(t *testing.T) {
	row := "4,CA-2017-100001,2017-01-03,2017-01-07,Standard Class,JR-16210,José Núñez,Corporate,United States,Seattle,Washington,98105,West,OFF-PA-1,Office Supplies,Paper,Xerox 1967,12.5,1,0,6\n"
	path := testutil.WriteFile(t, "latin1.csv", latin1(t, header+row))

	orders, err := newSource(t, path, 0).Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "José Núñez", orders[0].CustomerName)
	assert.Equal(t, time.Date(2017, 1, 3, 0, 0, 0, 0, time.UTC), orders[0].OrderDate)
}

func TestSuperstoreSource_Limit(t *testing.T) {
	path := testutil.WriteFile(t, "SampleSuperstore.csv", latin1(t, header+sampleRows))

	orders, err := newSource(t, path, 2).Extract(context.Background())
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestSuperstoreSource_Compressed(t *testing.T) {
	var buf bytes.Buffer
	w, err := compression.NewWriter(&buf, compression.Zstd, compression.Default)
	require.NoError(t, err)
	_, err = w.Write(latin1(t, header+sampleRows))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	path := testutil.WriteFile(t, "SampleSuperstore.csv.zst", buf.Bytes())
	orders, err := newSource(t, path, 0).Extract(context.Background())
	require.NoError(t, err)
	assert.Len(t, orders, 3)
}

func TestSuperstoreSource_Errors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantType errors.ErrorType
		wantMsg  string
	}{
		{name: "empty", content: "", wantType: errors.ErrorTypeData, wantMsg: "empty"},
		{name: "missing column", content: "Row ID,Order ID\n1,A\n", wantType: errors.ErrorTypeData, wantMsg: "missing columns"},
		{
			name:     "bad number",
			content:  header + "1,A,1/2/2016,1/3/2016,M,C,N,S,US,X,Y,1,R,P,C,SC,PN,abc,1,0,0\n",
			wantType: errors.ErrorTypeData,
			wantMsg:  `line 2`,
		},
		{
			name:     "bad date",
			content:  header + "1,A,2016.01.02,1/3/2016,M,C,N,S,US,X,Y,1,R,P,C,SC,PN,1,1,0,0\n",
			wantType: errors.ErrorTypeData,
			wantMsg:  "unrecognized date",
		},
		{
			name:     "short row",
			content:  header + "1,A\n",
			wantType: errors.ErrorTypeData,
			wantMsg:  "malformed CSV row",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.WriteFile(t, "in.csv", []byte(tt.content))
			_, err := newSource(t, path, 0).Extract(context.Background())
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.wantType), "got %v", err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := newSource(t, "/nonexistent/SampleSuperstore.csv", 0).Extract(context.Background())
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
	})
}
