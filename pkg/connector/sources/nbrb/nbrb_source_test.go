package nbrb

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ratepipe/ratepipe/pkg/config"
	"github.com/ratepipe/ratepipe/pkg/connector/registry"
	"github.com/ratepipe/ratepipe/pkg/errors"
	"github.com/ratepipe/ratepipe/pkg/testutil"
)

func newTestSource(t *testing.T, endpoint string) *Source {
	cfg := config.Default().Rates
	cfg.Endpoint = endpoint
	return NewSource(cfg, testutil.TestLogger(t))
}

func TestSource_Extract(t *testing.T) {
	server := testutil.NewRatesServer(t, http.StatusOK, testutil.SampleRatesPayload)
	src := newTestSource(t, server.Endpoint())
	defer src.Close()

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	records, err := src.Extract(ctx)
	require.NoError(t, err)
	require.Len(t, records, 6)
	assert.Equal(t, "periodicity=0", server.LastQuery.Load())
	assert.Equal(t, 1, server.Hits())

	usd := records[0]
	assert.Equal(t, "USD", usd.Code)
	assert.Equal(t, "Доллар США", usd.Name)
	assert.Equal(t, 1, usd.Scale)
	require.NotNil(t, usd.Rate)
	assert.Equal(t, 3.4197, *usd.Rate)
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), usd.Date)

	assert.Equal(t, 100, records[2].Scale)
	assert.Nil(t, records[5].Rate)
}

func TestSource_ExtractErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantType errors.ErrorType
		wantMsg  string
	}{
		{
			name:     "server error",
			status:   http.StatusInternalServerError,
			body:     `{"error":"boom"}`,
			wantType: errors.ErrorTypeConnection,
			wantMsg:  "unexpected status 500",
		},
		{
			name:     "not an array",
			status:   http.StatusOK,
			body:     `{"Cur_Abbreviation":"USD"}`,
			wantType: errors.ErrorTypeData,
			wantMsg:  "not a JSON array",
		},
		{
			name:     "null payload",
			status:   http.StatusOK,
			body:     `null`,
			wantType: errors.ErrorTypeData,
			wantMsg:  "not a JSON array",
		},
		{
			name:     "trailing data",
			status:   http.StatusOK,
			body:     `[] garbage`,
			wantType: errors.ErrorTypeData,
			wantMsg:  "not a JSON array",
		},
		{
			name:     "missing field",
			status:   http.StatusOK,
			body:     `[{"Date":"2025-01-02T00:00:00","Cur_Abbreviation":"USD","Cur_Scale":1,"Cur_OfficialRate":3.4}]`,
			wantType: errors.ErrorTypeData,
			wantMsg:  "missing field Cur_Name",
		},
		{
			name:     "bad date format",
			status:   http.StatusOK,
			body:     `[{"Date":"2025-01-02","Cur_Abbreviation":"USD","Cur_Scale":1,"Cur_Name":"x","Cur_OfficialRate":3.4}]`,
			wantType: errors.ErrorTypeData,
			wantMsg:  "field Date",
		},
		{
			name:     "fractional scale",
			status:   http.StatusOK,
			body:     `[{"Date":"2025-01-02T00:00:00","Cur_Abbreviation":"USD","Cur_Scale":1.5,"Cur_Name":"x","Cur_OfficialRate":3.4}]`,
			wantType: errors.ErrorTypeData,
			wantMsg:  "not an integer",
		},
		{
			name:     "string rate",
			status:   http.StatusOK,
			body:     `[{"Date":"2025-01-02T00:00:00","Cur_Abbreviation":"USD","Cur_Scale":1,"Cur_Name":"x","Cur_OfficialRate":"3.4"}]`,
			wantType: errors.ErrorTypeData,
			wantMsg:  "expected number or null",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := testutil.NewRatesServer(t, tt.status, tt.body)
			src := newTestSource(t, server.Endpoint())

			_, err := src.Extract(context.Background())
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.wantType), "got %v", err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestDecode_RejectsNonArray(t *testing.T) {
	for _, body := range []string{`null`, `[] garbage`, `[]{}`, `"USD"`} {
		records, err := Decode([]byte(body))
		require.Error(t, err, body)
		assert.True(t, errors.IsType(err, errors.ErrorTypeData), body)
		assert.Nil(t, records, body)
	}
}

func TestDecode_ZeroScaleAndEmpty(t *testing.T) {
	records, err := Decode([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = Decode([]byte(`[{"Date":"2025-01-02T00:00:00","Cur_Abbreviation":"XDR","Cur_Scale":0,"Cur_Name":"СДР","Cur_OfficialRate":4.5}]`))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 0, records[0].Scale)
}

func TestSource_CloseLogsStats(t *testing.T) {
	obs, logs := observer.New(zapcore.InfoLevel)
	cfg := config.Default().Rates
	cfg.Endpoint = testutil.NewRatesServer(t, http.StatusOK, testutil.SampleRatesPayload).Endpoint()
	src := NewSource(cfg, zap.New(obs))

	_, err := src.Extract(context.Background())
	require.NoError(t, err)
	require.NoError(t, src.Close())

	entries := logs.FilterMessage("http client stats").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(1), fields["requests"])
	assert.Equal(t, int64(0), fields["failed"])
	assert.Equal(t, 100.0, fields["success_rate"])
}

func TestSource_CloseWithoutRequests(t *testing.T) {
	obs, logs := observer.New(zapcore.InfoLevel)
	src := NewSource(config.Default().Rates, zap.New(obs))
	require.NoError(t, src.Close())
	assert.Zero(t, logs.FilterMessage("http client stats").Len())
}

func TestSource_URL(t *testing.T) {
	cfg := config.Default().Rates
	cfg.Endpoint = "https://api.nbrb.by/exrates/rates?ondate=2025-01-02"
	cfg.Periodicity = 1
	src := NewSource(cfg, nil)

	got, err := src.URL()
	require.NoError(t, err)
	assert.Equal(t, "https://api.nbrb.by/exrates/rates?ondate=2025-01-02&periodicity=1", got)
}

func TestRegistered(t *testing.T) {
	src, err := registry.CreateSource("nbrb", config.Default())
	require.NoError(t, err)
	assert.IsType(t, &Source{}, src)
}
