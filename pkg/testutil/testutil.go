// Package testutil provides testing utilities for ratepipe
package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// SampleRatesPayload is a trimmed response of the NBRB daily rates endpoint.
const SampleRatesPayload = `[
  {"Cur_ID":431,"Date":"2025-01-02T00:00:00","Cur_Abbreviation":"USD","Cur_Scale":1,"Cur_Name":"Доллар США","Cur_OfficialRate":3.4197},
  {"Cur_ID":451,"Date":"2025-01-02T00:00:00","Cur_Abbreviation":"EUR","Cur_Scale":1,"Cur_Name":"Евро","Cur_OfficialRate":3.5531},
  {"Cur_ID":456,"Date":"2025-01-02T00:00:00","Cur_Abbreviation":"RUB","Cur_Scale":100,"Cur_Name":"Российских рублей","Cur_OfficialRate":3.0226},
  {"Cur_ID":462,"Date":"2025-01-02T00:00:00","Cur_Abbreviation":"CNY","Cur_Scale":10,"Cur_Name":"Китайских юаней","Cur_OfficialRate":4.6737},
  {"Cur_ID":508,"Date":"2025-01-02T00:00:00","Cur_Abbreviation":"JPY","Cur_Scale":100,"Cur_Name":"Японских иен","Cur_OfficialRate":2.1725},
  {"Cur_ID":449,"Date":"2025-01-02T00:00:00","Cur_Abbreviation":"PLN","Cur_Scale":10,"Cur_Name":"Злотых","Cur_OfficialRate":null}
]`

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// RatesServer is an httptest server standing in for the rates endpoint.
type RatesServer struct {
	*httptest.Server
	hits int64
	// LastQuery holds the raw query string of the most recent request
	LastQuery atomic.Value
}

// Endpoint returns the rates URL without query parameters.
func (s *RatesServer) Endpoint() string {
	return s.URL + "/exrates/rates"
}

// Hits returns the number of requests served.
func (s *RatesServer) Hits() int {
	return int(atomic.LoadInt64(&s.hits))
}

// NewRatesServer serves body with the given status on /exrates/rates. The
// server is closed when the test completes.
func NewRatesServer(t *testing.T, status int, body string) *RatesServer {
	t.Helper()

	s := &RatesServer{}
	s.LastQuery.Store("")
	mux := http.NewServeMux()
	mux.HandleFunc("/exrates/rates", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.hits, 1)
		s.LastQuery.Store(r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// WriteFile writes content to name inside a fresh temporary directory and
// returns the full path.
func WriteFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}
