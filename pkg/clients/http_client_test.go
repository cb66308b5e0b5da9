package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ratepipe/ratepipe/pkg/errors"
)

func TestHTTPClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, "ratepipe/1.0", r.Header.Get("User-Agent"))
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			_, _ = w.Write([]byte(`[]`))
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`[]`))
		default:
			http.Error(w, "nope", http.StatusServiceUnavailable)
		}
	}))
	defer server.Close()

	client := NewHTTPClient(nil, zaptest.NewLogger(t))
	defer client.Close()

	t.Run("success", func(t *testing.T) {
		body, err := client.Get(context.Background(), server.URL+"/ok", map[string]string{"Accept": "application/json"})
		require.NoError(t, err)
		assert.Equal(t, "[]", string(body))
	})

	t.Run("bad status", func(t *testing.T) {
		_, err := client.Get(context.Background(), server.URL+"/down", nil)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConnection))
		assert.Contains(t, err.Error(), "unexpected status 503")
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := client.Get(ctx, server.URL+"/slow", nil)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConnection))
	})

	t.Run("unreachable", func(t *testing.T) {
		_, err := client.Get(context.Background(), "http://127.0.0.1:1/", nil)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConnection))
	})

	stats := client.GetStats()
	assert.Equal(t, int64(4), stats.TotalRequests)
	assert.Equal(t, int64(3), stats.FailedRequests)
	assert.InDelta(t, 25.0, stats.SuccessRate, 0.001)
}
