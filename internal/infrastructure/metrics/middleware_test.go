package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/", "/"},
		{"/health", "/health"},
		{"/health/", "/health"},
		{"/ready", "/ready"},
		{"/api/v1/governor", "/api/v1/governor"},
		{"/metrics", "/metrics"},
		{"/kraken/midprice", "/{exchange}/midprice"},
		{"/binance/orderbook/", "/{exchange}/orderbook"},
		{"/kraken/markets", "/{exchange}/markets"},
		{"/binance/history", "/{exchange}/history"},
		{"/mock/details", "/{exchange}/details"},
		{"/kraken/candles", "/{exchange}/candles"},
		{"/kraken/balances", "/unknown"},
		{"/api/v1/cache", "/api/v1/cache"},
		{"/api/v2/other", "/api/*"},
		{"/kraken/trades", "/unknown"},
		{"/a/b/midprice", "/unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizePath(tt.path))
		})
	}
}

func TestHTTPMetricsMiddleware_PassesThrough(t *testing.T) {
	handler := HTTPMetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mock/orderbook", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}

func TestResponseWriterMetrics_CapturesStatusAndSize(t *testing.T) {
	rec := httptest.NewRecorder()
	wrapped := &responseWriterMetrics{ResponseWriter: rec, statusCode: http.StatusOK}

	_, _ = wrapped.Write([]byte("abc"))
	_, _ = wrapped.Write([]byte("de"))

	assert.Equal(t, http.StatusOK, wrapped.statusCode)
	assert.Equal(t, int64(5), wrapped.written)

	wrapped = &responseWriterMetrics{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
	wrapped.WriteHeader(http.StatusServiceUnavailable)
	assert.Equal(t, http.StatusServiceUnavailable, wrapped.statusCode)
}
