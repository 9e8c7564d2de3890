package kraken

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"exapi-service/internal/infrastructure/config"
	"exapi-service/internal/infrastructure/governor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const depthBody = `{
	"error": [],
	"result": {
		"XETHXXBT": {
			"asks": [["0.05124", "12.5", 1700000000], ["0.05130", "3.1", 1700000001]],
			"bids": [["0.05123", "8.0", 1700000000], ["0.05100", "1.0", 1700000002]]
		}
	}
}`

func createMockServer(statusCode int, body string, gotQuery *string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotQuery != nil {
			*gotQuery = r.URL.Path + "?" + r.URL.RawQuery
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(body))
	}))
}

func newTestClient(url string) *RestClient {
	return NewRestClientWithConfig(config.KrakenConfig{RestURL: url, Timeout: 2 * time.Second})
}

func TestNewRestClientWithConfig_CustomConfiguration(t *testing.T) {
	cfg := config.KrakenConfig{
		RestURL: "https://custom-api.kraken.com/0/public/",
		Timeout: 5 * time.Second,
	}

	client := NewRestClientWithConfig(cfg)

	assert.Equal(t, "https://custom-api.kraken.com/0/public", client.baseURL)
	assert.Equal(t, cfg.Timeout, client.httpClient.Timeout)
	assert.Equal(t, "kraken", client.Name())
	assert.Equal(t, DefaultTimeout, NewRestClient().httpClient.Timeout)
}

func TestRestClient_GetOrderBook_Success(t *testing.T) {
	var query string
	server := createMockServer(http.StatusOK, depthBody, &query)
	defer server.Close()

	book, err := newTestClient(server.URL).GetOrderBook(context.Background(), "eth", "btc", 10)

	require.NoError(t, err)
	assert.Equal(t, "/Depth?count=10&pair=ETHXBT", query)
	assert.Equal(t, "kraken", book.Market.Exchange)
	assert.Equal(t, "ETH/BTC", book.Market.Symbol())
	require.Len(t, book.Bids, 2)
	require.Len(t, book.Asks, 2)

	mid, err := book.MidPrice()
	require.NoError(t, err)
	assert.Equal(t, "0.051235", mid.String())
	assert.Equal(t, "12.5", book.Asks[0].Amount.String())
}

func TestRestClient_GetOrderBook_ErrorCategories(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		category governor.Category
	}{
		{"error 500", http.StatusInternalServerError, `{}`, governor.CategoryServiceUnavailable},
		{"error 502", http.StatusBadGateway, ``, governor.CategoryServiceUnavailable},
		{"rate limit 429", http.StatusTooManyRequests, `{}`, governor.CategoryExchangeNotAvailable},
		{"error 404", http.StatusNotFound, `{}`, governor.CategoryExchangeError},
		{"clave inválida", http.StatusOK, `{"error":["EAPI:Invalid key"]}`, governor.CategoryAuthentication},
		{"permiso denegado", http.StatusOK, `{"error":["EGeneral:Permission denied"]}`, governor.CategoryPermissionDenied},
		{"nonce inválido", http.StatusOK, `{"error":["EAPI:Invalid nonce"]}`, governor.CategoryInvalidNonce},
		{"orden desconocida", http.StatusOK, `{"error":["EOrder:Unknown order"]}`, governor.CategoryOrderNotFound},
		{"orden inválida", http.StatusOK, `{"error":["EOrder:Insufficient funds"]}`, governor.CategoryInvalidOrder},
		{"servicio ocupado", http.StatusOK, `{"error":["EService:Busy"]}`, governor.CategoryExchangeNotAvailable},
		{"servicio no disponible", http.StatusOK, `{"error":["EService:Unavailable"]}`, governor.CategoryExchangeNotAvailable},
		{"par desconocido", http.StatusOK, `{"error":["EQuery:Unknown asset pair"]}`, governor.CategoryExchangeError},
		{"respuesta truncada", http.StatusOK, `{"error":[],"res`, governor.CategoryServiceUnavailable},
		{"sin datos", http.StatusOK, `{"error":[],"result":{}}`, governor.CategoryExchangeError},
		{"nivel inválido", http.StatusOK, `{"error":[],"result":{"X":{"asks":[["abc","1",1]],"bids":[]}}}`, governor.CategoryExchangeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := createMockServer(tt.status, tt.body, nil)
			defer server.Close()

			book, err := newTestClient(server.URL).GetOrderBook(context.Background(), "BTC", "USD", 10)

			require.Error(t, err)
			assert.Nil(t, book)
			assert.Equal(t, tt.category, governor.CategoryOf(err), err.Error())
		})
	}
}

func TestRestClient_GetOrderBook_NetworkError(t *testing.T) {
	server := createMockServer(http.StatusOK, depthBody, nil)
	url := server.URL
	server.Close()

	_, err := newTestClient(url).GetOrderBook(context.Background(), "BTC", "USD", 10)

	require.Error(t, err)
	assert.Equal(t, governor.CategoryNetworkError, governor.CategoryOf(err))
	assert.True(t, errors.Is(err, ErrConnectionFailed))
}

func TestRestClient_GetOrderBook_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(depthBody))
	}))
	defer server.Close()

	client := NewRestClientWithConfig(config.KrakenConfig{RestURL: server.URL, Timeout: 20 * time.Millisecond})
	_, err := client.GetOrderBook(context.Background(), "ETH", "BTC", 10)

	require.Error(t, err)
	assert.Equal(t, governor.CategoryNetworkError, governor.CategoryOf(err))
}

func TestToKrakenPair(t *testing.T) {
	tests := []struct {
		base, quote, expected string
	}{
		{"BTC", "USD", "XBTUSD"},
		{"eth", "btc", "ETHXBT"},
		{"XBT", "EUR", "XBTEUR"},
		{"doge", "usd", "XDGUSD"},
		{"DOT", "USDT", "DOTUSDT"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ToKrakenPair(tt.base, tt.quote))
	}
}
