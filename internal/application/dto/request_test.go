package dto

import (
	"net/url"
	"testing"
	"time"

	"exapi-service/internal/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderBookRequest(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantBase  string
		wantQuote string
		wantLimit int
		wantSide  entities.Side
		wantErr   string
	}{
		{
			name:      "Válido - valores por defecto",
			query:     "",
			wantBase:  "ETH",
			wantQuote: "BTC",
			wantLimit: 100,
			wantSide:  entities.SideBoth,
		},
		{
			name:      "Válido - argumentos explícitos normalizados",
			query:     "base=btc&quote=usdt&limit=5&side=asks",
			wantBase:  "BTC",
			wantQuote: "USDT",
			wantLimit: 5,
			wantSide:  entities.SideAsks,
		},
		{
			name:    "Inválido - side desconocido",
			query:   "side=middle",
			wantErr: "side must be one of bids, asks",
		},
		{
			name:    "Inválido - limit no numérico",
			query:   "limit=abc",
			wantErr: "limit must be an integer",
		},
		{
			name:    "Inválido - limit cero",
			query:   "limit=0",
			wantErr: "limit must be between 1 and 5000",
		},
		{
			name:    "Inválido - base vacío",
			query:   "base=",
			wantErr: "base cannot be empty",
		},
		{
			name:    "Inválido - quote con símbolos",
			query:   "quote=US/D",
			wantErr: "quote must be alphanumeric",
		},
		{
			name:    "Inválido - base igual a quote",
			query:   "base=btc&quote=BTC",
			wantErr: "base and quote must differ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			req, err := NewOrderBookRequest("kraken", query)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidArgument)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "kraken", req.Exchange)
			assert.Equal(t, tt.wantBase, req.Base)
			assert.Equal(t, tt.wantQuote, req.Quote)
			assert.Equal(t, tt.wantLimit, req.Limit)
			assert.Equal(t, tt.wantSide, req.Side)
		})
	}
}

func TestNewMidPriceRequest(t *testing.T) {
	req, err := NewMidPriceRequest("binance", url.Values{})
	require.NoError(t, err)
	assert.Equal(t, "ETH", req.Base)
	assert.Equal(t, "BTC", req.Quote)
	assert.Equal(t, 0, req.Depth)

	req, err = NewMidPriceRequest("binance", url.Values{"base": {"sol"}, "quote": {"usdt"}, "depth": {"25"}})
	require.NoError(t, err)
	assert.Equal(t, "SOL", req.Base)
	assert.Equal(t, 25, req.Depth)

	_, err = NewMidPriceRequest("", url.Values{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewMidPriceRequest("binance", url.Values{"depth": {"-3"}})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewHistoryRequest(t *testing.T) {
	req, err := NewHistoryRequest("kraken", url.Values{})
	require.NoError(t, err)
	assert.Equal(t, 50, req.Limit)
	assert.True(t, req.Since.IsZero())

	req, err = NewHistoryRequest("kraken", url.Values{"since": {"1700000000000"}, "limit": {"10"}})
	require.NoError(t, err)
	assert.True(t, req.Since.Equal(time.UnixMilli(1700000000000)))
	assert.Equal(t, 10, req.Limit)

	for _, query := range []url.Values{
		{"since": {"yesterday"}},
		{"since": {"-1"}},
		{"limit": {"1001"}},
	} {
		_, err := NewHistoryRequest("kraken", query)
		assert.ErrorIs(t, err, ErrInvalidArgument, query.Encode())
	}
}

func TestNewDetailsRequest(t *testing.T) {
	req, err := NewDetailsRequest("binance", url.Values{"base": {"bnb"}})
	require.NoError(t, err)
	assert.Equal(t, "BNB", req.Base)
	assert.Equal(t, "BTC", req.Quote)

	_, err = NewDetailsRequest("binance", url.Values{"base": {"btc"}})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewCandlesRequest(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantInterval entities.CandleInterval
		wantLimit    int
		wantErr      string
	}{
		{
			name:         "Válido - intervalo por defecto",
			query:        "since=1700000000000",
			wantInterval: "1h",
			wantLimit:    1000,
		},
		{
			name:         "Válido - mes y limit",
			query:        "since=0&interval=1M&limit=12",
			wantInterval: "1M",
			wantLimit:    12,
		},
		{
			name:    "Inválido - since ausente",
			query:   "interval=1d",
			wantErr: "since is required",
		},
		{
			name:    "Inválido - intervalo desconocido",
			query:   "since=1&interval=7m",
			wantErr: `interval "7m" is not supported`,
		},
		{
			name:    "Inválido - intervalo vacío",
			query:   "since=1&interval=",
			wantErr: "is not supported",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			req, err := NewCandlesRequest("kraken", query)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidArgument)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantInterval, req.Interval)
			assert.Equal(t, tt.wantLimit, req.Limit)
		})
	}
}
