package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"exapi-service/internal/application/dto"
	"exapi-service/internal/application/services"
	"exapi-service/internal/domain/entities"
	"exapi-service/internal/infrastructure/governor"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetMarkets_Success(t *testing.T) {
	markets := &MockMarketService{}
	markets.On("GetMarkets", mock.Anything, "kraken").Return([]entities.Market{
		entities.NewMarket("kraken", "BTC", "USD"),
		entities.NewMarket("kraken", "ETH", "BTC"),
	}, nil)

	rec := serve(t, &MockPriceService{}, markets, "/kraken/markets")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body dto.MarketsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, []string{"BTC/USD", "ETH/BTC"}, body.Markets)
}

func TestGetMarkets_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCount  int
	}{
		{
			name:       "fallo del exchange devuelve lista vacía",
			err:        &governor.TerminalError{Kind: governor.KindServiceUnavailable, Identity: "kraken", Err: errors.New("down")},
			wantStatus: http.StatusOK,
		},
		{"exchange desconocido", fmt.Errorf("%w: kraken", services.ErrUnknownExchange), http.StatusNotFound, 0},
		{"sin soporte", fmt.Errorf("%w: kraken does not provide markets", services.ErrUnsupported), http.StatusNotFound, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			markets := &MockMarketService{}
			markets.On("GetMarkets", mock.Anything, "kraken").Return(nil, tt.err)

			rec := serve(t, &MockPriceService{}, markets, "/kraken/markets")

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				var body dto.MarketsResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, 0, body.Count)
				assert.NotNil(t, body.Markets)
			}
		})
	}
}

func TestGetHistory_Success(t *testing.T) {
	since := time.UnixMilli(1700000000000).UTC()
	ts := time.Unix(1700000001, 0).UTC()

	markets := &MockMarketService{}
	markets.On("GetHistory", mock.Anything, "binance", "BTC", "USDT", since, 20).Return([]entities.Trade{
		{ID: "2", Price: decimal.NewFromInt(60001), Amount: decimal.RequireFromString("0.1"), Side: entities.TradeBuy, Timestamp: ts},
	}, nil)

	rec := serve(t, &MockPriceService{}, markets, "/binance/history?base=btc&quote=usdt&limit=20&since=1700000000000")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body dto.HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "BTC/USDT", body.Symbol)
	require.Len(t, body.Trades, 1)
	assert.Equal(t, "60001", body.Trades[0].Price)
	assert.Equal(t, "buy", body.Trades[0].Side)
	markets.AssertExpectations(t)
}

func TestGetHistory_BadArgs(t *testing.T) {
	markets := &MockMarketService{}

	rec := serve(t, &MockPriceService{}, markets, "/kraken/history?since=-1")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = serve(t, &MockPriceService{}, markets, "/kraken/history?limit=5000")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	markets.AssertNumberOfCalls(t, "GetHistory", 0)
}

func TestGetDetails(t *testing.T) {
	markets := &MockMarketService{}
	markets.On("GetDetails", mock.Anything, "kraken", "ETH", "BTC").Return(&entities.MarketDetails{
		Market:          entities.NewMarket("kraken", "ETH", "BTC"),
		MinAmount:       decimal.RequireFromString("0.01"),
		MinPrice:        decimal.RequireFromString("0.00001"),
		MinValue:        decimal.RequireFromString("0.0000001"),
		AmountPrecision: 8,
		PricePrecision:  5,
	}, nil)
	markets.On("GetDetails", mock.Anything, "kraken", "FOO", "BAR").
		Return(nil, fmt.Errorf("%w: details for kraken:FOO/BAR", services.ErrNotFound))

	rec := serve(t, &MockPriceService{}, markets, "/kraken/details")
	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "0.01", body["min_amt"])
	assert.Equal(t, "0.00001", body["min_price"])
	assert.NotContains(t, body, "max_amt")

	rec = serve(t, &MockPriceService{}, markets, "/kraken/details?base=foo&quote=bar")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var failed dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &failed))
	assert.Equal(t, governor.KindNotFound.String(), failed.Error)
}

func TestGetCandles(t *testing.T) {
	since := time.UnixMilli(1700000000000).UTC()
	markets := &MockMarketService{}
	markets.On("GetCandles", mock.Anything, "binance", "ETH", "BTC", entities.CandleInterval("1h"), since, 1000).
		Return([]entities.Candle{{
			Timestamp: since.UTC(),
			Open:      decimal.NewFromInt(1), High: decimal.NewFromInt(2),
			Low: decimal.NewFromInt(1), Close: decimal.NewFromInt(2), Volume: decimal.NewFromInt(5),
		}}, nil)
	markets.On("GetCandles", mock.Anything, "mock", "ETH", "BTC", entities.CandleInterval("5m"), since, 10).
		Return(nil, fmt.Errorf("%w: mock does not provide candles", services.ErrUnsupported))

	rec := serve(t, &MockPriceService{}, markets, "/binance/candles?since=1700000000000")
	assert.Equal(t, http.StatusOK, rec.Code)
	var body dto.CandlesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "1h", body.Interval)
	require.Len(t, body.Candles, 1)
	assert.Equal(t, "5", body.Candles[0].Volume)

	rec = serve(t, &MockPriceService{}, markets, "/mock/candles?since=1700000000000&interval=5m&limit=10")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var failed dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &failed))
	assert.Equal(t, "UNSUPPORTED", failed.Error)
}

func TestGetCandles_BadArgs(t *testing.T) {
	markets := &MockMarketService{}

	tests := []struct {
		name   string
		target string
	}{
		{"sin since", "/kraken/candles"},
		{"intervalo inválido", "/kraken/candles?since=0&interval=2m"},
		{"limit fuera de rango", "/kraken/candles?since=0&limit=0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, &MockPriceService{}, markets, tt.target)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}
	markets.AssertNumberOfCalls(t, "GetCandles", 0)
}
