package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"exapi-service/internal/domain/entities"
	"exapi-service/internal/domain/interfaces"
	"exapi-service/internal/infrastructure/exchange"
	"exapi-service/internal/infrastructure/governor"
	"exapi-service/internal/infrastructure/logging"
	"exapi-service/internal/infrastructure/ratelimit"
	"exapi-service/pkg/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newMarketService(source interfaces.OrderBookSource) (*utils.FakeClock, interfaces.MarketService) {
	clock := utils.NewFakeClock(epoch)
	gov := governor.New(governor.Config{Retries: 3, GracePeriod: 5 * time.Second, LimitFor: ratelimit.FixedLimit(1000, time.Second)},
		clock, logging.NewGovernorLogger(logging.NewDiscardLogger()))
	return clock, NewMarketService(exchange.NewRegistry(source), gov)
}

func deepBook() *entities.OrderBook {
	levels := func(start int64, step int64) []entities.PriceLevel {
		out := make([]entities.PriceLevel, 0, 5)
		for i := int64(0); i < 5; i++ {
			out = append(out, entities.PriceLevel{Price: decimal.NewFromInt(start + i*step), Amount: decimal.NewFromInt(1)})
		}
		return out
	}
	return entities.NewOrderBook(entities.NewMarket("kraken", "ETH", "BTC"), levels(100, -1), levels(101, 1), epoch)
}

func TestMarketService_GetOrderBook(t *testing.T) {
	source := &MockSource{name: "kraken"}
	source.On("GetOrderBook", mock.Anything, "ETH", "BTC", 3).Return(deepBook(), nil)
	_, svc := newMarketService(source)

	book, err := svc.GetOrderBook(context.Background(), "KRAKEN", "eth", "btc", 3, entities.SideBids)

	require.NoError(t, err)
	require.NotNil(t, book)
	assert.Len(t, book.Bids, 3)
	assert.Nil(t, book.Asks)
	assert.Equal(t, "100", book.Bids[0].Price.String())
}

func TestMarketService_TerminalErrorsAreReturned(t *testing.T) {
	source := &MockSource{name: "kraken"}
	source.On("GetOrderBook", mock.Anything, "ETH", "BTC", 10).
		Return(nil, governor.NewCallError(governor.CategoryServiceUnavailable, errors.New("502")))
	clock, svc := newMarketService(source)

	book, err := svc.GetOrderBook(context.Background(), "kraken", "ETH", "BTC", 10, entities.SideBoth)

	assert.Nil(t, book)
	assert.Equal(t, governor.KindServiceUnavailable, governor.KindOf(err))
	source.AssertNumberOfCalls(t, "GetOrderBook", 4)
	assert.Equal(t, 15*time.Second, clock.TotalSlept())
}

func TestMarketService_NotFoundIsNilBook(t *testing.T) {
	source := &MockSource{name: "kraken"}
	source.On("GetOrderBook", mock.Anything, "ETH", "BTC", 10).
		Return(nil, governor.NewCallError(governor.CategoryOrderNotFound, errors.New("unknown order")))
	_, svc := newMarketService(source)

	book, err := svc.GetOrderBook(context.Background(), "kraken", "ETH", "BTC", 10, entities.SideBoth)

	assert.NoError(t, err)
	assert.Nil(t, book)
}

func TestMarketService_UnknownExchange(t *testing.T) {
	_, svc := newMarketService(&MockSource{name: "kraken"})

	_, err := svc.GetOrderBook(context.Background(), "nope", "ETH", "BTC", 10, entities.SideBoth)

	assert.ErrorIs(t, err, ErrUnknownExchange)
}

// MockDataSource adds every optional market data capability to MockSource
type MockDataSource struct {
	MockSource
}

func (m *MockDataSource) GetMarkets(ctx context.Context) ([]entities.Market, error) {
	args := m.Called(ctx)
	markets, _ := args.Get(0).([]entities.Market)
	return markets, args.Error(1)
}

func (m *MockDataSource) GetTrades(ctx context.Context, base, quote string, since time.Time, limit int) ([]entities.Trade, error) {
	args := m.Called(ctx, base, quote, since, limit)
	trades, _ := args.Get(0).([]entities.Trade)
	return trades, args.Error(1)
}

func (m *MockDataSource) GetMarketDetails(ctx context.Context, base, quote string) (*entities.MarketDetails, error) {
	args := m.Called(ctx, base, quote)
	details, _ := args.Get(0).(*entities.MarketDetails)
	return details, args.Error(1)
}

func (m *MockDataSource) GetCandles(ctx context.Context, base, quote string, interval entities.CandleInterval, since time.Time, limit int) ([]entities.Candle, error) {
	args := m.Called(ctx, base, quote, interval, since, limit)
	candles, _ := args.Get(0).([]entities.Candle)
	return candles, args.Error(1)
}

func newDataSource() *MockDataSource {
	return &MockDataSource{MockSource: MockSource{name: "kraken"}}
}

func TestMarketService_GetMarketsSorted(t *testing.T) {
	source := newDataSource()
	source.On("GetMarkets", mock.Anything).Return([]entities.Market{
		entities.NewMarket("kraken", "XRP", "USD"),
		entities.NewMarket("kraken", "BTC", "USD"),
	}, nil)
	_, svc := newMarketService(source)

	markets, err := svc.GetMarkets(context.Background(), "kraken")

	require.NoError(t, err)
	require.Len(t, markets, 2)
	assert.Equal(t, "BTC/USD", markets[0].Symbol())
}

func TestMarketService_GetHistoryNewestFirstAndLimited(t *testing.T) {
	source := newDataSource()
	since := epoch.Add(-time.Hour)
	source.On("GetTrades", mock.Anything, "ETH", "BTC", since, 2).Return([]entities.Trade{
		{ID: "1", Timestamp: epoch},
		{ID: "2", Timestamp: epoch.Add(time.Second)},
		{ID: "3", Timestamp: epoch.Add(2 * time.Second)},
	}, nil)
	_, svc := newMarketService(source)

	trades, err := svc.GetHistory(context.Background(), "kraken", "eth", "btc", since, 2)

	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "3", trades[0].ID)
	assert.Equal(t, "2", trades[1].ID)
}

func TestMarketService_GetDetailsFillsMinValue(t *testing.T) {
	source := newDataSource()
	source.On("GetMarketDetails", mock.Anything, "ETH", "BTC").Return(&entities.MarketDetails{
		Market:    entities.NewMarket("kraken", "ETH", "BTC"),
		MinAmount: decimal.RequireFromString("0.01"),
		MinPrice:  decimal.RequireFromString("0.00001"),
	}, nil)
	_, svc := newMarketService(source)

	details, err := svc.GetDetails(context.Background(), "kraken", "ETH", "BTC")

	require.NoError(t, err)
	assert.Equal(t, "0.0000001", details.MinValue.String())
}

func TestMarketService_GetCandlesOldestFirst(t *testing.T) {
	source := newDataSource()
	source.On("GetCandles", mock.Anything, "BTC", "USD", entities.CandleInterval("1h"), epoch, 1000).Return([]entities.Candle{
		{Timestamp: epoch.Add(time.Hour)},
		{Timestamp: epoch},
	}, nil)
	_, svc := newMarketService(source)

	candles, err := svc.GetCandles(context.Background(), "kraken", "BTC", "USD", "1h", epoch, 1000)

	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.True(t, candles[0].Timestamp.Equal(epoch))
}

func TestMarketService_MarketDataErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected error
		kind     governor.Kind
		calls    int
	}{
		{"no encontrado", governor.NewCallError(governor.CategoryOrderNotFound, errors.New("gone")), ErrNotFound, governor.KindNotFound, 1},
		{"rechazado", governor.NewCallError(governor.CategoryExchangeError, errors.New("EQuery:Unknown asset pair")), nil, governor.KindExchangeRejected, 1},
		{"caído", governor.NewCallError(governor.CategoryServiceUnavailable, errors.New("502")), nil, governor.KindServiceUnavailable, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := newDataSource()
			source.On("GetTrades", mock.Anything, "ETH", "BTC", time.Time{}, 50).Return(nil, tt.err)
			_, svc := newMarketService(source)

			trades, err := svc.GetHistory(context.Background(), "kraken", "ETH", "BTC", time.Time{}, 50)

			require.Error(t, err)
			assert.Nil(t, trades)
			if tt.expected != nil {
				assert.ErrorIs(t, err, tt.expected)
			} else {
				assert.Equal(t, tt.kind, governor.KindOf(err))
			}
			source.AssertNumberOfCalls(t, "GetTrades", tt.calls)
		})
	}
}

func TestMarketService_UnsupportedCapabilities(t *testing.T) {
	_, svc := newMarketService(&MockSource{name: "plain"})
	ctx := context.Background()

	_, err := svc.GetMarkets(ctx, "plain")
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = svc.GetHistory(ctx, "plain", "ETH", "BTC", time.Time{}, 10)
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = svc.GetDetails(ctx, "plain", "ETH", "BTC")
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = svc.GetCandles(ctx, "plain", "ETH", "BTC", "1h", epoch, 10)
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = svc.GetMarkets(ctx, "nope")
	assert.ErrorIs(t, err, ErrUnknownExchange)
}
