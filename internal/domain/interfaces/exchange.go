package interfaces

import (
	"context"
	"time"

	"exapi-service/internal/domain/entities"
)

// OrderBookSource fetches depth snapshots from one exchange.
// Failures are returned as *governor.CallError so they can be classified.
type OrderBookSource interface {
	Name() string
	GetOrderBook(ctx context.Context, base, quote string, limit int) (*entities.OrderBook, error)
}

// Capacidades opcionales de una fuente. El servicio de mercado las detecta
// con una aserción de tipo y responde "no soportado" cuando faltan.

// MarketLister lists the markets an exchange trades
type MarketLister interface {
	GetMarkets(ctx context.Context) ([]entities.Market, error)
}

// TradeSource returns recent public trades. A zero since means the most recent ones.
type TradeSource interface {
	GetTrades(ctx context.Context, base, quote string, since time.Time, limit int) ([]entities.Trade, error)
}

// DetailsSource returns the trading limits of one market
type DetailsSource interface {
	GetMarketDetails(ctx context.Context, base, quote string) (*entities.MarketDetails, error)
}

// CandleSource returns OHLCV candles starting at since
type CandleSource interface {
	GetCandles(ctx context.Context, base, quote string, interval entities.CandleInterval, since time.Time, limit int) ([]entities.Candle, error)
}

// SourceRegistry resolves exchange names to sources
type SourceRegistry interface {
	Get(name string) (OrderBookSource, bool)
	Names() []string
}
