package interfaces

import (
	"context"
	"time"

	"exapi-service/internal/domain/entities"

	"github.com/shopspring/decimal"
)

// PriceService define los casos de uso de precios medios cacheados
type PriceService interface {
	// GetPrice retorna el precio medio fresco, o uno vencido si el refresco falla
	GetPrice(ctx context.Context, exchange, base, quote string, depth int) (decimal.Decimal, error)

	// Lookup es como GetPrice pero indica si el valor servido está vencido
	Lookup(ctx context.Context, exchange, base, quote string, depth int) (entities.MidPrice, error)

	// CachedPrices retorna todos los precios presentes en el cache
	CachedPrices(ctx context.Context) []entities.MidPrice
}

// MarketService expone datos de mercado gobernados, leídos directo del exchange
type MarketService interface {
	GetOrderBook(ctx context.Context, exchange, base, quote string, limit int, side entities.Side) (*entities.OrderBook, error)
	GetMarkets(ctx context.Context, exchange string) ([]entities.Market, error)
	GetHistory(ctx context.Context, exchange, base, quote string, since time.Time, limit int) ([]entities.Trade, error)
	GetDetails(ctx context.Context, exchange, base, quote string) (*entities.MarketDetails, error)
	GetCandles(ctx context.Context, exchange, base, quote string, interval entities.CandleInterval, since time.Time, limit int) ([]entities.Candle, error)
}
