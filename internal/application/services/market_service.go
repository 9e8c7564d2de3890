package services

import (
	"context"
	"fmt"
	"time"

	"exapi-service/internal/domain/entities"
	"exapi-service/internal/domain/interfaces"
	"exapi-service/internal/infrastructure/governor"
)

// marketService serves governed market data straight from the exchange.
// Nothing here is cached; every call goes through the governor.
type marketService struct {
	sources  interfaces.SourceRegistry
	governor *governor.Governor
}

// NewMarketService creates a new market service
func NewMarketService(sources interfaces.SourceRegistry, gov *governor.Governor) interfaces.MarketService {
	return &marketService{sources: sources, governor: gov}
}

func (s *marketService) source(exchange string) (interfaces.OrderBookSource, error) {
	source, ok := s.sources.Get(exchange)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownExchange, exchange)
	}
	return source, nil
}

func unsupported(source interfaces.OrderBookSource, what string) error {
	return fmt.Errorf("%w: %s does not provide %s", ErrUnsupported, source.Name(), what)
}

// GetOrderBook returns the book for base/quote. A nil book with a nil error
// means the exchange reported the market as not found.
func (s *marketService) GetOrderBook(ctx context.Context, exchange, base, quote string, limit int, side entities.Side) (*entities.OrderBook, error) {
	source, err := s.source(exchange)
	if err != nil {
		return nil, err
	}

	market := entities.NewMarket(source.Name(), base, quote)
	book, found, err := governor.Do(ctx, s.governor, governor.Identity{Exchange: market.Exchange},
		func(ctx context.Context) (*entities.OrderBook, error) {
			return source.GetOrderBook(ctx, market.Base, market.Quote, limit)
		})
	if err != nil {
		return nil, err
	}
	if !found || book == nil {
		return nil, nil
	}

	return book.Truncate(limit).Side(side), nil
}

// GetMarkets returns the exchange's markets sorted by symbol
func (s *marketService) GetMarkets(ctx context.Context, exchange string) ([]entities.Market, error) {
	source, err := s.source(exchange)
	if err != nil {
		return nil, err
	}
	lister, ok := source.(interfaces.MarketLister)
	if !ok {
		return nil, unsupported(source, "markets")
	}

	markets, found, err := governor.Do(ctx, s.governor, governor.Identity{Exchange: source.Name()}, lister.GetMarkets)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: markets of %s", ErrNotFound, source.Name())
	}

	entities.SortMarkets(markets)
	return markets, nil
}

// GetHistory returns up to limit public trades, newest first
func (s *marketService) GetHistory(ctx context.Context, exchange, base, quote string, since time.Time, limit int) ([]entities.Trade, error) {
	source, err := s.source(exchange)
	if err != nil {
		return nil, err
	}
	trades, ok := source.(interfaces.TradeSource)
	if !ok {
		return nil, unsupported(source, "trade history")
	}

	market := entities.NewMarket(source.Name(), base, quote)
	history, found, err := governor.Do(ctx, s.governor, governor.Identity{Exchange: market.Exchange},
		func(ctx context.Context) ([]entities.Trade, error) {
			return trades.GetTrades(ctx, market.Base, market.Quote, since, limit)
		})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: trades for %s", ErrNotFound, market)
	}

	entities.SortTradesNewestFirst(history)
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

// GetDetails returns the trading limits of base/quote
func (s *marketService) GetDetails(ctx context.Context, exchange, base, quote string) (*entities.MarketDetails, error) {
	source, err := s.source(exchange)
	if err != nil {
		return nil, err
	}
	detailer, ok := source.(interfaces.DetailsSource)
	if !ok {
		return nil, unsupported(source, "market details")
	}

	market := entities.NewMarket(source.Name(), base, quote)
	details, found, err := governor.Do(ctx, s.governor, governor.Identity{Exchange: market.Exchange},
		func(ctx context.Context) (*entities.MarketDetails, error) {
			return detailer.GetMarketDetails(ctx, market.Base, market.Quote)
		})
	if err != nil {
		return nil, err
	}
	if !found || details == nil {
		return nil, fmt.Errorf("%w: details for %s", ErrNotFound, market)
	}

	details.FillMinValue()
	return details, nil
}

// GetCandles returns up to limit candles from since, oldest first
func (s *marketService) GetCandles(ctx context.Context, exchange, base, quote string, interval entities.CandleInterval, since time.Time, limit int) ([]entities.Candle, error) {
	source, err := s.source(exchange)
	if err != nil {
		return nil, err
	}
	candles, ok := source.(interfaces.CandleSource)
	if !ok {
		return nil, unsupported(source, "candles")
	}

	market := entities.NewMarket(source.Name(), base, quote)
	bars, found, err := governor.Do(ctx, s.governor, governor.Identity{Exchange: market.Exchange},
		func(ctx context.Context) ([]entities.Candle, error) {
			return candles.GetCandles(ctx, market.Base, market.Quote, interval, since, limit)
		})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: candles for %s", ErrNotFound, market)
	}

	bars = entities.SortCandlesOldestFirst(bars)
	if limit > 0 && len(bars) > limit {
		bars = bars[:limit]
	}
	return bars, nil
}
