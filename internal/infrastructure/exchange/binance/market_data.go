package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"exapi-service/internal/domain/entities"
	"exapi-service/internal/infrastructure/governor"

	"github.com/shopspring/decimal"
)

// maxPageSize is the largest limit /trades, /aggTrades and /klines accept
const maxPageSize = 1000

// ExchangeInfo is the body of GET /api/v3/exchangeInfo
type ExchangeInfo struct {
	Symbols []SymbolInfo `json:"symbols"`
}

// SymbolInfo describes one market and its filters
type SymbolInfo struct {
	Symbol     string         `json:"symbol"`
	Status     string         `json:"status"`
	BaseAsset  string         `json:"baseAsset"`
	QuoteAsset string         `json:"quoteAsset"`
	Filters    []SymbolFilter `json:"filters"`
}

// SymbolFilter holds the fields of the filters used for market details.
// Each filter type fills only its own fields.
type SymbolFilter struct {
	FilterType  string `json:"filterType"`
	MinPrice    string `json:"minPrice"`
	MaxPrice    string `json:"maxPrice"`
	TickSize    string `json:"tickSize"`
	MinQty      string `json:"minQty"`
	MaxQty      string `json:"maxQty"`
	StepSize    string `json:"stepSize"`
	MinNotional string `json:"minNotional"`
}

// RecentTrade is one element of GET /api/v3/trades
type RecentTrade struct {
	ID           int64  `json:"id"`
	Price        string `json:"price"`
	Qty          string `json:"qty"`
	Time         int64  `json:"time"`
	IsBuyerMaker bool   `json:"isBuyerMaker"`
}

// AggTrade is one element of GET /api/v3/aggTrades
type AggTrade struct {
	ID           int64  `json:"a"`
	Price        string `json:"p"`
	Qty          string `json:"q"`
	Time         int64  `json:"T"`
	IsBuyerMaker bool   `json:"m"`
}

// GetMarkets lists every symbol from /exchangeInfo
func (b *RestClient) GetMarkets(ctx context.Context) ([]entities.Market, error) {
	var info ExchangeInfo
	if err := b.get(ctx, infoEndpoint, nil, &info); err != nil {
		return nil, err
	}

	markets := make([]entities.Market, 0, len(info.Symbols))
	for _, symbol := range info.Symbols {
		if symbol.BaseAsset == "" || symbol.QuoteAsset == "" {
			continue
		}
		markets = append(markets, entities.NewMarket(Name, symbol.BaseAsset, symbol.QuoteAsset))
	}
	return markets, nil
}

// GetMarketDetails reads PRICE_FILTER, LOT_SIZE and (MIN_)NOTIONAL for base/quote
func (b *RestClient) GetMarketDetails(ctx context.Context, base, quote string) (*entities.MarketDetails, error) {
	market := entities.NewMarket(Name, base, quote)

	query := url.Values{}
	query.Set("symbol", Symbol(market))

	var info ExchangeInfo
	if err := b.get(ctx, infoEndpoint, query, &info); err != nil {
		return nil, err
	}
	if len(info.Symbols) == 0 {
		return nil, governor.Errorf(governor.CategoryExchangeError, "%w: no symbol %s", ErrInvalidResponse, Symbol(market))
	}

	details, err := info.Symbols[0].ToDetails(market)
	if err != nil {
		return nil, governor.NewCallError(governor.CategoryExchangeError, err)
	}
	return details, nil
}

// GetTrades returns recent trades, or aggregated trades from since when given
func (b *RestClient) GetTrades(ctx context.Context, base, quote string, since time.Time, limit int) ([]entities.Trade, error) {
	market := entities.NewMarket(Name, base, quote)

	query := url.Values{}
	query.Set("symbol", Symbol(market))
	if limit > 0 {
		query.Set("limit", strconv.Itoa(min(limit, maxPageSize)))
	}

	var trades []entities.Trade
	if since.IsZero() {
		var recent []RecentTrade
		if err := b.get(ctx, tradesEndpoint, query, &recent); err != nil {
			return nil, err
		}
		for _, t := range recent {
			trade, err := toTrade(t.ID, t.Price, t.Qty, t.Time, t.IsBuyerMaker)
			if err != nil {
				return nil, governor.NewCallError(governor.CategoryExchangeError, err)
			}
			trades = append(trades, trade)
		}
		return trades, nil
	}

	// /trades no filtra por tiempo; /aggTrades sí
	query.Set("startTime", strconv.FormatInt(since.UnixMilli(), 10))
	var aggregated []AggTrade
	if err := b.get(ctx, aggTradesEndpoint, query, &aggregated); err != nil {
		return nil, err
	}
	for _, t := range aggregated {
		trade, err := toTrade(t.ID, t.Price, t.Qty, t.Time, t.IsBuyerMaker)
		if err != nil {
			return nil, governor.NewCallError(governor.CategoryExchangeError, err)
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

// GetCandles reads /klines. Binance accepts every interval the API exposes.
func (b *RestClient) GetCandles(ctx context.Context, base, quote string, interval entities.CandleInterval, since time.Time, limit int) ([]entities.Candle, error) {
	market := entities.NewMarket(Name, base, quote)

	query := url.Values{}
	query.Set("symbol", Symbol(market))
	query.Set("interval", string(interval))
	if !since.IsZero() {
		query.Set("startTime", strconv.FormatInt(since.UnixMilli(), 10))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(min(limit, maxPageSize)))
	}

	var rows [][]json.RawMessage
	if err := b.get(ctx, klinesEndpoint, query, &rows); err != nil {
		return nil, err
	}

	candles := make([]entities.Candle, 0, len(rows))
	for _, row := range rows {
		candle, err := toCandle(row)
		if err != nil {
			return nil, governor.NewCallError(governor.CategoryExchangeError, err)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// ToDetails maps the symbol filters to market limits
func (s SymbolInfo) ToDetails(market entities.Market) (*entities.MarketDetails, error) {
	details := &entities.MarketDetails{Market: market}

	for _, f := range s.Filters {
		var err error
		switch f.FilterType {
		case "PRICE_FILTER":
			var tick decimal.Decimal
			err = errors.Join(
				setDecimal(f.MinPrice, &details.MinPrice),
				setDecimal(f.MaxPrice, &details.MaxPrice),
				setDecimal(f.TickSize, &tick),
			)
			details.PricePrecision = entities.DecimalPlaces(tick)
		case "LOT_SIZE":
			var step decimal.Decimal
			err = errors.Join(
				setDecimal(f.MinQty, &details.MinAmount),
				setDecimal(f.MaxQty, &details.MaxAmount),
				setDecimal(f.StepSize, &step),
			)
			details.AmountPrecision = entities.DecimalPlaces(step)
		case "NOTIONAL", "MIN_NOTIONAL":
			err = setDecimal(f.MinNotional, &details.MinValue)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s filter: %v", ErrInvalidResponse, f.FilterType, err)
		}
	}

	return details, nil
}

// setDecimal parses raw into target; empty strings leave target untouched
func setDecimal(raw string, target *decimal.Decimal) error {
	if raw == "" {
		return nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return err
	}
	*target = value
	return nil
}

func toTrade(id int64, price, qty string, ms int64, buyerMaker bool) (entities.Trade, error) {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return entities.Trade{}, fmt.Errorf("%w: trade price %q", ErrInvalidResponse, price)
	}
	q, err := decimal.NewFromString(qty)
	if err != nil {
		return entities.Trade{}, fmt.Errorf("%w: trade quantity %q", ErrInvalidResponse, qty)
	}

	// Si el comprador era maker, quien tomó liquidez vendió
	side := entities.TradeBuy
	if buyerMaker {
		side = entities.TradeSell
	}

	return entities.Trade{
		ID:        strconv.FormatInt(id, 10),
		Price:     p,
		Amount:    q,
		Side:      side,
		Timestamp: time.UnixMilli(ms).UTC(),
	}, nil
}

// toCandle reads [openTime, open, high, low, close, volume, closeTime, ...]
func toCandle(row []json.RawMessage) (entities.Candle, error) {
	if len(row) < 6 {
		return entities.Candle{}, fmt.Errorf("%w: kline has %d fields", ErrInvalidResponse, len(row))
	}

	var openTime int64
	if err := json.Unmarshal(row[0], &openTime); err != nil {
		return entities.Candle{}, fmt.Errorf("%w: kline open time: %v", ErrInvalidResponse, err)
	}

	var values [5]decimal.Decimal
	for i := range values {
		var raw string
		if err := json.Unmarshal(row[i+1], &raw); err != nil {
			return entities.Candle{}, fmt.Errorf("%w: kline field %d: %v", ErrInvalidResponse, i+1, err)
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return entities.Candle{}, fmt.Errorf("%w: kline field %d: %v", ErrInvalidResponse, i+1, err)
		}
		values[i] = value
	}

	return entities.Candle{
		Timestamp: time.UnixMilli(openTime).UTC(),
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
	}, nil
}
