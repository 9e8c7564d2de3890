package kraken

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"exapi-service/internal/domain/entities"
	"exapi-service/internal/infrastructure/governor"

	"github.com/shopspring/decimal"
)

// Intervalos de /OHLC en minutos
var ohlcMinutes = map[entities.CandleInterval]int{
	"1m":  1,
	"5m":  5,
	"15m": 15,
	"30m": 30,
	"1h":  60,
	"4h":  240,
	"1d":  1440,
	"1w":  10080,
}

// GetMarkets lista los pares de /AssetPairs como BASE/QUOTE estándar
func (k *RestClient) GetMarkets(ctx context.Context) ([]entities.Market, error) {
	var pairs map[string]AssetPair
	if err := k.publicGet(ctx, pairsEndpoint, nil, &pairs); err != nil {
		return nil, err
	}

	markets := make([]entities.Market, 0, len(pairs))
	for _, pair := range pairs {
		base, quote, ok := pair.Assets()
		if !ok {
			continue
		}
		markets = append(markets, entities.NewMarket(Name, base, quote))
	}
	return markets, nil
}

// GetMarketDetails lee los límites de orden del par desde /AssetPairs
func (k *RestClient) GetMarketDetails(ctx context.Context, base, quote string) (*entities.MarketDetails, error) {
	market := entities.NewMarket(Name, base, quote)
	pair := ToKrakenPair(market.Base, market.Quote)

	query := url.Values{}
	query.Set("pair", pair)

	var pairs map[string]AssetPair
	if err := k.publicGet(ctx, pairsEndpoint, query, &pairs); err != nil {
		return nil, err
	}

	for _, info := range pairs {
		details, err := info.ToDetails(market)
		if err != nil {
			return nil, governor.NewCallError(governor.CategoryExchangeError, err)
		}
		return details, nil
	}

	return nil, governor.Errorf(governor.CategoryExchangeError, "%w: no asset pair %s", ErrInvalidResponse, pair)
}

// GetTrades obtiene operaciones públicas desde since (segundos para Kraken)
func (k *RestClient) GetTrades(ctx context.Context, base, quote string, since time.Time, limit int) ([]entities.Trade, error) {
	market := entities.NewMarket(Name, base, quote)

	query := url.Values{}
	query.Set("pair", ToKrakenPair(market.Base, market.Quote))
	if !since.IsZero() {
		query.Set("since", strconv.FormatInt(since.Unix(), 10))
	}
	if limit > 0 {
		query.Set("count", strconv.Itoa(limit))
	}

	rows, err := k.pairRows(ctx, tradesEndpoint, query)
	if err != nil {
		return nil, err
	}

	trades := make([]entities.Trade, 0, len(rows))
	for _, row := range rows {
		trade, err := row.ToTrade()
		if err != nil {
			return nil, governor.NewCallError(governor.CategoryExchangeError, err)
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

// GetCandles obtiene velas de /OHLC; Kraken no admite todos los intervalos
func (k *RestClient) GetCandles(ctx context.Context, base, quote string, interval entities.CandleInterval, since time.Time, limit int) ([]entities.Candle, error) {
	minutes, ok := ohlcMinutes[interval]
	if !ok {
		return nil, governor.Errorf(governor.CategoryInvalidOrder, "interval %s not supported by kraken", interval)
	}

	market := entities.NewMarket(Name, base, quote)

	query := url.Values{}
	query.Set("pair", ToKrakenPair(market.Base, market.Quote))
	query.Set("interval", strconv.Itoa(minutes))
	if !since.IsZero() {
		query.Set("since", strconv.FormatInt(since.Unix(), 10))
	}

	rows, err := k.pairRows(ctx, ohlcEndpoint, query)
	if err != nil {
		return nil, err
	}

	candles := make([]entities.Candle, 0, len(rows))
	for _, row := range rows {
		candle, err := row.ToCandle()
		if err != nil {
			return nil, governor.NewCallError(governor.CategoryExchangeError, err)
		}
		candles = append(candles, candle)
	}

	// /OHLC no tiene parámetro de cantidad
	if limit > 0 && len(candles) > limit {
		candles = candles[:limit]
	}
	return candles, nil
}

// pairRows decodifica resultados con forma {"<PAR>": [[...], ...], "last": ...}
func (k *RestClient) pairRows(ctx context.Context, endpoint string, query url.Values) ([]Row, error) {
	var result map[string]json.RawMessage
	if err := k.publicGet(ctx, endpoint, query, &result); err != nil {
		return nil, err
	}

	for key, raw := range result {
		if key == "last" {
			continue
		}
		var rows []Row
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, decodeError(err)
		}
		return rows, nil
	}

	return nil, governor.Errorf(governor.CategoryExchangeError, "%w: no data for pair %s", ErrInvalidResponse, query.Get("pair"))
}

// AssetPair es una entrada de /AssetPairs
type AssetPair struct {
	Altname      string `json:"altname"`
	WSName       string `json:"wsname"`
	PairDecimals int32  `json:"pair_decimals"`
	LotDecimals  int32  `json:"lot_decimals"`
	OrderMin     string `json:"ordermin"`
	CostMin      string `json:"costmin"`
	TickSize     string `json:"tick_size"`
}

// Assets separa wsname ("XBT/USD") en activos estándar
func (p AssetPair) Assets() (string, string, bool) {
	base, quote, found := strings.Cut(p.WSName, "/")
	if !found || base == "" || quote == "" {
		return "", "", false
	}
	return standardAsset(base), standardAsset(quote), true
}

// ToDetails convierte los límites del par. El precio mínimo es el tick,
// o 10^-pair_decimals cuando Kraken no informa tick_size.
func (p AssetPair) ToDetails(market entities.Market) (*entities.MarketDetails, error) {
	minAmount, err := optionalDecimal(p.OrderMin)
	if err != nil {
		return nil, fmt.Errorf("%w: ordermin: %v", ErrInvalidResponse, err)
	}
	minValue, err := optionalDecimal(p.CostMin)
	if err != nil {
		return nil, fmt.Errorf("%w: costmin: %v", ErrInvalidResponse, err)
	}
	minPrice, err := optionalDecimal(p.TickSize)
	if err != nil {
		return nil, fmt.Errorf("%w: tick_size: %v", ErrInvalidResponse, err)
	}
	if minPrice.IsZero() {
		minPrice = decimal.New(1, -p.PairDecimals)
	}

	return &entities.MarketDetails{
		Market:          market,
		MinAmount:       minAmount,
		MinPrice:        minPrice,
		MinValue:        minValue,
		AmountPrecision: p.LotDecimals,
		PricePrecision:  p.PairDecimals,
	}, nil
}

// Row es una fila posicional de /Trades o /OHLC
type Row []json.RawMessage

// ToTrade lee [price, volume, time, side, type, misc, trade_id]
func (r Row) ToTrade() (entities.Trade, error) {
	if len(r) < 4 {
		return entities.Trade{}, fmt.Errorf("%w: trade has %d fields", ErrInvalidResponse, len(r))
	}

	price, err := parseDecimal(r[0])
	if err != nil {
		return entities.Trade{}, fmt.Errorf("%w: trade price: %v", ErrInvalidResponse, err)
	}
	amount, err := parseDecimal(r[1])
	if err != nil {
		return entities.Trade{}, fmt.Errorf("%w: trade volume: %v", ErrInvalidResponse, err)
	}
	ts, err := parseUnixTime(r[2])
	if err != nil {
		return entities.Trade{}, fmt.Errorf("%w: trade time: %v", ErrInvalidResponse, err)
	}

	var side entities.TradeSide
	switch rawString(r[3]) {
	case "b":
		side = entities.TradeBuy
	case "s":
		side = entities.TradeSell
	default:
		return entities.Trade{}, fmt.Errorf("%w: trade side %s", ErrInvalidResponse, r[3])
	}

	trade := entities.Trade{Price: price, Amount: amount, Side: side, Timestamp: ts}
	if len(r) > 6 {
		trade.ID = rawString(r[6])
	}
	return trade, nil
}

// ToCandle lee [time, open, high, low, close, vwap, volume, count]
func (r Row) ToCandle() (entities.Candle, error) {
	if len(r) < 7 {
		return entities.Candle{}, fmt.Errorf("%w: candle has %d fields", ErrInvalidResponse, len(r))
	}

	ts, err := parseUnixTime(r[0])
	if err != nil {
		return entities.Candle{}, fmt.Errorf("%w: candle time: %v", ErrInvalidResponse, err)
	}

	var values [5]decimal.Decimal
	for i, idx := range []int{1, 2, 3, 4, 6} {
		values[i], err = parseDecimal(r[idx])
		if err != nil {
			return entities.Candle{}, fmt.Errorf("%w: candle field %d: %v", ErrInvalidResponse, idx, err)
		}
	}

	return entities.Candle{
		Timestamp: ts,
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
	}, nil
}

// parseUnixTime acepta segundos con fracción, como número o string
func parseUnixTime(raw json.RawMessage) (time.Time, error) {
	seconds, err := parseDecimal(raw)
	if err != nil {
		return time.Time{}, err
	}
	whole := seconds.IntPart()
	nanos := seconds.Sub(decimal.NewFromInt(whole)).Shift(9).IntPart()
	return time.Unix(whole, nanos).UTC(), nil
}

func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func optionalDecimal(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
