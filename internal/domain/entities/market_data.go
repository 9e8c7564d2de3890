package entities

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TradeSide is the taker side of a public trade
type TradeSide string

const (
	TradeBuy  TradeSide = "buy"
	TradeSell TradeSide = "sell"
)

// Trade is one public trade on a market
type Trade struct {
	ID        string          `json:"id"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	Side      TradeSide       `json:"side"`
	Timestamp time.Time       `json:"timestamp"`
}

// SortTradesNewestFirst orders trades by timestamp, most recent first
func SortTradesNewestFirst(trades []Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].Timestamp.After(trades[j].Timestamp)
	})
}

// CandleInterval is the aggregation period of a candle, e.g. "1h"
type CandleInterval string

// Intervalos aceptados por la API; cada exchange soporta un subconjunto
var candleIntervals = []CandleInterval{
	"1m", "3m", "5m", "15m", "30m",
	"1h", "2h", "4h", "6h", "8h", "12h",
	"1d", "3d", "1w", "1M",
}

// ParseCandleInterval validates s against the known intervals.
// "1M" (month) and "1m" (minute) are different, so the match is case sensitive.
func ParseCandleInterval(s string) (CandleInterval, bool) {
	s = strings.TrimSpace(s)
	for _, interval := range candleIntervals {
		if string(interval) == s {
			return interval, true
		}
	}
	return "", false
}

// Candle is one OHLCV bar, Timestamp is the open time
type Candle struct {
	Timestamp time.Time       `json:"timestamp"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
}

// SortCandlesOldestFirst orders candles by open time and drops repeated timestamps
func SortCandlesOldestFirst(candles []Candle) []Candle {
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})

	out := candles[:0]
	for i, c := range candles {
		if i > 0 && c.Timestamp.Equal(candles[i-1].Timestamp) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// MarketDetails are the trading limits an exchange reports for a market.
// A zero maximum means the exchange reports no upper bound.
type MarketDetails struct {
	Market          Market          `json:"market"`
	MinAmount       decimal.Decimal `json:"min_amount"`
	MaxAmount       decimal.Decimal `json:"max_amount"`
	MinPrice        decimal.Decimal `json:"min_price"`
	MaxPrice        decimal.Decimal `json:"max_price"`
	MinValue        decimal.Decimal `json:"min_value"`
	AmountPrecision int32           `json:"amount_precision"`
	PricePrecision  int32           `json:"price_precision"`
}

// FillMinValue sets MinValue to MinAmount * MinPrice when the exchange gave none
func (d *MarketDetails) FillMinValue() {
	if d.MinValue.IsZero() {
		d.MinValue = d.MinAmount.Mul(d.MinPrice)
	}
}

// DecimalPlaces counts the significant fractional digits of a step such as
// "0.00010000" (4). Whole-number steps give 0.
func DecimalPlaces(step decimal.Decimal) int32 {
	s := step.String()
	idx := strings.IndexByte(s, '.')
	if idx < 0 {
		return 0
	}
	return int32(len(strings.TrimRight(s[idx+1:], "0")))
}

// SortMarkets orders markets by symbol
func SortMarkets(markets []Market) {
	sort.Slice(markets, func(i, j int) bool {
		return markets[i].Symbol() < markets[j].Symbol()
	})
}
