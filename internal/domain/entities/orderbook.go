package entities

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrEmptyBook is returned when a side of the book has no levels
var ErrEmptyBook = errors.New("orderbook side is empty")

// Side of the book
type Side string

const (
	SideBids Side = "bids"
	SideAsks Side = "asks"
	SideBoth Side = ""
)

// ParseSide parses "bids", "asks" or "" (both)
func ParseSide(s string) (Side, bool) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case SideBids:
		return SideBids, true
	case SideAsks:
		return SideAsks, true
	case SideBoth:
		return SideBoth, true
	default:
		return SideBoth, false
	}
}

// PriceLevel is one price and the amount resting at it
type PriceLevel struct {
	Price  decimal.Decimal `json:"price"`
	Amount decimal.Decimal `json:"amount"`
}

// OrderBook is a depth snapshot. Bids are sorted best (highest) first,
// asks best (lowest) first.
type OrderBook struct {
	Market    Market       `json:"market"`
	Bids      []PriceLevel `json:"bids,omitempty"`
	Asks      []PriceLevel `json:"asks,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewOrderBook sorts both sides into best-first order
func NewOrderBook(market Market, bids, asks []PriceLevel, ts time.Time) *OrderBook {
	sort.SliceStable(bids, func(i, j int) bool { return bids[i].Price.GreaterThan(bids[j].Price) })
	sort.SliceStable(asks, func(i, j int) bool { return asks[i].Price.LessThan(asks[j].Price) })

	return &OrderBook{Market: market, Bids: bids, Asks: asks, Timestamp: ts}
}

// BestBid returns the highest bid
func (b *OrderBook) BestBid() (PriceLevel, error) {
	if len(b.Bids) == 0 {
		return PriceLevel{}, ErrEmptyBook
	}
	return b.Bids[0], nil
}

// BestAsk returns the lowest ask
func (b *OrderBook) BestAsk() (PriceLevel, error) {
	if len(b.Asks) == 0 {
		return PriceLevel{}, ErrEmptyBook
	}
	return b.Asks[0], nil
}

// MidPrice returns (bestBid + bestAsk) / 2 as an exact decimal
func (b *OrderBook) MidPrice() (decimal.Decimal, error) {
	bid, err := b.BestBid()
	if err != nil {
		return decimal.Zero, err
	}
	ask, err := b.BestAsk()
	if err != nil {
		return decimal.Zero, err
	}
	return bid.Price.Add(ask.Price).Div(decimal.NewFromInt(2)), nil
}

// Side returns a copy of the book keeping only the requested side
func (b *OrderBook) Side(side Side) *OrderBook {
	out := *b
	switch side {
	case SideBids:
		out.Asks = nil
	case SideAsks:
		out.Bids = nil
	}
	return &out
}

// Truncate keeps at most limit levels on each side
func (b *OrderBook) Truncate(limit int) *OrderBook {
	out := *b
	if limit > 0 {
		if len(out.Bids) > limit {
			out.Bids = out.Bids[:limit]
		}
		if len(out.Asks) > limit {
			out.Asks = out.Asks[:limit]
		}
	}
	return &out
}
