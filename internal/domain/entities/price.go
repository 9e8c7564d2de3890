package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// MidPrice is a cached mid price for a market
type MidPrice struct {
	Market    Market          `json:"market"`
	Value     decimal.Decimal `json:"value"`
	FetchedAt time.Time       `json:"fetched_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	Stale     bool            `json:"stale"`
}

// Fresh reports whether the price is still within its TTL at now
func (p MidPrice) Fresh(now time.Time) bool {
	return now.Before(p.ExpiresAt)
}

// Age returns how long ago the price was fetched
func (p MidPrice) Age(now time.Time) time.Duration {
	return now.Sub(p.FetchedAt)
}
