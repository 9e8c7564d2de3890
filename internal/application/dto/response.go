package dto

import (
	"time"
)

// MidPriceResponse represents the response from /{exchange}/midprice.
// Failures keep status 200 and report success=false with the error text.
type MidPriceResponse struct {
	Success    bool     `json:"success"`
	PriceStr   string   `json:"price_str,omitempty"`
	PriceFloat *float64 `json:"price_float,omitempty"`
	Stale      bool     `json:"stale,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// LevelData is one orderbook level as decimal strings
type LevelData struct {
	Price  string `json:"price"`
	Amount string `json:"amount"`
}

// OrderBookResponse represents the response from /{exchange}/orderbook
type OrderBookResponse struct {
	Exchange  string      `json:"exchange"`
	Symbol    string      `json:"symbol"`
	Bids      []LevelData `json:"bids,omitempty"`
	Asks      []LevelData `json:"asks,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// MarketsResponse represents the response from /{exchange}/markets
type MarketsResponse struct {
	Exchange string   `json:"exchange"`
	Count    int      `json:"count"`
	Markets  []string `json:"markets"`
}

// TradeData is one public trade as decimal strings
type TradeData struct {
	ID        string    `json:"id,omitempty"`
	Price     string    `json:"price"`
	Amount    string    `json:"amount"`
	Side      string    `json:"side"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryResponse represents the response from /{exchange}/history, newest trade first
type HistoryResponse struct {
	Exchange string      `json:"exchange"`
	Symbol   string      `json:"symbol"`
	Count    int         `json:"count"`
	Trades   []TradeData `json:"trades"`
}

// DetailsResponse represents the response from /{exchange}/details.
// Maximums are omitted when the exchange reports none.
type DetailsResponse struct {
	Exchange        string `json:"exchange"`
	Symbol          string `json:"symbol"`
	MinAmount       string `json:"min_amt"`
	MaxAmount       string `json:"max_amt,omitempty"`
	MinPrice        string `json:"min_price"`
	MaxPrice        string `json:"max_price,omitempty"`
	MinValue        string `json:"min_val"`
	AmountPrecision int32  `json:"amt_precision"`
	PricePrecision  int32  `json:"price_precision"`
}

// CandleData is one OHLCV bar
type CandleData struct {
	Timestamp time.Time `json:"timestamp"`
	Open      string    `json:"open"`
	High      string    `json:"high"`
	Low       string    `json:"low"`
	Close     string    `json:"close"`
	Volume    string    `json:"volume"`
}

// CandlesResponse represents the response from /{exchange}/candles, oldest first
type CandlesResponse struct {
	Exchange string       `json:"exchange"`
	Symbol   string       `json:"symbol"`
	Interval string       `json:"interval"`
	Count    int          `json:"count"`
	Candles  []CandleData `json:"candles"`
}

// CachedPriceData is one entry of the cache snapshot
type CachedPriceData struct {
	Key       string    `json:"key"`
	Exchange  string    `json:"exchange"`
	Symbol    string    `json:"symbol"`
	Price     string    `json:"price"`
	FetchedAt time.Time `json:"fetched_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Stale     bool      `json:"stale"`
}

// CachedPricesResponse represents the response from /api/v1/cache
type CachedPricesResponse struct {
	Count  int               `json:"count"`
	Prices []CachedPriceData `json:"prices"`
}

// WindowData describes one governor throttle window
type WindowData struct {
	Identity     string    `json:"identity"`
	RequestCount int       `json:"request_count"`
	Limit        int       `json:"limit"`
	WindowEnd    time.Time `json:"window_end"`
}

// GovernorResponse represents the response from /api/v1/governor
type GovernorResponse struct {
	MaxAttempts int              `json:"max_attempts"`
	Windows     []WindowData     `json:"windows"`
	Inbound     InboundLimitData `json:"inbound"`
}

// InboundLimitData describes the per-client limiter in front of the API
type InboundLimitData struct {
	Enabled         bool `json:"enabled"`
	Limit           int  `json:"limit,omitempty"`
	IntervalSeconds int  `json:"interval_seconds,omitempty"`
	TrackedClients  int  `json:"tracked_clients"`
}

// ErrorResponse represents a standard error response for endpoints
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	Message string `json:"message"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(error string, message string) *ErrorResponse {
	return &ErrorResponse{
		Error:   error,
		Message: message,
	}
}

// NewErrorResponseWithCode creates an error response with code
func NewErrorResponseWithCode(error string, message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:   error,
		Message: message,
		Code:    code,
	}
}

// NewHealthResponse creates the health check response
func NewHealthResponse() *HealthResponse {
	return &HealthResponse{Message: "exapi API is running"}
}
