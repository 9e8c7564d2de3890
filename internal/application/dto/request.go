package dto

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"exapi-service/internal/domain/entities"
)

// Valores por defecto de los argumentos de consulta
const (
	DefaultBase           = "ETH"
	DefaultQuote          = "BTC"
	DefaultOrderBookLimit = 100
	MaxOrderBookLimit     = 5000
	DefaultHistoryLimit   = 50
	MaxHistoryLimit       = 1000
	DefaultCandleLimit    = 1000
	MaxCandleLimit        = 1000
	DefaultCandleInterval = entities.CandleInterval("1h")
)

// ErrInvalidArgument marca errores de parseo de argumentos (422)
var ErrInvalidArgument = errors.New("invalid argument")

// MarketQuery son los argumentos comunes base/quote
type MarketQuery struct {
	Exchange string `json:"exchange"`
	Base     string `json:"base"`
	Quote    string `json:"quote"`
}

// MidPriceRequest representa GET /{exchange}/midprice
type MidPriceRequest struct {
	MarketQuery
	// Depth es 0 cuando no se indica; el cache usa su profundidad por defecto
	Depth int `json:"depth,omitempty"`
}

// OrderBookRequest representa GET /{exchange}/orderbook
type OrderBookRequest struct {
	MarketQuery
	Limit int           `json:"limit"`
	Side  entities.Side `json:"side,omitempty"`
}

// HistoryRequest representa GET /{exchange}/history
type HistoryRequest struct {
	MarketQuery
	Limit int `json:"limit"`
	// Since es cero cuando no se indica: las operaciones más recientes
	Since time.Time `json:"since,omitempty"`
}

// DetailsRequest representa GET /{exchange}/details
type DetailsRequest struct {
	MarketQuery
}

// CandlesRequest representa GET /{exchange}/candles
type CandlesRequest struct {
	MarketQuery
	Interval entities.CandleInterval `json:"interval"`
	Since    time.Time               `json:"since"`
	Limit    int                     `json:"limit"`
}

// NewMidPriceRequest crea la request desde los query parameters
func NewMidPriceRequest(exchange string, query url.Values) (*MidPriceRequest, error) {
	market, err := parseMarket(exchange, query)
	if err != nil {
		return nil, err
	}

	depth, err := parsePositiveInt(query, "depth", 0, MaxOrderBookLimit)
	if err != nil {
		return nil, err
	}

	return &MidPriceRequest{MarketQuery: market, Depth: depth}, nil
}

// NewOrderBookRequest crea la request desde los query parameters
func NewOrderBookRequest(exchange string, query url.Values) (*OrderBookRequest, error) {
	market, err := parseMarket(exchange, query)
	if err != nil {
		return nil, err
	}

	limit, err := parsePositiveInt(query, "limit", DefaultOrderBookLimit, MaxOrderBookLimit)
	if err != nil {
		return nil, err
	}

	side, ok := entities.ParseSide(query.Get("side"))
	if !ok {
		return nil, fmt.Errorf("%w: side must be one of bids, asks", ErrInvalidArgument)
	}

	return &OrderBookRequest{MarketQuery: market, Limit: limit, Side: side}, nil
}

// NewHistoryRequest crea la request desde los query parameters
func NewHistoryRequest(exchange string, query url.Values) (*HistoryRequest, error) {
	market, err := parseMarket(exchange, query)
	if err != nil {
		return nil, err
	}

	limit, err := parsePositiveInt(query, "limit", DefaultHistoryLimit, MaxHistoryLimit)
	if err != nil {
		return nil, err
	}

	since, err := parseSince(query, false)
	if err != nil {
		return nil, err
	}

	return &HistoryRequest{MarketQuery: market, Limit: limit, Since: since}, nil
}

// NewDetailsRequest crea la request desde los query parameters
func NewDetailsRequest(exchange string, query url.Values) (*DetailsRequest, error) {
	market, err := parseMarket(exchange, query)
	if err != nil {
		return nil, err
	}
	return &DetailsRequest{MarketQuery: market}, nil
}

// NewCandlesRequest crea la request; since es obligatorio
func NewCandlesRequest(exchange string, query url.Values) (*CandlesRequest, error) {
	market, err := parseMarket(exchange, query)
	if err != nil {
		return nil, err
	}

	interval := DefaultCandleInterval
	if _, present := query["interval"]; present {
		parsed, ok := entities.ParseCandleInterval(query.Get("interval"))
		if !ok {
			return nil, fmt.Errorf("%w: interval %q is not supported", ErrInvalidArgument, query.Get("interval"))
		}
		interval = parsed
	}

	since, err := parseSince(query, true)
	if err != nil {
		return nil, err
	}

	limit, err := parsePositiveInt(query, "limit", DefaultCandleLimit, MaxCandleLimit)
	if err != nil {
		return nil, err
	}

	return &CandlesRequest{MarketQuery: market, Interval: interval, Since: since, Limit: limit}, nil
}

func parseMarket(exchange string, query url.Values) (MarketQuery, error) {
	exchange = strings.TrimSpace(exchange)
	if exchange == "" {
		return MarketQuery{}, fmt.Errorf("%w: exchange is required", ErrInvalidArgument)
	}

	base, err := parseAsset(query, "base", DefaultBase)
	if err != nil {
		return MarketQuery{}, err
	}
	quote, err := parseAsset(query, "quote", DefaultQuote)
	if err != nil {
		return MarketQuery{}, err
	}

	if base == quote {
		return MarketQuery{}, fmt.Errorf("%w: base and quote must differ", ErrInvalidArgument)
	}

	return MarketQuery{Exchange: exchange, Base: base, Quote: quote}, nil
}

func parseAsset(query url.Values, name, fallback string) (string, error) {
	if _, present := query[name]; !present {
		return fallback, nil
	}

	value := strings.ToUpper(strings.TrimSpace(query.Get(name)))
	if value == "" {
		return "", fmt.Errorf("%w: %s cannot be empty", ErrInvalidArgument, name)
	}
	for _, r := range value {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", fmt.Errorf("%w: %s must be alphanumeric, got %q", ErrInvalidArgument, name, value)
		}
	}
	return value, nil
}

func parsePositiveInt(query url.Values, name string, fallback, upper int) (int, error) {
	raw := strings.TrimSpace(query.Get(name))
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidArgument, name, raw)
	}
	if value < 1 || value > upper {
		return 0, fmt.Errorf("%w: %s must be between 1 and %d, got %d", ErrInvalidArgument, name, upper, value)
	}
	return value, nil
}

// parseSince lee milisegundos desde epoch
func parseSince(query url.Values, required bool) (time.Time, error) {
	raw := strings.TrimSpace(query.Get("since"))
	if raw == "" {
		if required {
			return time.Time{}, fmt.Errorf("%w: since is required", ErrInvalidArgument)
		}
		return time.Time{}, nil
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms < 0 {
		return time.Time{}, fmt.Errorf("%w: since must be milliseconds since epoch, got %q", ErrInvalidArgument, raw)
	}
	return time.UnixMilli(ms).UTC(), nil
}
