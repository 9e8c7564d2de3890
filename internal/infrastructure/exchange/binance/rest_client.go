package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"exapi-service/internal/domain/entities"
	"exapi-service/internal/infrastructure/config"
	"exapi-service/internal/infrastructure/governor"
	"exapi-service/internal/infrastructure/logging"
	"exapi-service/internal/infrastructure/metrics"

	"github.com/shopspring/decimal"
)

const (
	BinanceAPIBaseURL = "https://api.binance.com"
	DefaultTimeout    = 10 * time.Second
	Name              = "binance"
	depthEndpoint     = "/api/v3/depth"
	infoEndpoint      = "/api/v3/exchangeInfo"
	tradesEndpoint    = "/api/v3/trades"
	aggTradesEndpoint = "/api/v3/aggTrades"
	klinesEndpoint    = "/api/v3/klines"
)

// validLimits are the depth sizes Binance accepts
var validLimits = []int{5, 10, 20, 50, 100, 500, 1000, 5000}

// DepthResponse is the body of GET /api/v3/depth
type DepthResponse struct {
	LastUpdateID int64       `json:"lastUpdateId"`
	Bids         [][2]string `json:"bids"`
	Asks         [][2]string `json:"asks"`
}

// RestClient fetches public market data from the Binance spot REST API
type RestClient struct {
	baseURL    string
	httpClient *http.Client
	logger     logging.ExternalAPILogger
}

// NewRestClientWithConfig creates a Binance client
func NewRestClientWithConfig(cfg config.BinanceConfig) *RestClient {
	baseURL := cfg.RestURL
	if baseURL == "" {
		baseURL = BinanceAPIBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &RestClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.ExternalAPI(),
	}
}

func (b *RestClient) Name() string {
	return Name
}

// GetOrderBook fetches up to limit levels per side for base/quote
func (b *RestClient) GetOrderBook(ctx context.Context, base, quote string, limit int) (*entities.OrderBook, error) {
	market := entities.NewMarket(Name, base, quote)

	query := url.Values{}
	query.Set("symbol", Symbol(market))
	query.Set("limit", strconv.Itoa(requestLimit(limit)))

	var depth DepthResponse
	if err := b.get(ctx, depthEndpoint, query, &depth); err != nil {
		return nil, err
	}

	bids, err := toPriceLevels(depth.Bids)
	if err != nil {
		return nil, governor.NewCallError(governor.CategoryExchangeError, err)
	}
	asks, err := toPriceLevels(depth.Asks)
	if err != nil {
		return nil, governor.NewCallError(governor.CategoryExchangeError, err)
	}

	return entities.NewOrderBook(market, bids, asks, time.Now()).Truncate(limit), nil
}

// get calls a public endpoint and decodes the JSON body into out.
// Failures come back as governor categories.
func (b *RestClient) get(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	target := b.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return governor.NewCallError(governor.CategoryInvalidOrder, fmt.Errorf("failed to create request: %w", err))
	}

	b.logger.RequestStarted(ctx, Name, endpoint, http.MethodGet)

	start := time.Now()
	resp, err := b.httpClient.Do(req)
	elapsed := time.Since(start)
	durationMs := float64(elapsed.Nanoseconds()) / 1e6

	if err != nil {
		b.logger.RequestFailed(ctx, Name, endpoint, 0, err, durationMs)
		wrapped := fmt.Errorf("%w: %v", ErrConnectionFailed, err)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return governor.NewCallError(governor.CategoryRemoteDisconnected, wrapped)
		}
		return governor.NewCallError(governor.CategoryNetworkError, wrapped)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	metrics.RecordExternalAPICall(Name, endpoint, resp.StatusCode, elapsed.Seconds())

	if resp.StatusCode != http.StatusOK {
		callErr := statusError(resp)
		b.logger.RequestFailed(ctx, Name, endpoint, resp.StatusCode, callErr, durationMs)
		return callErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return governor.NewCallError(governor.CategoryServiceUnavailable,
			fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err))
	}

	b.logger.RequestCompleted(ctx, Name, endpoint, resp.StatusCode, durationMs)
	return nil
}

// Symbol is the Binance market name, e.g. ETHBTC
func Symbol(market entities.Market) string {
	return market.Base + market.Quote
}

func statusError(resp *http.Response) error {
	var apiErr *APIError
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if len(body) > 0 {
		var parsed APIError
		if json.Unmarshal(body, &parsed) == nil && parsed.Code != 0 {
			apiErr = &parsed
		}
	}

	category := classify(resp.StatusCode, apiErr)
	if apiErr != nil {
		return governor.NewCallError(category, fmt.Errorf("%w: HTTP %d: code %d: %w", ErrAPIRequest, resp.StatusCode, apiErr.Code, apiErr))
	}
	return governor.Errorf(category, "%w: HTTP %d", ErrAPIRequest, resp.StatusCode)
}

// requestLimit rounds limit up to the nearest size Binance accepts
func requestLimit(limit int) int {
	for _, l := range validLimits {
		if limit <= l {
			return l
		}
	}
	return validLimits[len(validLimits)-1]
}

func toPriceLevels(levels [][2]string) ([]entities.PriceLevel, error) {
	out := make([]entities.PriceLevel, 0, len(levels))
	for _, l := range levels {
		price, err := decimal.NewFromString(l[0])
		if err != nil {
			return nil, fmt.Errorf("%w: price %q", ErrInvalidResponse, l[0])
		}
		amount, err := decimal.NewFromString(l[1])
		if err != nil {
			return nil, fmt.Errorf("%w: quantity %q", ErrInvalidResponse, l[1])
		}
		out = append(out, entities.PriceLevel{Price: price, Amount: amount})
	}
	return out, nil
}
