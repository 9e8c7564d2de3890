package kraken

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
)

const (
	KrakenAPIBaseURL = "https://api.kraken.com/0/public"
	DefaultTimeout   = 10 * time.Second
	Name             = "kraken"
	depthEndpoint    = "/Depth"
	pairsEndpoint    = "/AssetPairs"
	tradesEndpoint   = "/Trades"
	ohlcEndpoint     = "/OHLC"
)

// RestClient obtiene datos de mercado de la API pública REST de Kraken.
// No reintenta: los errores se devuelven categorizados para el governor.
type RestClient struct {
	baseURL    string
	httpClient *http.Client
	logger     logging.ExternalAPILogger
}

// NewRestClient crea una nueva instancia del cliente REST de Kraken
func NewRestClient() *RestClient {
	return NewRestClientWithConfig(config.KrakenConfig{RestURL: KrakenAPIBaseURL, Timeout: DefaultTimeout})
}

// NewRestClientWithConfig crea una nueva instancia del cliente REST de Kraken con configuración
func NewRestClientWithConfig(cfg config.KrakenConfig) *RestClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &RestClient{
		baseURL: strings.TrimSuffix(cfg.RestURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logging.ExternalAPI(),
	}
}

// Name retorna el nombre del exchange
func (k *RestClient) Name() string {
	return Name
}

// GetOrderBook obtiene hasta limit niveles por lado para base/quote
func (k *RestClient) GetOrderBook(ctx context.Context, base, quote string, limit int) (*entities.OrderBook, error) {
	market := entities.NewMarket(Name, base, quote)
	pair := ToKrakenPair(market.Base, market.Quote)

	query := url.Values{}
	query.Set("pair", pair)
	if limit > 0 {
		query.Set("count", strconv.Itoa(limit))
	}

	var result map[string]DepthEntry
	if err := k.publicGet(ctx, depthEndpoint, query, &result); err != nil {
		return nil, err
	}

	// Kraken devuelve el par con su nombre canónico, tomamos el primero
	for _, entry := range result {
		bids, err := toPriceLevels(entry.Bids)
		if err != nil {
			return nil, governor.NewCallError(governor.CategoryExchangeError, err)
		}
		asks, err := toPriceLevels(entry.Asks)
		if err != nil {
			return nil, governor.NewCallError(governor.CategoryExchangeError, err)
		}
		return entities.NewOrderBook(market, bids, asks, time.Now()), nil
	}

	return nil, governor.NewCallError(governor.CategoryExchangeError, fmt.Errorf("%w for pair %s", ErrNoDepthData, pair))
}

// publicGet llama a un endpoint público, valida el sobre {error, result}
// y decodifica result en out. Los fallos salen categorizados para el governor.
func (k *RestClient) publicGet(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	target := k.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return governor.NewCallError(governor.CategoryInvalidOrder, fmt.Errorf("failed to create request: %w", err))
	}

	k.logger.RequestStarted(ctx, Name, endpoint, http.MethodGet)

	requestStart := time.Now()
	resp, err := k.httpClient.Do(req)
	requestDuration := time.Since(requestStart)
	durationMs := float64(requestDuration.Nanoseconds()) / 1e6

	if err != nil {
		k.logger.RequestFailed(ctx, Name, endpoint, 0, err, durationMs)
		return transportError(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	metrics.RecordExternalAPICall(Name, endpoint, resp.StatusCode, requestDuration.Seconds())

	if callErr := statusError(resp.StatusCode); callErr != nil {
		k.logger.RequestFailed(ctx, Name, endpoint, resp.StatusCode, callErr, durationMs)
		return callErr
	}

	var envelope Envelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return decodeError(err)
	}

	if len(envelope.Error) > 0 {
		apiErr := fmt.Errorf("%w: %s", ErrAPIRequest, strings.Join(envelope.Error, ", "))
		k.logger.RequestFailed(ctx, Name, endpoint, resp.StatusCode, apiErr, durationMs)
		return governor.NewCallError(classifyAPIErrors(envelope.Error), apiErr)
	}

	if len(envelope.Result) == 0 {
		return governor.NewCallError(governor.CategoryExchangeError, fmt.Errorf("%w: empty result", ErrInvalidResponse))
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return decodeError(err)
	}

	k.logger.RequestCompleted(ctx, Name, endpoint, resp.StatusCode, durationMs)
	return nil
}

func decodeError(err error) error {
	return governor.NewCallError(governor.CategoryServiceUnavailable,
		fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err))
}

// transportError categoriza fallos de red antes de recibir respuesta
func transportError(err error) error {
	wrapped := fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return governor.NewCallError(governor.CategoryRemoteDisconnected, wrapped)
	}
	return governor.NewCallError(governor.CategoryNetworkError, wrapped)
}

// statusError categoriza respuestas HTTP no exitosas
func statusError(status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status >= 500:
		return governor.Errorf(governor.CategoryServiceUnavailable, "%w: HTTP %d (server error)", ErrAPIRequest, status)
	case status == http.StatusTooManyRequests:
		return governor.Errorf(governor.CategoryExchangeNotAvailable, "%w: HTTP %d (rate limited by kraken)", ErrAPIRequest, status)
	default:
		return governor.Errorf(governor.CategoryExchangeError, "%w: HTTP %d (client error)", ErrAPIRequest, status)
	}
}

// assetAliases contiene los activos que Kraken nombra distinto
var assetAliases = map[string]string{
	"BTC":  "XBT",
	"DOGE": "XDG",
}

// ToKrakenPair arma el nombre alternativo del par (ej. XBTUSD)
func ToKrakenPair(base, quote string) string {
	return krakenAsset(base) + krakenAsset(quote)
}

func krakenAsset(asset string) string {
	asset = strings.ToUpper(asset)
	if alias, ok := assetAliases[asset]; ok {
		return alias
	}
	return asset
}

// standardAsset deshace el alias de Kraken (XBT -> BTC)
func standardAsset(asset string) string {
	asset = strings.ToUpper(asset)
	for standard, alias := range assetAliases {
		if alias == asset {
			return standard
		}
	}
	return asset
}
