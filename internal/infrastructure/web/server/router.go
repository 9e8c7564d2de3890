package server

import (
	"net/http"

	"exapi-service/internal/domain/interfaces"
	"exapi-service/internal/infrastructure/config"
	"exapi-service/internal/infrastructure/metrics"
	"exapi-service/internal/infrastructure/ratelimit"
	"exapi-service/internal/infrastructure/web/handlers"
	"exapi-service/internal/infrastructure/web/middleware"
	"exapi-service/pkg/utils"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies agrupa lo que el router necesita para montar los handlers
type Dependencies struct {
	Config   *config.Config
	Prices   interfaces.PriceService
	Markets  interfaces.MarketService
	Sources  interfaces.SourceRegistry
	Governor handlers.GovernorInspector
	Clock    utils.Clock
}

// NewRouter builds the REST facade. Middleware wraps the whole router so
// unmatched routes are traced and counted too.
func NewRouter(deps Dependencies) http.Handler {
	health := handlers.NewHealthHandler(deps.Sources)
	market := handlers.NewMarketHandler(deps.Prices, deps.Markets)

	clock := deps.Clock
	if clock == nil {
		clock = utils.SystemClock{}
	}
	rateLimiter := ratelimit.NewRateLimitMiddlewareWithConfig(deps.Config.RateLimit, clock)
	auth := middleware.NewAuthMiddleware(deps.Config.Auth)

	admin := handlers.NewAdminHandler(deps.Prices, deps.Governor, rateLimiter)

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(handlers.NotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(handlers.MethodNotAllowed)

	router.HandleFunc("/health", health.Health).Methods(http.MethodGet)
	router.HandleFunc("/ready", health.Ready).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/cache", admin.GetCachedPrices).Methods(http.MethodGet)
	api.HandleFunc("/governor", admin.GetGovernorState).Methods(http.MethodGet)

	router.HandleFunc("/{exchange}/midprice", market.GetMidPrice).Methods(http.MethodGet)
	router.HandleFunc("/{exchange}/orderbook", market.GetOrderBook).Methods(http.MethodGet)
	router.HandleFunc("/{exchange}/markets", market.GetMarkets).Methods(http.MethodGet)
	router.HandleFunc("/{exchange}/history", market.GetHistory).Methods(http.MethodGet)
	router.HandleFunc("/{exchange}/details", market.GetDetails).Methods(http.MethodGet)
	router.HandleFunc("/{exchange}/candles", market.GetCandles).Methods(http.MethodGet)

	// El primero de la lista es el más externo
	return chain(router,
		middleware.RequestTracingMiddleware,
		middleware.LoggingMiddleware,
		metrics.HTTPMetricsMiddleware,
		rateLimiter.Handler,
		auth.Handler,
	)
}

func chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
