package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the exapi service
var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exapi_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exapi_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	HTTPResponseSizeBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exapi_http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000},
		},
		[]string{"method", "path"},
	)

	// Governor Metrics
	GovernorCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exapi_governor_calls_total",
			Help: "Total number of governed exchange calls by final outcome",
		},
		[]string{"exchange", "outcome"}, // outcome: success/not_found/<terminal kind>
	)

	GovernorAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exapi_governor_attempts_total",
			Help: "Total number of upstream invocations made by the governor",
		},
		[]string{"exchange"},
	)

	GovernorRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exapi_governor_retries_total",
			Help: "Total number of retries scheduled after transient failures",
		},
		[]string{"exchange", "category"},
	)

	GovernorThrottleWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exapi_governor_throttle_wait_seconds",
			Help:    "Time spent waiting for a request window to reset",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60},
		},
		[]string{"exchange"},
	)

	// External API Metrics
	ExternalAPIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exapi_external_api_requests_total",
			Help: "Total number of external API requests",
		},
		[]string{"service", "endpoint", "status_code"},
	)

	ExternalAPIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exapi_external_api_request_duration_seconds",
			Help:    "External API request duration in seconds",
			Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0}, // External APIs can be slower
		},
		[]string{"service", "endpoint"},
	)

	// Price cache Metrics
	PriceLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exapi_price_lookups_total",
			Help: "Total number of mid price lookups by result",
		},
		[]string{"exchange", "result"}, // result: hit/refreshed/stale/unavailable
	)

	PriceRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exapi_price_refreshes_total",
			Help: "Total number of mid price refresh attempts",
		},
		[]string{"exchange", "result"}, // result: success/error
	)

	CachedPrices = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "exapi_cached_prices",
			Help: "Number of market keys currently held by the price cache",
		},
	)

	// Rate Limiting Metrics
	RateLimitRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exapi_rate_limit_requests_total",
			Help: "Total number of requests processed by the inbound rate limiter",
		},
		[]string{"result"}, // result: allowed/blocked
	)

	// Application Metrics
	ApplicationInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "exapi_application_info",
			Help: "Application information",
		},
		[]string{"version", "go_version"},
	)
)

// Helper functions for common metric operations

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, path string, statusCode int, duration float64, responseSize int64) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)

	if responseSize > 0 {
		HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}

// RecordGovernorCall records the final outcome of one governed call and how many attempts it used
func RecordGovernorCall(exchange, outcome string, attempts int) {
	GovernorCallsTotal.WithLabelValues(exchange, outcome).Inc()
	GovernorAttemptsTotal.WithLabelValues(exchange).Add(float64(attempts))
}

// RecordGovernorRetry records a retry scheduled after a transient failure
func RecordGovernorRetry(exchange, category string) {
	GovernorRetriesTotal.WithLabelValues(exchange, category).Inc()
}

// RecordThrottleWait records time blocked on a full request window
func RecordThrottleWait(exchange string, seconds float64) {
	GovernorThrottleWait.WithLabelValues(exchange).Observe(seconds)
}

// RecordExternalAPICall records external API call metrics
func RecordExternalAPICall(service, endpoint string, statusCode int, duration float64) {
	ExternalAPIRequestsTotal.WithLabelValues(service, endpoint, strconv.Itoa(statusCode)).Inc()
	ExternalAPIRequestDuration.WithLabelValues(service, endpoint).Observe(duration)
}

// RecordPriceLookup records how a mid price lookup was served
func RecordPriceLookup(exchange, result string) {
	PriceLookupsTotal.WithLabelValues(exchange, result).Inc()
}

// RecordPriceRefresh records a single refresh attempt
func RecordPriceRefresh(exchange string, success bool) {
	result := "error"
	if success {
		result = "success"
	}
	PriceRefreshesTotal.WithLabelValues(exchange, result).Inc()
}

// UpdateCachedPrices sets the number of cached market keys
func UpdateCachedPrices(count int) {
	CachedPrices.Set(float64(count))
}

// RecordRateLimitResult records rate limiting results
func RecordRateLimitResult(allowed bool) {
	result := "blocked"
	if allowed {
		result = "allowed"
	}
	RateLimitRequestsTotal.WithLabelValues(result).Inc()
}

// SetApplicationInfo sets application information
func SetApplicationInfo(version, goVersion string) {
	ApplicationInfo.WithLabelValues(version, goVersion).Set(1)
}
