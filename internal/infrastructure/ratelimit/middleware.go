package ratelimit

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"exapi-service/internal/infrastructure/config"
	"exapi-service/internal/infrastructure/logging"
	"exapi-service/internal/infrastructure/metrics"
	"exapi-service/pkg/utils"
)

// RateLimitMiddleware limits inbound requests per client with a fixed window
type RateLimitMiddleware struct {
	limiter   *WindowCollection
	skipPaths map[string]bool
	enabled   bool
	limit     int
	interval  time.Duration
	logger    logging.SecurityLogger
}

// NewRateLimitMiddlewareWithConfig creates a new rate limiting middleware with configuration
func NewRateLimitMiddlewareWithConfig(rateLimitConfig config.RateLimitConfig, clock utils.Clock) *RateLimitMiddleware {
	// Paths that should skip rate limiting
	skipPaths := map[string]bool{
		"/health":  true,
		"/metrics": true,
	}

	var limiter *WindowCollection
	if rateLimitConfig.Enabled {
		limiter = NewWindowCollection(FixedLimit(rateLimitConfig.Limit, rateLimitConfig.Interval), clock)
	}

	return &RateLimitMiddleware{
		limiter:   limiter,
		skipPaths: skipPaths,
		enabled:   rateLimitConfig.Enabled,
		limit:     rateLimitConfig.Limit,
		interval:  rateLimitConfig.Interval,
		logger:    logging.Security(),
	}
}

// Handler returns the HTTP middleware handler
func (rlm *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rlm.enabled || rlm.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		clientID := getClientID(r)
		window := rlm.limiter.Get(clientID)

		allowed := window.Allow()
		metrics.RecordRateLimitResult(allowed)

		if !allowed {
			rlm.logger.RateLimitExceeded(r.Context(), clientID, r.URL.Path)
			rlm.writeRateLimitError(w, window)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(window.State().Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(window.Remaining()))

		next.ServeHTTP(w, r)
	})
}

// getClientID extracts a client identifier from the request
// This is used as the key for rate limiting windows
func getClientID(r *http.Request) string {
	// Try to get real IP from headers (reverse proxy/load balancer)
	if xForwardedFor := r.Header.Get("X-Forwarded-For"); xForwardedFor != "" {
		// X-Forwarded-For can contain multiple IPs, take the first one
		parts := strings.Split(xForwardedFor, ",")
		return strings.TrimSpace(parts[0])
	}

	if xRealIP := r.Header.Get("X-Real-IP"); xRealIP != "" {
		return xRealIP
	}

	remoteAddr := r.RemoteAddr
	if idx := strings.LastIndex(remoteAddr, ":"); idx != -1 {
		return remoteAddr[:idx]
	}

	return remoteAddr
}

// writeRateLimitError writes a rate limit exceeded error response
func (rlm *RateLimitMiddleware) writeRateLimitError(w http.ResponseWriter, window *RateWindow) {
	retryAfter := int(math.Ceil(window.RetryAfter().Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.WriteHeader(http.StatusTooManyRequests)

	errorResponse := map[string]interface{}{
		"error":   "RATE_LIMIT_EXCEEDED",
		"message": "Rate limit exceeded. Please slow down your requests.",
		"code":    http.StatusTooManyRequests,
		"details": map[string]interface{}{
			"retry_after_seconds": retryAfter,
		},
	}

	json.NewEncoder(w).Encode(errorResponse)
}

// Stats describes the inbound limiter for /api/v1/governor
type Stats struct {
	Enabled        bool
	Limit          int
	Interval       time.Duration
	TrackedClients int
}

// Stats returns rate limiting statistics
func (rlm *RateLimitMiddleware) Stats() Stats {
	stats := Stats{Enabled: rlm.enabled, Limit: rlm.limit, Interval: rlm.interval}
	if rlm.limiter != nil {
		stats.TrackedClients = rlm.limiter.Len()
	}
	return stats
}
