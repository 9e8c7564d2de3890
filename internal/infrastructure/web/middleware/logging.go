package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"exapi-service/internal/infrastructure/logging"
)

// Patrones comunes de ataques en path o query
var suspiciousPatterns = []string{
	"../",
	"<script",
	"select ",
	"union ",
	"drop ",
	"exec(",
	"eval(",
}

// LoggingMiddleware complements RequestTracingMiddleware with debug and
// security logging of the incoming request
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		logging.HTTP().RequestReceived(ctx, r.Method, r.URL.Path, r.UserAgent(), getClientIP(r))

		logging.Debug(ctx, "Processing HTTP request", logging.Fields{
			logging.FieldHeaders: extractImportantHeaders(r),
			logging.FieldQuery:   r.URL.RawQuery,
		})

		if pattern, found := findSuspiciousPattern(r); found {
			logging.Security().SuspiciousActivity(ctx, getClientIP(r), pattern)
		}

		next.ServeHTTP(w, r)
	})
}

// extractImportantHeaders extracts relevant headers for logging
func extractImportantHeaders(r *http.Request) map[string]string {
	headers := make(map[string]string)

	// Sin datos sensibles: nunca la API key
	importantHeaders := []string{
		"Content-Type",
		"Accept",
		"Cache-Control",
		"X-Forwarded-For",
		"X-Real-IP",
	}

	for _, header := range importantHeaders {
		if value := r.Header.Get(header); value != "" {
			headers[header] = value
		}
	}

	return headers
}

// findSuspiciousPattern retorna el primer patrón sospechoso encontrado
func findSuspiciousPattern(r *http.Request) (string, bool) {
	path := strings.ToLower(r.URL.Path)
	query := strings.ToLower(r.URL.RawQuery)
	if decoded, err := url.QueryUnescape(r.URL.RawQuery); err == nil {
		query = strings.ToLower(decoded)
	}

	for _, pattern := range suspiciousPatterns {
		if strings.Contains(path, pattern) || strings.Contains(query, pattern) {
			return strings.TrimSpace(pattern), true
		}
	}

	return "", false
}
