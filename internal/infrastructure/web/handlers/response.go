package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"exapi-service/internal/application/dto"
	"exapi-service/internal/infrastructure/logging"
)

// writeJSONResponse writes a JSON response preserving the request context for logs
func writeJSONResponse(ctx context.Context, w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.ErrorWithError(ctx, "Failed to encode JSON response", err, logging.Fields{
			logging.FieldStatusCode: statusCode,
		})
	}
}

// writeErrorResponse writes an error response
func writeErrorResponse(ctx context.Context, w http.ResponseWriter, statusCode int, errorCode, message string) {
	writeJSONResponse(ctx, w, statusCode, dto.NewErrorResponse(errorCode, message))
}

// NotFound answers unmatched routes with a JSON body
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeErrorResponse(r.Context(), w, http.StatusNotFound, "NOT_FOUND", "route not found: "+r.URL.Path)
}

// MethodNotAllowed answers routes matched with the wrong method
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeErrorResponse(r.Context(), w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", r.Method+" not allowed on "+r.URL.Path)
}
