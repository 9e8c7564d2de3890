package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"exapi-service/internal/infrastructure/config"
	"exapi-service/internal/infrastructure/logging"
)

// AuthMiddleware provides API key authentication for protected prefixes
type AuthMiddleware struct {
	config config.AuthConfig
	logger logging.SecurityLogger
}

// NewAuthMiddleware creates a new auth middleware instance
func NewAuthMiddleware(config config.AuthConfig) *AuthMiddleware {
	return &AuthMiddleware{
		config: config,
		logger: logging.Security(),
	}
}

// AuthResponse represents the authentication error response
type AuthResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Handler wraps the given handler with API key authentication
func (am *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !am.config.Enabled || !am.isProtectedPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := r.Header.Get(am.config.HeaderName)
		if apiKey == "" {
			am.respondWithAuthError(w, r, "API key missing", "API_KEY_MISSING")
			return
		}

		if !am.isValidAPIKey(apiKey) {
			am.respondWithAuthError(w, r, "Invalid API key", "API_KEY_INVALID")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// isProtectedPath verifica si la ruta requiere autenticación
func (am *AuthMiddleware) isProtectedPath(path string) bool {
	for _, prefix := range am.config.ProtectedPrefix {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// isValidAPIKey compara en tiempo constante
func (am *AuthMiddleware) isValidAPIKey(providedKey string) bool {
	return subtle.ConstantTimeCompare([]byte(providedKey), []byte(am.config.APIKey)) == 1
}

// respondWithAuthError envía una respuesta de error de autenticación
func (am *AuthMiddleware) respondWithAuthError(w http.ResponseWriter, r *http.Request, message, code string) {
	am.logger.AuthenticationFailed(r.Context(), getClientIP(r), code)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `ApiKey realm="api"`)
	w.WriteHeader(http.StatusUnauthorized)

	response := AuthResponse{
		Error:   "Authentication Failed",
		Message: message,
		Code:    code,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.ErrorWithError(r.Context(), "Error encoding auth error response", err, nil)
	}
}
