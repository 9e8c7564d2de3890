package handlers

import (
	"net/http"

	"exapi-service/internal/application/dto"
	"exapi-service/internal/domain/interfaces"
)

// HealthHandler maneja los endpoints de health check
type HealthHandler struct {
	sources interfaces.SourceRegistry
}

// NewHealthHandler crea una nueva instancia del health handler
func NewHealthHandler(sources interfaces.SourceRegistry) *HealthHandler {
	return &HealthHandler{
		sources: sources,
	}
}

// Health responde rápido sin consultar dependencias externas
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(r.Context(), w, http.StatusOK, dto.NewHealthResponse())
}

// Ready verifica que haya al menos un exchange registrado
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	names := h.sources.Names()
	if len(names) == 0 {
		writeErrorResponse(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", "no exchanges registered")
		return
	}

	writeJSONResponse(r.Context(), w, http.StatusOK, map[string]interface{}{
		"status":    "ready",
		"exchanges": names,
	})
}
