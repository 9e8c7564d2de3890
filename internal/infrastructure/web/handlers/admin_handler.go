package handlers

import (
	"net/http"

	"exapi-service/internal/application/dto"
	"exapi-service/internal/domain/interfaces"
	"exapi-service/internal/infrastructure/ratelimit"
)

// GovernorInspector exposes the governor state for diagnostics
type GovernorInspector interface {
	MaxAttempts() int
	Windows() map[string]ratelimit.WindowState
}

// InboundInspector exposes the inbound rate limiter state
type InboundInspector interface {
	Stats() ratelimit.Stats
}

// AdminHandler sirve endpoints de diagnóstico bajo /api/v1
type AdminHandler struct {
	prices   interfaces.PriceService
	governor GovernorInspector
	inbound  InboundInspector
	mapper   *dto.PriceMapper
}

// NewAdminHandler crea el handler de diagnóstico
func NewAdminHandler(prices interfaces.PriceService, governor GovernorInspector, inbound InboundInspector) *AdminHandler {
	return &AdminHandler{
		prices:   prices,
		governor: governor,
		inbound:  inbound,
		mapper:   dto.NewPriceMapper(),
	}
}

// GetCachedPrices maneja GET /api/v1/cache
func (h *AdminHandler) GetCachedPrices(w http.ResponseWriter, r *http.Request) {
	cached := h.prices.CachedPrices(r.Context())
	writeJSONResponse(r.Context(), w, http.StatusOK, h.mapper.ToCachedPricesResponse(cached))
}

// GetGovernorState maneja GET /api/v1/governor
func (h *AdminHandler) GetGovernorState(w http.ResponseWriter, r *http.Request) {
	resp := h.mapper.ToGovernorResponse(h.governor.MaxAttempts(), h.governor.Windows(), h.inbound.Stats())
	writeJSONResponse(r.Context(), w, http.StatusOK, resp)
}
