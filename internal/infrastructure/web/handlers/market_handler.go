package handlers

import (
	"errors"
	"net/http"

	"exapi-service/internal/application/dto"
	"exapi-service/internal/application/services"
	"exapi-service/internal/domain/interfaces"
	"exapi-service/internal/infrastructure/governor"
	"exapi-service/internal/infrastructure/logging"

	"github.com/gorilla/mux"
)

// MarketHandler handles the per-exchange market data endpoints
type MarketHandler struct {
	prices  interfaces.PriceService
	markets interfaces.MarketService
	mapper  *dto.PriceMapper
}

// NewMarketHandler creates a new instance of the market handler
func NewMarketHandler(prices interfaces.PriceService, markets interfaces.MarketService) *MarketHandler {
	return &MarketHandler{
		prices:  prices,
		markets: markets,
		mapper:  dto.NewPriceMapper(),
	}
}

// GetMidPrice maneja GET /{exchange}/midprice?base=ETH&quote=BTC
// Un precio no disponible responde 200 con success=false.
func (h *MarketHandler) GetMidPrice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	request, err := dto.NewMidPriceRequest(mux.Vars(r)["exchange"], r.URL.Query())
	if err != nil {
		writeErrorResponse(ctx, w, http.StatusUnprocessableEntity, "INVALID_PARAMETER", err.Error())
		return
	}

	price, err := h.prices.Lookup(ctx, request.Exchange, request.Base, request.Quote, request.Depth)
	switch {
	case errors.Is(err, services.ErrUnknownExchange):
		writeErrorResponse(ctx, w, http.StatusNotFound, "UNKNOWN_EXCHANGE", err.Error())
	case err != nil:
		logging.WarnWithError(ctx, "Mid price lookup failed", err,
			logging.NewFieldBuilder().WithMarket(request.Exchange, request.Base, request.Quote).Build())
		writeJSONResponse(ctx, w, http.StatusOK, h.mapper.ToMidPriceError(err))
	default:
		writeJSONResponse(ctx, w, http.StatusOK, h.mapper.ToMidPriceResponse(price))
	}
}

// GetOrderBook maneja GET /{exchange}/orderbook?base=&quote=&limit=&side=
func (h *MarketHandler) GetOrderBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	request, err := dto.NewOrderBookRequest(mux.Vars(r)["exchange"], r.URL.Query())
	if err != nil {
		writeErrorResponse(ctx, w, http.StatusUnprocessableEntity, "INVALID_PARAMETER", err.Error())
		return
	}

	book, err := h.markets.GetOrderBook(ctx, request.Exchange, request.Base, request.Quote, request.Limit, request.Side)
	if err != nil {
		h.writeMarketError(w, r, err)
		return
	}
	if book == nil {
		writeErrorResponse(ctx, w, http.StatusNotFound, governor.KindNotFound.String(), "orderbook not found")
		return
	}

	writeJSONResponse(ctx, w, http.StatusOK, h.mapper.ToOrderBookResponse(book))
}

// writeMarketError mapea el error terminal del governor a su código HTTP
func (h *MarketHandler) writeMarketError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	switch {
	case errors.Is(err, services.ErrUnknownExchange):
		writeErrorResponse(ctx, w, http.StatusNotFound, "UNKNOWN_EXCHANGE", err.Error())
		return
	case errors.Is(err, services.ErrUnsupported):
		writeErrorResponse(ctx, w, http.StatusNotFound, "UNSUPPORTED", err.Error())
		return
	case errors.Is(err, services.ErrNotFound):
		writeErrorResponse(ctx, w, http.StatusNotFound, governor.KindNotFound.String(), err.Error())
		return
	}

	kind := governor.KindOf(err)
	status := kind.HTTPStatus()

	logging.WarnWithError(ctx, "Market data request failed", err, logging.Fields{
		logging.FieldKind:       kind.String(),
		logging.FieldStatusCode: status,
	})

	writeErrorResponse(ctx, w, status, kind.String(), err.Error())
}
