package handlers

import (
	"errors"
	"net/http"

	"exapi-service/internal/application/dto"
	"exapi-service/internal/application/services"
	"exapi-service/internal/domain/entities"
	"exapi-service/internal/infrastructure/logging"

	"github.com/gorilla/mux"
)

// GetMarkets maneja GET /{exchange}/markets
// Si el exchange falla se responde una lista vacía.
func (h *MarketHandler) GetMarkets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	exchange := mux.Vars(r)["exchange"]

	markets, err := h.markets.GetMarkets(ctx, exchange)
	switch {
	case errors.Is(err, services.ErrUnknownExchange), errors.Is(err, services.ErrUnsupported):
		h.writeMarketError(w, r, err)
		return
	case err != nil:
		logging.WarnWithError(ctx, "Market listing failed", err, logging.Fields{logging.FieldExchange: exchange})
		markets = []entities.Market{}
	}

	writeJSONResponse(ctx, w, http.StatusOK, h.mapper.ToMarketsResponse(exchange, markets))
}

// GetHistory maneja GET /{exchange}/history?base=&quote=&limit=&since=
func (h *MarketHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	request, err := dto.NewHistoryRequest(mux.Vars(r)["exchange"], r.URL.Query())
	if err != nil {
		writeErrorResponse(ctx, w, http.StatusUnprocessableEntity, "INVALID_PARAMETER", err.Error())
		return
	}

	trades, err := h.markets.GetHistory(ctx, request.Exchange, request.Base, request.Quote, request.Since, request.Limit)
	if err != nil {
		h.writeMarketError(w, r, err)
		return
	}

	market := entities.NewMarket(request.Exchange, request.Base, request.Quote)
	writeJSONResponse(ctx, w, http.StatusOK, h.mapper.ToHistoryResponse(market, trades))
}

// GetDetails maneja GET /{exchange}/details?base=&quote=
func (h *MarketHandler) GetDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	request, err := dto.NewDetailsRequest(mux.Vars(r)["exchange"], r.URL.Query())
	if err != nil {
		writeErrorResponse(ctx, w, http.StatusUnprocessableEntity, "INVALID_PARAMETER", err.Error())
		return
	}

	details, err := h.markets.GetDetails(ctx, request.Exchange, request.Base, request.Quote)
	if err != nil {
		h.writeMarketError(w, r, err)
		return
	}

	writeJSONResponse(ctx, w, http.StatusOK, h.mapper.ToDetailsResponse(details))
}

// GetCandles maneja GET /{exchange}/candles?base=&quote=&interval=&since=&limit=
func (h *MarketHandler) GetCandles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	request, err := dto.NewCandlesRequest(mux.Vars(r)["exchange"], r.URL.Query())
	if err != nil {
		writeErrorResponse(ctx, w, http.StatusUnprocessableEntity, "INVALID_PARAMETER", err.Error())
		return
	}

	candles, err := h.markets.GetCandles(ctx, request.Exchange, request.Base, request.Quote,
		request.Interval, request.Since, request.Limit)
	if err != nil {
		h.writeMarketError(w, r, err)
		return
	}

	market := entities.NewMarket(request.Exchange, request.Base, request.Quote)
	writeJSONResponse(ctx, w, http.StatusOK, h.mapper.ToCandlesResponse(market, request.Interval, candles))
}
