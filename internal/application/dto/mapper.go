package dto

import (
	"sort"

	"exapi-service/internal/domain/entities"
	"exapi-service/internal/infrastructure/ratelimit"

	"github.com/shopspring/decimal"
)

// PriceMapper maneja la conversión entre entidades del dominio y DTOs
type PriceMapper struct{}

// NewPriceMapper crea una nueva instancia del mapper
func NewPriceMapper() *PriceMapper {
	return &PriceMapper{}
}

// ToMidPriceResponse convierte un precio medio a DTO de respuesta
func (m *PriceMapper) ToMidPriceResponse(price entities.MidPrice) *MidPriceResponse {
	asFloat := price.Value.InexactFloat64()
	return &MidPriceResponse{
		Success:    true,
		PriceStr:   price.Value.String(),
		PriceFloat: &asFloat,
		Stale:      price.Stale,
	}
}

// ToMidPriceError construye la respuesta de fallo del precio medio
func (m *PriceMapper) ToMidPriceError(err error) *MidPriceResponse {
	return &MidPriceResponse{Success: false, Error: err.Error()}
}

// ToOrderBookResponse convierte un libro de órdenes a DTO
func (m *PriceMapper) ToOrderBookResponse(book *entities.OrderBook) *OrderBookResponse {
	return &OrderBookResponse{
		Exchange:  book.Market.Exchange,
		Symbol:    book.Market.Symbol(),
		Bids:      toLevelData(book.Bids),
		Asks:      toLevelData(book.Asks),
		Timestamp: book.Timestamp,
	}
}

func toLevelData(levels []entities.PriceLevel) []LevelData {
	if levels == nil {
		return nil
	}
	out := make([]LevelData, len(levels))
	for i, level := range levels {
		out[i] = LevelData{Price: level.Price.String(), Amount: level.Amount.String()}
	}
	return out
}

// ToMarketsResponse lista los símbolos BASE/QUOTE en el orden recibido
func (m *PriceMapper) ToMarketsResponse(exchange string, markets []entities.Market) *MarketsResponse {
	symbols := make([]string, len(markets))
	for i, market := range markets {
		symbols[i] = market.Symbol()
	}
	return &MarketsResponse{Exchange: exchange, Count: len(symbols), Markets: symbols}
}

// ToHistoryResponse convierte operaciones públicas a DTO
func (m *PriceMapper) ToHistoryResponse(market entities.Market, trades []entities.Trade) *HistoryResponse {
	data := make([]TradeData, len(trades))
	for i, trade := range trades {
		data[i] = TradeData{
			ID:        trade.ID,
			Price:     trade.Price.String(),
			Amount:    trade.Amount.String(),
			Side:      string(trade.Side),
			Timestamp: trade.Timestamp,
		}
	}
	return &HistoryResponse{Exchange: market.Exchange, Symbol: market.Symbol(), Count: len(data), Trades: data}
}

// ToDetailsResponse convierte los límites del mercado a DTO
func (m *PriceMapper) ToDetailsResponse(details *entities.MarketDetails) *DetailsResponse {
	return &DetailsResponse{
		Exchange:        details.Market.Exchange,
		Symbol:          details.Market.Symbol(),
		MinAmount:       details.MinAmount.String(),
		MaxAmount:       optionalString(details.MaxAmount),
		MinPrice:        details.MinPrice.String(),
		MaxPrice:        optionalString(details.MaxPrice),
		MinValue:        details.MinValue.String(),
		AmountPrecision: details.AmountPrecision,
		PricePrecision:  details.PricePrecision,
	}
}

// ToCandlesResponse convierte velas a DTO
func (m *PriceMapper) ToCandlesResponse(market entities.Market, interval entities.CandleInterval, candles []entities.Candle) *CandlesResponse {
	data := make([]CandleData, len(candles))
	for i, c := range candles {
		data[i] = CandleData{
			Timestamp: c.Timestamp,
			Open:      c.Open.String(),
			High:      c.High.String(),
			Low:       c.Low.String(),
			Close:     c.Close.String(),
			Volume:    c.Volume.String(),
		}
	}
	return &CandlesResponse{
		Exchange: market.Exchange,
		Symbol:   market.Symbol(),
		Interval: string(interval),
		Count:    len(data),
		Candles:  data,
	}
}

func optionalString(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

// ToCachedPricesResponse convierte el snapshot del cache, ordenado por clave
func (m *PriceMapper) ToCachedPricesResponse(prices []entities.MidPrice) *CachedPricesResponse {
	data := make([]CachedPriceData, len(prices))
	for i, price := range prices {
		data[i] = CachedPriceData{
			Key:       price.Market.Key(),
			Exchange:  price.Market.Exchange,
			Symbol:    price.Market.Symbol(),
			Price:     price.Value.String(),
			FetchedAt: price.FetchedAt,
			ExpiresAt: price.ExpiresAt,
			Stale:     price.Stale,
		}
	}

	sort.Slice(data, func(i, j int) bool {
		return data[i].Key < data[j].Key
	})

	return &CachedPricesResponse{Count: len(data), Prices: data}
}

// ToGovernorResponse describe las ventanas de throttling por identidad
// y el limitador de entrada
func (m *PriceMapper) ToGovernorResponse(maxAttempts int, windows map[string]ratelimit.WindowState, inbound ratelimit.Stats) *GovernorResponse {
	data := make([]WindowData, 0, len(windows))
	for identity, state := range windows {
		data = append(data, WindowData{
			Identity:     identity,
			RequestCount: state.Count,
			Limit:        state.Limit,
			WindowEnd:    state.WindowEnd,
		})
	}

	sort.Slice(data, func(i, j int) bool {
		return data[i].Identity < data[j].Identity
	})

	return &GovernorResponse{
		MaxAttempts: maxAttempts,
		Windows:     data,
		Inbound: InboundLimitData{
			Enabled:         inbound.Enabled,
			Limit:           inbound.Limit,
			IntervalSeconds: int(inbound.Interval.Seconds()),
			TrackedClients:  inbound.TrackedClients,
		},
	}
}
