package exchange

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"exapi-service/internal/domain/entities"
	"exapi-service/internal/infrastructure/governor"
	"exapi-service/internal/infrastructure/logging"

	"github.com/shopspring/decimal"
)

// MockName es el nombre con el que se registra el exchange simulado
const MockName = "mock"

// MockExchange implementa OrderBookSource, MarketLister, TradeSource y
// DetailsSource para testing y development. No ofrece velas.
// Genera libros deterministas alrededor de un precio base y permite
// inyectar fallos categorizados.
type MockExchange struct {
	mu         sync.Mutex
	basePrices map[string]decimal.Decimal // Precio medio por BASE/QUOTE
	spread     decimal.Decimal            // Distancia entre niveles como fracción del precio
	failures   []error                    // Errores a devolver en las próximas llamadas
	calls      int
}

// NewMockExchange crea una nueva instancia del mock exchange
func NewMockExchange() *MockExchange {
	return &MockExchange{
		basePrices: map[string]decimal.Decimal{
			"BTC/USD":  decimal.NewFromInt(65000),
			"ETH/USD":  decimal.NewFromInt(3200),
			"ETH/BTC":  decimal.RequireFromString("0.0492"),
			"LTC/USD":  decimal.NewFromInt(95),
			"XRP/USD":  decimal.RequireFromString("0.52"),
			"BTC/EUR":  decimal.NewFromInt(59500),
			"BTC/USDT": decimal.NewFromInt(65010),
		},
		spread: decimal.RequireFromString("0.0005"),
	}
}

// Name retorna el nombre del exchange
func (m *MockExchange) Name() string {
	return MockName
}

// GetOrderBook retorna un libro simétrico de limit niveles por lado
func (m *MockExchange) GetOrderBook(ctx context.Context, base, quote string, limit int) (*entities.OrderBook, error) {
	market := entities.NewMarket(MockName, base, quote)

	mid, spread, err := m.next(ctx, market)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 10
	}

	step := mid.Mul(spread)
	amount := decimal.NewFromInt(1)
	bids := make([]entities.PriceLevel, 0, limit)
	asks := make([]entities.PriceLevel, 0, limit)
	for i := 1; i <= limit; i++ {
		offset := step.Mul(decimal.NewFromInt(int64(i)))
		bids = append(bids, entities.PriceLevel{Price: mid.Sub(offset), Amount: amount})
		asks = append(asks, entities.PriceLevel{Price: mid.Add(offset), Amount: amount})
	}

	return entities.NewOrderBook(market, bids, asks, time.Now()), nil
}

// GetMarkets retorna los pares configurados
func (m *MockExchange) GetMarkets(ctx context.Context) ([]entities.Market, error) {
	if err := m.consume(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	markets := make([]entities.Market, 0, len(m.basePrices))
	for pair := range m.basePrices {
		base, quote, _ := strings.Cut(pair, "/")
		markets = append(markets, entities.NewMarket(MockName, base, quote))
	}
	return markets, nil
}

// GetTrades genera limit operaciones alternando compra y venta, una por segundo
// desde since (o hacia atrás desde ahora si since es cero)
func (m *MockExchange) GetTrades(ctx context.Context, base, quote string, since time.Time, limit int) ([]entities.Trade, error) {
	market := entities.NewMarket(MockName, base, quote)

	mid, spread, err := m.next(ctx, market)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 10
	}
	start := since
	if start.IsZero() {
		start = time.Now().Add(-time.Duration(limit) * time.Second)
	}

	trades := make([]entities.Trade, 0, limit)
	for i := 0; i < limit; i++ {
		trade := entities.Trade{
			ID:        fmt.Sprintf("mock-%d", i+1),
			Price:     mid.Add(mid.Mul(spread)),
			Amount:    decimal.RequireFromString("0.5"),
			Side:      entities.TradeBuy,
			Timestamp: start.Add(time.Duration(i) * time.Second).UTC(),
		}
		if i%2 == 1 {
			trade.Price = mid.Sub(mid.Mul(spread))
			trade.Side = entities.TradeSell
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

// GetMarketDetails retorna límites fijos para cualquier par soportado
func (m *MockExchange) GetMarketDetails(ctx context.Context, base, quote string) (*entities.MarketDetails, error) {
	market := entities.NewMarket(MockName, base, quote)

	if _, _, err := m.next(ctx, market); err != nil {
		return nil, err
	}

	return &entities.MarketDetails{
		Market:          market,
		MinAmount:       decimal.RequireFromString("0.0001"),
		MinPrice:        decimal.RequireFromString("0.00000001"),
		AmountPrecision: 8,
		PricePrecision:  8,
	}, nil
}

// next cuenta la llamada, devuelve un fallo inyectado si lo hay y
// el precio base del mercado
func (m *MockExchange) next(ctx context.Context, market entities.Market) (decimal.Decimal, decimal.Decimal, error) {
	if err := m.consume(ctx); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	m.mu.Lock()
	mid, exists := m.basePrices[market.Symbol()]
	spread := m.spread
	m.mu.Unlock()

	if !exists {
		return decimal.Zero, decimal.Zero, governor.Errorf(governor.CategoryExchangeError, "unsupported trading pair: %s", market.Symbol())
	}
	return mid, spread, nil
}

// consume cuenta la llamada y saca el próximo fallo inyectado
func (m *MockExchange) consume(ctx context.Context) error {
	m.mu.Lock()
	m.calls++
	var injected error
	if len(m.failures) > 0 {
		injected = m.failures[0]
		m.failures = m.failures[1:]
	}
	m.mu.Unlock()

	if injected != nil {
		logging.Debug(ctx, "MockExchange: returning injected failure", logging.Fields{
			logging.FieldExchange: MockName,
			logging.FieldError:    injected.Error(),
		})
	}
	return injected
}

// SetPrice agrega o reemplaza el precio medio de un par (útil para testing)
func (m *MockExchange) SetPrice(base, quote string, price decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.basePrices[strings.ToUpper(base)+"/"+strings.ToUpper(quote)] = price
}

// FailNext hace que las próximas llamadas fallen con los errores dados, en orden
func (m *MockExchange) FailNext(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, errs...)
}

// Calls retorna cuántas veces se pidió un libro
func (m *MockExchange) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// GetSupportedPairs retorna todos los pares soportados por el mock
func (m *MockExchange) GetSupportedPairs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	pairs := make([]string, 0, len(m.basePrices))
	for pair := range m.basePrices {
		pairs = append(pairs, pair)
	}
	return pairs
}

func (m *MockExchange) String() string {
	return fmt.Sprintf("MockExchange(%d pairs)", len(m.GetSupportedPairs()))
}
