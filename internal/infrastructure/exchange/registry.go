package exchange

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"exapi-service/internal/domain/interfaces"
	"exapi-service/internal/infrastructure/config"
	"exapi-service/internal/infrastructure/exchange/binance"
	"exapi-service/internal/infrastructure/exchange/kraken"
)

// Capacidades de cada fuente; el servicio de mercado las detecta en runtime
var (
	_ interfaces.MarketLister  = (*kraken.RestClient)(nil)
	_ interfaces.TradeSource   = (*kraken.RestClient)(nil)
	_ interfaces.DetailsSource = (*kraken.RestClient)(nil)
	_ interfaces.CandleSource  = (*kraken.RestClient)(nil)
	_ interfaces.MarketLister  = (*binance.RestClient)(nil)
	_ interfaces.TradeSource   = (*binance.RestClient)(nil)
	_ interfaces.DetailsSource = (*binance.RestClient)(nil)
	_ interfaces.CandleSource  = (*binance.RestClient)(nil)
	_ interfaces.MarketLister  = (*MockExchange)(nil)
	_ interfaces.TradeSource   = (*MockExchange)(nil)
	_ interfaces.DetailsSource = (*MockExchange)(nil)
)

// Registry resolves exchange names to order book sources, case-insensitively
type Registry struct {
	mu      sync.RWMutex
	sources map[string]interfaces.OrderBookSource
}

// NewRegistry creates a registry holding the given sources
func NewRegistry(sources ...interfaces.OrderBookSource) *Registry {
	r := &Registry{sources: make(map[string]interfaces.OrderBookSource)}
	for _, s := range sources {
		r.Register(s)
	}
	return r
}

// NewRegistryFromConfig builds the enabled sources. Mock mode always adds the mock exchange.
func NewRegistryFromConfig(cfg *config.Config) (*Registry, error) {
	r := NewRegistry()

	for _, name := range cfg.Exchanges.Enabled {
		switch strings.ToLower(name) {
		case kraken.Name:
			r.Register(kraken.NewRestClientWithConfig(cfg.Exchanges.Kraken))
		case binance.Name:
			r.Register(binance.NewRestClientWithConfig(cfg.Exchanges.Binance))
		case MockName:
			r.Register(NewMockExchange())
		default:
			return nil, fmt.Errorf("unknown exchange: %s", name)
		}
	}

	if cfg.Development.MockMode {
		if _, ok := r.Get(MockName); !ok {
			r.Register(NewMockExchange())
		}
	}

	return r, nil
}

// Register adds or replaces a source
func (r *Registry) Register(source interfaces.OrderBookSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[strings.ToLower(source.Name())] = source
}

// Get looks up a source by name
func (r *Registry) Get(name string) (interfaces.OrderBookSource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	source, ok := r.sources[strings.ToLower(strings.TrimSpace(name))]
	return source, ok
}

// Names returns the registered names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
