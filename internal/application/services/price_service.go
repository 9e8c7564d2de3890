package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"exapi-service/internal/domain/entities"
	"exapi-service/internal/domain/interfaces"
	"exapi-service/internal/infrastructure/config"
	"exapi-service/internal/infrastructure/governor"
	"exapi-service/internal/infrastructure/logging"
	"exapi-service/internal/infrastructure/metrics"
	"exapi-service/pkg/utils"

	"github.com/shopspring/decimal"
)

const (
	DefaultCacheTTL        = 60 * time.Second
	DefaultRefreshAttempts = 2
	DefaultGracePeriod     = 5 * time.Second
	DefaultDepth           = 10
)

// PriceCacheConfig controls expiry and refresh behaviour
type PriceCacheConfig struct {
	TTL             time.Duration
	RefreshAttempts int
	GracePeriod     time.Duration
	// MaxStaleness caps the age of a stale fallback; zero means no cap
	MaxStaleness time.Duration
	DefaultDepth int
}

// PriceCacheConfigFrom builds the cache settings from the application config
func PriceCacheConfigFrom(cfg config.CacheConfig) PriceCacheConfig {
	return PriceCacheConfig{
		TTL:             cfg.TTL,
		RefreshAttempts: cfg.RefreshAttempts,
		GracePeriod:     cfg.GracePeriod,
		MaxStaleness:    cfg.MaxStaleness,
		DefaultDepth:    cfg.DefaultDepth,
	}
}

// PriceCache implements PriceService: mid prices per (exchange, quote, base)
// with a TTL, one refresh at a time per key, and stale fallback on failure.
type PriceCache struct {
	cfg      PriceCacheConfig
	sources  interfaces.SourceRegistry
	governor *governor.Governor
	store    interfaces.PriceStore
	locks    sync.Map // market key -> *sync.Mutex
	clock    utils.Clock
	logger   logging.CacheLogger
}

// NewPriceCache creates a new price cache
func NewPriceCache(cfg PriceCacheConfig, sources interfaces.SourceRegistry, gov *governor.Governor,
	store interfaces.PriceStore, clock utils.Clock, logger logging.CacheLogger) *PriceCache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCacheTTL
	}
	if cfg.RefreshAttempts < 1 {
		cfg.RefreshAttempts = DefaultRefreshAttempts
	}
	if cfg.GracePeriod < 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}
	if cfg.DefaultDepth <= 0 {
		cfg.DefaultDepth = DefaultDepth
	}
	if clock == nil {
		clock = utils.SystemClock{}
	}
	if logger == nil {
		logger = logging.Cache()
	}

	return &PriceCache{
		cfg:      cfg,
		sources:  sources,
		governor: gov,
		store:    store,
		clock:    clock,
		logger:   logger,
	}
}

var _ interfaces.PriceService = (*PriceCache)(nil)

// GetPrice returns the mid price for base/quote on exchange
func (c *PriceCache) GetPrice(ctx context.Context, exchange, base, quote string, depth int) (decimal.Decimal, error) {
	price, err := c.Lookup(ctx, exchange, base, quote, depth)
	if err != nil {
		return decimal.Zero, err
	}
	return price.Value, nil
}

// Lookup returns the cached mid price, refreshing it when expired.
// The returned price has Stale set when it is a fallback after failed refreshes.
func (c *PriceCache) Lookup(ctx context.Context, exchange, base, quote string, depth int) (entities.MidPrice, error) {
	source, ok := c.sources.Get(exchange)
	if !ok {
		return entities.MidPrice{}, fmt.Errorf("%w: %s", ErrUnknownExchange, exchange)
	}
	if depth <= 0 {
		depth = c.cfg.DefaultDepth
	}

	market := entities.NewMarket(source.Name(), base, quote)
	key := market.Key()

	// Fast path: no lock for fresh entries
	if price, ok := c.store.Get(key); ok && price.Fresh(c.clock.Now()) {
		c.logger.Hit(ctx, key)
		metrics.RecordPriceLookup(market.Exchange, "hit")
		return price, nil
	}

	lock := c.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	// Another caller may have refreshed while we waited
	if price, ok := c.store.Get(key); ok && price.Fresh(c.clock.Now()) {
		c.logger.Hit(ctx, key)
		metrics.RecordPriceLookup(market.Exchange, "hit")
		return price, nil
	}

	c.logger.Miss(ctx, key)

	var lastErr error
	for attempt := 1; attempt <= c.cfg.RefreshAttempts; attempt++ {
		mid, err := c.fetchMid(ctx, source, market, depth)
		if err == nil {
			return c.storePrice(ctx, market, mid), nil
		}

		lastErr = err
		c.logger.RefreshFailed(ctx, key, attempt, err)
		metrics.RecordPriceRefresh(market.Exchange, false)

		if attempt < c.cfg.RefreshAttempts {
			<-c.clock.After(c.cfg.GracePeriod)
		}
	}

	now := c.clock.Now()
	if stale, ok := c.store.Get(key); ok && c.staleUsable(stale, now) {
		stale.Stale = true
		c.logger.StaleServed(ctx, key, stale.Age(now))
		metrics.RecordPriceLookup(market.Exchange, "stale")
		return stale, nil
	}

	err := &PriceUnavailableError{Market: market, Err: lastErr}
	c.logger.Unavailable(ctx, key, err)
	metrics.RecordPriceLookup(market.Exchange, "unavailable")
	return entities.MidPrice{}, err
}

// CachedPrices returns every cached price, marking expired ones as stale
func (c *PriceCache) CachedPrices(ctx context.Context) []entities.MidPrice {
	now := c.clock.Now()
	prices := c.store.Snapshot()
	for i := range prices {
		prices[i].Stale = !prices[i].Fresh(now)
	}
	return prices
}

func (c *PriceCache) fetchMid(ctx context.Context, source interfaces.OrderBookSource, market entities.Market, depth int) (decimal.Decimal, error) {
	id := governor.Identity{Exchange: market.Exchange}
	book, found, err := governor.Do(ctx, c.governor, id, func(ctx context.Context) (*entities.OrderBook, error) {
		return source.GetOrderBook(ctx, market.Base, market.Quote, depth)
	})
	if err != nil {
		return decimal.Zero, err
	}
	if !found || book == nil {
		return decimal.Zero, fmt.Errorf("%w for %s", ErrNoOrderBook, market)
	}
	return book.MidPrice()
}

func (c *PriceCache) storePrice(ctx context.Context, market entities.Market, mid decimal.Decimal) entities.MidPrice {
	now := c.clock.Now()
	price := entities.MidPrice{
		Market:    market,
		Value:     mid,
		FetchedAt: now,
		ExpiresAt: now.Add(c.cfg.TTL),
	}
	c.store.Set(price)

	c.logger.Stored(ctx, market.Key(), mid.String(), c.cfg.TTL)
	metrics.RecordPriceRefresh(market.Exchange, true)
	metrics.RecordPriceLookup(market.Exchange, "refreshed")
	metrics.UpdateCachedPrices(c.store.Size())

	return price
}

func (c *PriceCache) staleUsable(price entities.MidPrice, now time.Time) bool {
	if c.cfg.MaxStaleness <= 0 {
		return true
	}
	return !utils.IsTimestampStale(now, price.FetchedAt, c.cfg.MaxStaleness)
}

func (c *PriceCache) lockFor(key string) *sync.Mutex {
	if lock, ok := c.locks.Load(key); ok {
		return lock.(*sync.Mutex)
	}
	lock, _ := c.locks.LoadOrStore(key, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
