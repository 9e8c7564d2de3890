package cache

import (
	"sort"
	"sync"

	"exapi-service/internal/domain/entities"
	"exapi-service/internal/domain/interfaces"
)

// MemoryStore implementa PriceStore en memoria local.
// Nunca elimina entradas: un precio vencido sigue disponible como respaldo.
type MemoryStore struct {
	items map[string]entities.MidPrice
	mu    sync.RWMutex
}

// NewMemoryStore crea una nueva instancia del store en memoria
func NewMemoryStore() interfaces.PriceStore {
	return &MemoryStore{
		items: make(map[string]entities.MidPrice),
	}
}

// Get obtiene el último precio guardado para key, esté vencido o no
func (c *MemoryStore) Get(key string) (entities.MidPrice, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	return item, exists
}

// Set reemplaza el precio de su mercado
func (c *MemoryStore) Set(price entities.MidPrice) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[price.Market.Key()] = price
}

// Snapshot retorna una copia de todos los precios ordenada por clave
func (c *MemoryStore) Snapshot() []entities.MidPrice {
	c.mu.RLock()
	out := make([]entities.MidPrice, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, item)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Market.Key() < out[j].Market.Key() })
	return out
}

// Size retorna el número de mercados en el store
func (c *MemoryStore) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
