package interfaces

import "exapi-service/internal/domain/entities"

// PriceStore guarda precios medios por clave de mercado.
// Las entradas vencidas se conservan hasta que un refresco las reemplaza.
type PriceStore interface {
	Get(key string) (entities.MidPrice, bool)
	Set(price entities.MidPrice)
	Snapshot() []entities.MidPrice
	Size() int
}
