package inventory

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de stock.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockItemRepository,
		movRepo repository.MovementRepository,
	) error) error
}

// CriticalCache caché de lectura (eventualmente consistente) del reporte de ítems críticos.
type CriticalCache interface {
	FetchCritical(ctx context.Context, key string, loader func(context.Context) ([]*entity.StockItem, error)) ([]*entity.StockItem, error)
	Invalidate(ctx context.Context) error
}
