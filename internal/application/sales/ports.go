package sales

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// SalesTxRunner ejecuta una función dentro de una transacción que incluye repos de stock y ventas.
type SalesTxRunner interface {
	RunSales(ctx context.Context, fn func(
		stockRepo repository.StockItemRepository,
		movRepo repository.MovementRepository,
		saleRepo repository.SaleRepository,
	) error) error
}

// StockPoster integra la confirmación de ventas con el motor de stock.
// PostMovementInTx usa los repositorios del caller (misma transacción); si retorna
// error (ej: stock insuficiente) el caller debe hacer rollback.
type StockPoster interface {
	PostMovementInTx(
		ctx context.Context,
		stockRepo repository.StockItemRepository,
		movRepo repository.MovementRepository,
		in inventory.PostMovementInput,
	) (*entity.StockItem, error)
	MovementsCommitted(ctx context.Context, n int)
	ResolveDeposit(ctx context.Context, depositID string) (string, error)
}

var _ StockPoster = (*inventory.StockEngine)(nil)
