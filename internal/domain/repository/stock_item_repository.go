package repository

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// StockItemRepository puerto de persistencia del ledger de stock.
// Usado dentro de transacciones para garantizar consistencia.
type StockItemRepository interface {
	// Create inserta la fila; devuelve domain.ErrAlreadyInitialized si ya existe (producto, depósito).
	Create(ctx context.Context, item *entity.StockItem) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.StockItem, error)
	// GetByProduct devuelve nil, nil si el producto no tiene stock en el depósito.
	GetByProduct(ctx context.Context, productID, depositID string) (*entity.StockItem, error)
	// GetForUpdate obtiene la fila y la bloquea hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.StockItem, error)
	// UpdateOnHand persiste la nueva existencia. Solo el motor de stock la llama.
	UpdateOnHand(ctx context.Context, item *entity.StockItem) error
	// ListByStates lista filas cuyo estado derivado está en states; depositID vacío = todos.
	ListByStates(ctx context.Context, depositID string, states ...entity.StockState) ([]*entity.StockItem, error)
}
