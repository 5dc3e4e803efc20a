package repository

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// MovementRepository puerto del kardex (solo inserción y lectura).
type MovementRepository interface {
	// Append inserta el movimiento y asigna ID y Sequence.
	Append(ctx context.Context, movement *entity.Movement) error
	// ListByStockItem devuelve hasta limit movimientos, del más reciente al más antiguo,
	// con Sequence < beforeSeq (beforeSeq <= 0 = desde el más reciente).
	ListByStockItem(ctx context.Context, stockItemID string, beforeSeq int64, limit int) ([]*entity.Movement, error)
	// ListForReplay devuelve todos los movimientos del ítem en orden ascendente.
	ListForReplay(ctx context.Context, stockItemID string) ([]*entity.Movement, error)
}
