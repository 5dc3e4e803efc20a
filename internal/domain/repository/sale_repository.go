package repository

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// SaleRepository puerto de persistencia de ventas y sus ítems.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	// GetForUpdate bloquea la cabecera de la venta (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Sale, error)
	// Update persiste estado, totales, fechas y precios de los ítems.
	Update(ctx context.Context, sale *entity.Sale) error
	// List lista ventas recientes; status vacío = todas.
	List(ctx context.Context, status entity.SaleStatus, limit, offset int) ([]*entity.Sale, error)
}
