package repository

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// DepositRepository puerto de lectura de depósitos.
type DepositRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Deposit, error)
	// GetDefault devuelve el depósito predeterminado; nil, nil si no hay ninguno.
	GetDefault(ctx context.Context) (*entity.Deposit, error)
	List(ctx context.Context) ([]*entity.Deposit, error)
}
