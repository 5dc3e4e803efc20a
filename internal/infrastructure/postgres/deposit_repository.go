package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.DepositRepository = (*DepositRepo)(nil)

// DepositRepo implementación del puerto DepositRepository sobre PostgreSQL.
type DepositRepo struct {
	q Querier
}

// NewDepositRepository construye el adaptador de depósitos.
func NewDepositRepository(q Querier) *DepositRepo {
	return &DepositRepo{q: q}
}

func (r *DepositRepo) getOne(ctx context.Context, where string, args ...any) (*entity.Deposit, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), is_default, created_at
		FROM deposits WHERE ` + where
	var dep entity.Deposit
	err := r.q.QueryRow(ctx, query, args...).Scan(&dep.ID, &dep.Name, &dep.Description, &dep.IsDefault, &dep.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get deposit: %w", err)
	}
	return &dep, nil
}

// GetByID obtiene un depósito por ID.
func (r *DepositRepo) GetByID(ctx context.Context, id string) (*entity.Deposit, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetDefault obtiene el depósito predeterminado (índice único parcial sobre is_default).
func (r *DepositRepo) GetDefault(ctx context.Context) (*entity.Deposit, error) {
	return r.getOne(ctx, "is_default")
}

// List predeterminado primero, luego por nombre.
func (r *DepositRepo) List(ctx context.Context) ([]*entity.Deposit, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), is_default, created_at
		FROM deposits ORDER BY is_default DESC, name ASC`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list deposits: %w", err)
	}
	defer rows.Close()
	var list []*entity.Deposit
	for rows.Next() {
		var dep entity.Deposit
		if err := rows.Scan(&dep.ID, &dep.Name, &dep.Description, &dep.IsDefault, &dep.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan deposit: %w", err)
		}
		list = append(list, &dep)
	}
	return list, rows.Err()
}
