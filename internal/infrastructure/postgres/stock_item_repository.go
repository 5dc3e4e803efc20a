package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.StockItemRepository = (*StockItemRepo)(nil)

const stockItemColumns = `id, product_id, deposit_id, on_hand, minimum_threshold, critical_threshold, created_at, updated_at`

// StockItemRepo implementación de StockItemRepository sobre PostgreSQL (usable con pool o tx).
type StockItemRepo struct {
	q Querier
}

// NewStockItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockItemRepository(q Querier) *StockItemRepo {
	return &StockItemRepo{q: q}
}

func scanStockItem(row pgx.Row) (*entity.StockItem, error) {
	var s entity.StockItem
	err := row.Scan(&s.ID, &s.ProductID, &s.DepositID, &s.OnHand,
		&s.MinimumThreshold, &s.CriticalThreshold, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserta la fila; la restricción única (product_id, deposit_id) resuelve inicializaciones concurrentes.
func (r *StockItemRepo) Create(ctx context.Context, item *entity.StockItem) error {
	query := `
		INSERT INTO stock_items (` + stockItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		item.ID, item.ProductID, item.DepositID, item.OnHand,
		item.MinimumThreshold, item.CriticalThreshold, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyInitialized
		}
		return fmt.Errorf("insert stock item: %w", err)
	}
	return nil
}

// GetByID obtiene la fila por ID.
func (r *StockItemRepo) GetByID(ctx context.Context, id string) (*entity.StockItem, error) {
	query := `SELECT ` + stockItemColumns + ` FROM stock_items WHERE id = $1`
	s, err := scanStockItem(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock item: %w", err)
	}
	return s, nil
}

// GetByProduct obtiene la fila de un producto en un depósito.
func (r *StockItemRepo) GetByProduct(ctx context.Context, productID, depositID string) (*entity.StockItem, error) {
	query := `SELECT ` + stockItemColumns + ` FROM stock_items WHERE product_id = $1 AND deposit_id = $2`
	s, err := scanStockItem(r.q.QueryRow(ctx, query, productID, depositID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock item by product: %w", err)
	}
	return s, nil
}

// GetForUpdate obtiene la fila y la bloquea para update (SELECT FOR UPDATE).
func (r *StockItemRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockItem, error) {
	query := `SELECT ` + stockItemColumns + ` FROM stock_items WHERE id = $1 FOR UPDATE`
	s, err := scanStockItem(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock item for update: %w", err)
	}
	return s, nil
}

// UpdateOnHand persiste la existencia. El CHECK (on_hand >= 0) es la última barrera.
func (r *StockItemRepo) UpdateOnHand(ctx context.Context, item *entity.StockItem) error {
	query := `UPDATE stock_items SET on_hand = $2, updated_at = $3 WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, item.ID, item.OnHand, item.UpdatedAt)
	if err != nil {
		if isCheckViolation(err) {
			return domain.ErrInsufficientStock
		}
		return fmt.Errorf("update stock item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByStates usa la columna generada stock_state; más urgente primero.
func (r *StockItemRepo) ListByStates(ctx context.Context, depositID string, states ...entity.StockState) ([]*entity.StockItem, error) {
	names := make([]string, len(states))
	for i, s := range states {
		names[i] = string(s)
	}
	query := `
		SELECT ` + stockItemColumns + `
		FROM stock_items
		WHERE stock_state = ANY($1) AND ($2 = '' OR deposit_id::text = $2)
		ORDER BY on_hand ASC, product_id ASC`
	rows, err := r.q.Query(ctx, query, names, depositID)
	if err != nil {
		return nil, fmt.Errorf("list stock items by state: %w", err)
	}
	defer rows.Close()

	var list []*entity.StockItem
	for rows.Next() {
		s, err := scanStockItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock item: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
