package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, sequence, stock_item_id, type, quantity, balance_after, reason,
	COALESCE(notes, ''), COALESCE(reference_type, ''), COALESCE(reference_id, ''),
	COALESCE(performed_by_user_id, ''), created_at`

// MovementRepo kardex sobre PostgreSQL. Solo inserta; nunca actualiza ni borra.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Append inserta el movimiento; sequence lo asigna la BD (bigserial).
func (r *MovementRepo) Append(ctx context.Context, m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (id, stock_item_id, type, quantity, balance_after, reason,
			notes, reference_type, reference_id, performed_by_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING sequence`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.StockItemID, string(m.Type), m.Quantity, m.BalanceAfter, m.Reason,
		nullIfEmpty(m.Notes), nullIfEmpty(m.ReferenceType), nullIfEmpty(m.ReferenceID),
		nullIfEmpty(m.PerformedByUserID), m.CreatedAt,
	).Scan(&m.Sequence)
	if err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

// ListByStockItem página por keyset sobre sequence, más reciente primero.
func (r *MovementRepo) ListByStockItem(ctx context.Context, stockItemID string, beforeSeq int64, limit int) ([]*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE stock_item_id = $1 AND ($2::bigint <= 0 OR sequence < $2::bigint)
		ORDER BY sequence DESC
		LIMIT $3`
	rows, err := r.q.Query(ctx, query, stockItemID, beforeSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	return collectMovements(rows)
}

// ListForReplay todos los movimientos del ítem en orden ascendente.
func (r *MovementRepo) ListForReplay(ctx context.Context, stockItemID string) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE stock_item_id = $1 ORDER BY sequence ASC`
	rows, err := r.q.Query(ctx, query, stockItemID)
	if err != nil {
		return nil, fmt.Errorf("list stock movements for replay: %w", err)
	}
	return collectMovements(rows)
}

func collectMovements(rows pgx.Rows) ([]*entity.Movement, error) {
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		var m entity.Movement
		var typ string
		if err := rows.Scan(&m.ID, &m.Sequence, &m.StockItemID, &typ, &m.Quantity, &m.BalanceAfter,
			&m.Reason, &m.Notes, &m.ReferenceType, &m.ReferenceID, &m.PerformedByUserID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		m.Type = entity.MovementType(typ)
		list = append(list, &m)
	}
	return list, rows.Err()
}
