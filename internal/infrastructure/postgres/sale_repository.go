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

var _ repository.SaleRepository = (*SaleRepo)(nil)

const saleColumns = `id, status, deposit_id, sold_by_user_id, COALESCE(customer_name, ''),
	COALESCE(customer_document, ''), COALESCE(notes, ''), subtotal, total_discount, total,
	created_at, confirmed_at, cancelled_at`

// SaleRepo ventas e ítems sobre PostgreSQL (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	var status string
	err := row.Scan(&s.ID, &status, &s.DepositID, &s.SoldByUserID, &s.CustomerName,
		&s.CustomerDocument, &s.Notes, &s.Subtotal, &s.TotalDiscount, &s.Total,
		&s.CreatedAt, &s.ConfirmedAt, &s.CancelledAt)
	if err != nil {
		return nil, err
	}
	s.Status = entity.SaleStatus(status)
	return &s, nil
}

// Create inserta cabecera e ítems; se llama dentro de RunSales para que sea atómico.
func (r *SaleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	query := `
		INSERT INTO sales (id, status, deposit_id, sold_by_user_id, customer_name, customer_document, notes,
			subtotal, total_discount, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		sale.ID, string(sale.Status), sale.DepositID, sale.SoldByUserID,
		nullIfEmpty(sale.CustomerName), nullIfEmpty(sale.CustomerDocument), nullIfEmpty(sale.Notes),
		sale.Subtotal, sale.TotalDiscount, sale.Total, sale.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	for i, it := range sale.Items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO sale_items (id, sale_id, position, product_id, quantity, unit_price, discount_amount, line_subtotal, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			it.ID, sale.ID, i, it.ProductID, it.Quantity, it.UnitPrice, it.DiscountAmount, it.LineSubtotal, it.LineTotal,
		)
		if err != nil {
			return fmt.Errorf("insert sale item: %w", err)
		}
	}
	return nil
}

// GetByID obtiene la venta con sus ítems.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
}

// GetForUpdate bloquea la cabecera (SELECT FOR UPDATE); dos confirmaciones concurrentes se serializan aquí.
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id)
}

func (r *SaleRepo) get(ctx context.Context, query, id string) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	if s.Items, err = r.items(ctx, s.ID); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SaleRepo) items(ctx context.Context, saleID string) ([]entity.SaleItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, sale_id, product_id, quantity, unit_price, discount_amount, line_subtotal, line_total
		FROM sale_items WHERE sale_id = $1 ORDER BY position ASC`, saleID)
	if err != nil {
		return nil, fmt.Errorf("list sale items: %w", err)
	}
	defer rows.Close()
	var items []entity.SaleItem
	for rows.Next() {
		var it entity.SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.Quantity, &it.UnitPrice,
			&it.DiscountAmount, &it.LineSubtotal, &it.LineTotal); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Update persiste estado, totales, fechas y precios congelados de cada ítem.
func (r *SaleRepo) Update(ctx context.Context, sale *entity.Sale) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE sales SET status = $2, subtotal = $3, total_discount = $4, total = $5,
			confirmed_at = $6, cancelled_at = $7
		WHERE id = $1`,
		sale.ID, string(sale.Status), sale.Subtotal, sale.TotalDiscount, sale.Total,
		sale.ConfirmedAt, sale.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("update sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	for _, it := range sale.Items {
		_, err := r.q.Exec(ctx, `
			UPDATE sale_items SET unit_price = $2, line_subtotal = $3, line_total = $4
			WHERE id = $1`,
			it.ID, it.UnitPrice, it.LineSubtotal, it.LineTotal,
		)
		if err != nil {
			return fmt.Errorf("update sale item: %w", err)
		}
	}
	return nil
}

// List ventas más recientes primero (sin ítems; usar GetByID para el detalle).
func (r *SaleRepo) List(ctx context.Context, status entity.SaleStatus, limit, offset int) ([]*entity.Sale, error) {
	query := `
		SELECT ` + saleColumns + `
		FROM sales
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, id ASC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, string(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Sale, 0)
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
