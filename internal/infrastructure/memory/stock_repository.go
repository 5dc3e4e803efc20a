package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

type stockRepo struct {
	s    *Store
	inTx bool
}

func (r *stockRepo) Create(_ context.Context, item *entity.StockItem) error {
	return r.s.write(r.inTx, func() error {
		key := stockKey(item.ProductID, item.DepositID)
		if _, ok := r.s.stockByKey[key]; ok {
			return domain.ErrAlreadyInitialized
		}
		r.s.stock[item.ID] = *item
		r.s.stockByKey[key] = item.ID
		return nil
	})
}

func (r *stockRepo) GetByID(_ context.Context, id string) (*entity.StockItem, error) {
	var out *entity.StockItem
	r.s.read(r.inTx, func() {
		if it, ok := r.s.stock[id]; ok {
			out = &it
		}
	})
	return out, nil
}

func (r *stockRepo) GetByProduct(_ context.Context, productID, depositID string) (*entity.StockItem, error) {
	var out *entity.StockItem
	r.s.read(r.inTx, func() {
		if id, ok := r.s.stockByKey[stockKey(productID, depositID)]; ok {
			it := r.s.stock[id]
			out = &it
		}
	})
	return out, nil
}

// GetForUpdate dentro de una transacción el lock del Store ya es exclusivo.
func (r *stockRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockItem, error) {
	return r.GetByID(ctx, id)
}

func (r *stockRepo) UpdateOnHand(_ context.Context, item *entity.StockItem) error {
	return r.s.write(r.inTx, func() error {
		cur, ok := r.s.stock[item.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if item.OnHand.IsNegative() {
			return domain.ErrInsufficientStock
		}
		cur.OnHand = item.OnHand
		cur.UpdatedAt = item.UpdatedAt
		r.s.stock[item.ID] = cur
		return nil
	})
}

func (r *stockRepo) ListByStates(_ context.Context, depositID string, states ...entity.StockState) ([]*entity.StockItem, error) {
	var out []*entity.StockItem
	r.s.read(r.inTx, func() {
		for _, it := range r.s.stock {
			if depositID != "" && it.DepositID != depositID {
				continue
			}
			if !slices.Contains(states, it.State()) {
				continue
			}
			item := it
			out = append(out, &item)
		}
	})
	// Más urgente primero: menor existencia, luego producto.
	slices.SortFunc(out, func(a, b *entity.StockItem) int {
		if c := a.OnHand.Cmp(b.OnHand); c != 0 {
			return c
		}
		return strings.Compare(a.ProductID, b.ProductID)
	})
	return out, nil
}
