package memory

import (
	"context"
	"slices"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

type saleRepo struct {
	s    *Store
	inTx bool
}

func (r *saleRepo) Create(_ context.Context, sale *entity.Sale) error {
	return r.s.write(r.inTx, func() error {
		if _, ok := r.s.sales[sale.ID]; ok {
			return domain.ErrDuplicate
		}
		r.s.rememberSale(sale.ID)
		r.s.sales[sale.ID] = sale.Clone()
		return nil
	})
}

func (r *saleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	r.s.read(r.inTx, func() {
		if sale, ok := r.s.sales[id]; ok {
			out = sale.Clone()
		}
	})
	return out, nil
}

func (r *saleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.GetByID(ctx, id)
}

func (r *saleRepo) Update(_ context.Context, sale *entity.Sale) error {
	return r.s.write(r.inTx, func() error {
		if _, ok := r.s.sales[sale.ID]; !ok {
			return domain.ErrNotFound
		}
		r.s.rememberSale(sale.ID)
		r.s.sales[sale.ID] = sale.Clone()
		return nil
	})
}

// List más recientes primero.
func (r *saleRepo) List(_ context.Context, status entity.SaleStatus, limit, offset int) ([]*entity.Sale, error) {
	var all []*entity.Sale
	r.s.read(r.inTx, func() {
		for _, sale := range r.s.sales {
			if status != "" && sale.Status != status {
				continue
			}
			all = append(all, sale.Clone())
		}
	})
	slices.SortFunc(all, func(a, b *entity.Sale) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	if offset >= len(all) {
		return []*entity.Sale{}, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}
