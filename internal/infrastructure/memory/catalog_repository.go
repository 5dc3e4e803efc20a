package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

type productRepo struct{ s *Store }

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.catalogMu.RLock()
	defer r.s.catalogMu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

type depositRepo struct{ s *Store }

func (r *depositRepo) GetByID(_ context.Context, id string) (*entity.Deposit, error) {
	r.s.catalogMu.RLock()
	defer r.s.catalogMu.RUnlock()
	d, ok := r.s.deposits[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r *depositRepo) GetDefault(_ context.Context) (*entity.Deposit, error) {
	r.s.catalogMu.RLock()
	defer r.s.catalogMu.RUnlock()
	for _, d := range r.s.deposits {
		if d.IsDefault {
			return &d, nil
		}
	}
	return nil, nil
}

func (r *depositRepo) List(_ context.Context) ([]*entity.Deposit, error) {
	r.s.catalogMu.RLock()
	out := make([]*entity.Deposit, 0, len(r.s.deposits))
	for _, d := range r.s.deposits {
		out = append(out, &d)
	}
	r.s.catalogMu.RUnlock()
	// Predeterminado primero, luego por nombre.
	slices.SortFunc(out, func(a, b *entity.Deposit) int {
		if a.IsDefault != b.IsDefault {
			if a.IsDefault {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}
