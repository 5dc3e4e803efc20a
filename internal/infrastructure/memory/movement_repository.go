package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

type movementRepo struct {
	s    *Store
	inTx bool
}

func (r *movementRepo) Append(_ context.Context, m *entity.Movement) error {
	return r.s.write(r.inTx, func() error {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		r.s.seq++
		m.Sequence = r.s.seq
		r.s.movements = append(r.s.movements, *m)
		return nil
	})
}

func (r *movementRepo) ListByStockItem(_ context.Context, stockItemID string, beforeSeq int64, limit int) ([]*entity.Movement, error) {
	var out []*entity.Movement
	r.s.read(r.inTx, func() {
		for i := len(r.s.movements) - 1; i >= 0 && len(out) < limit; i-- {
			m := r.s.movements[i]
			if m.StockItemID != stockItemID {
				continue
			}
			if beforeSeq > 0 && m.Sequence >= beforeSeq {
				continue
			}
			out = append(out, &m)
		}
	})
	return out, nil
}

func (r *movementRepo) ListForReplay(_ context.Context, stockItemID string) ([]*entity.Movement, error) {
	var out []*entity.Movement
	r.s.read(r.inTx, func() {
		for _, m := range r.s.movements {
			if m.StockItemID == stockItemID {
				mv := m
				out = append(out, &mv)
			}
		}
	})
	return out, nil
}
