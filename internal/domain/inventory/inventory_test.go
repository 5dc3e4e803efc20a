package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestAvailable(t *testing.T) {
	cart := []CartLine{{"a", d(2)}, {"b", d(1)}, {"a", d(1)}}
	assert.True(t, InCart(cart, "a").Equal(d(3)))
	assert.True(t, Available(d(5), cart, "a").Equal(d(2)))
	assert.True(t, Available(d(5), nil, "a").Equal(d(5)))
	assert.True(t, Available(d(2), cart, "a").Equal(d(-1)))
}

func TestCanAdd(t *testing.T) {
	cart := []CartLine{{"a", d(3)}}
	assert.True(t, CanAdd(d(5), cart, "a", d(2)))
	assert.False(t, CanAdd(d(5), cart, "a", d(3)))
	assert.False(t, CanAdd(d(3), cart, "a", d(1)), "sin disponible no se agrega")
	assert.False(t, CanAdd(d(5), cart, "a", d(0)))
	assert.True(t, CanAdd(d(1), cart, "b", d(1)))
}

func TestReplay(t *testing.T) {
	movs := []*entity.Movement{
		{ID: "1", Type: entity.MovementAdjustmentIn, Quantity: d(10)},
		{ID: "2", Type: entity.MovementSaleOut, Quantity: d(4)},
		{ID: "3", Type: entity.MovementReturnIn, Quantity: d(1)},
	}
	res := Replay(movs)
	assert.True(t, res.OnHand.Equal(d(7)))
	assert.Equal(t, 3, res.MovementCount)
	assert.Empty(t, res.NegativeAt)

	_, ok := Reconciles(&entity.StockItem{OnHand: d(7)}, movs)
	assert.True(t, ok)
	_, ok = Reconciles(&entity.StockItem{OnHand: d(8)}, movs)
	assert.False(t, ok)

	bad := append([]*entity.Movement{{ID: "0", Type: entity.MovementSaleOut, Quantity: d(1)}}, movs...)
	res, ok = Reconciles(&entity.StockItem{OnHand: d(6)}, bad)
	assert.False(t, ok)
	assert.Equal(t, "0", res.NegativeAt)
}
