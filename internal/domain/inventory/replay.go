package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// ReplayResult existencia reconstruida desde el kardex.
type ReplayResult struct {
	OnHand        decimal.Decimal
	MovementCount int
	NegativeAt    string // ID del movimiento que llevó el saldo bajo cero, si lo hubo
}

// Replay suma el efecto con signo de cada movimiento, en orden ascendente de secuencia.
// NegativeAt reporta el primer movimiento tras el cual el saldo habría quedado bajo cero.
func Replay(movements []*entity.Movement) ReplayResult {
	res := ReplayResult{OnHand: decimal.Zero}
	for _, m := range movements {
		res.OnHand = res.OnHand.Add(m.Delta())
		res.MovementCount++
		if res.NegativeAt == "" && res.OnHand.IsNegative() {
			res.NegativeAt = m.ID
		}
	}
	return res
}

// Reconciles compara la existencia materializada con el replay del kardex.
func Reconciles(item *entity.StockItem, movements []*entity.Movement) (ReplayResult, bool) {
	res := Replay(movements)
	return res, res.OnHand.Equal(item.OnHand) && res.NegativeAt == ""
}
