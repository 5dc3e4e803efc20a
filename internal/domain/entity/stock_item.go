package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockState nivel de alerta derivado de la existencia frente a los umbrales.
type StockState string

const (
	StockStateOK       StockState = "OK"
	StockStateLow      StockState = "LOW"
	StockStateCritical StockState = "CRITICAL"
)

// DeriveState calcula el estado a partir de existencia y umbrales.
// CRITICAL si onHand <= critical; LOW si onHand <= minimum; OK en otro caso.
func DeriveState(onHand, minimumThreshold, criticalThreshold decimal.Decimal) StockState {
	switch {
	case onHand.LessThanOrEqual(criticalThreshold):
		return StockStateCritical
	case onHand.LessThanOrEqual(minimumThreshold):
		return StockStateLow
	default:
		return StockStateOK
	}
}

// StockItem fila del ledger: existencia de un producto en un depósito.
// El estado no se almacena; se deriva siempre de OnHand y los umbrales.
type StockItem struct {
	ID                string
	ProductID         string
	DepositID         string
	OnHand            decimal.Decimal
	MinimumThreshold  decimal.Decimal
	CriticalThreshold decimal.Decimal
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// State devuelve el estado derivado (OK/LOW/CRITICAL).
func (s *StockItem) State() StockState {
	return DeriveState(s.OnHand, s.MinimumThreshold, s.CriticalThreshold)
}

// ThresholdsOrdered indica si critical <= minimum (orden recomendado, no obligatorio).
func (s *StockItem) ThresholdsOrdered() bool {
	return s.CriticalThreshold.LessThanOrEqual(s.MinimumThreshold)
}
