package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento del kardex. El sufijo _IN/_OUT define el signo.
type MovementType string

const (
	MovementAdjustmentIn  MovementType = "ADJUSTMENT_IN"
	MovementAdjustmentOut MovementType = "ADJUSTMENT_OUT"
	MovementSaleOut       MovementType = "SALE_OUT"
	MovementPurchaseIn    MovementType = "PURCHASE_IN"
	MovementReturnIn      MovementType = "RETURN_IN"
)

// Referencias conocidas a la transacción que origina el movimiento.
const (
	ReferenceSale = "SALE"
)

// Valid indica si el tipo es uno de los soportados.
func (t MovementType) Valid() bool {
	switch t {
	case MovementAdjustmentIn, MovementAdjustmentOut, MovementSaleOut, MovementPurchaseIn, MovementReturnIn:
		return true
	}
	return false
}

// IsOutbound true para tipos *_OUT.
func (t MovementType) IsOutbound() bool {
	return strings.HasSuffix(string(t), "_OUT")
}

// Signed aplica el signo del tipo a una cantidad positiva.
func (t MovementType) Signed(quantity decimal.Decimal) decimal.Decimal {
	if t.IsOutbound() {
		return quantity.Neg()
	}
	return quantity
}

// Movement entrada inmutable del kardex. Quantity siempre es positiva;
// el efecto sobre la existencia lo da Type.
type Movement struct {
	ID                string
	Sequence          int64 // ordinal creciente, usado para ordenar y paginar
	StockItemID       string
	Type              MovementType
	Quantity          decimal.Decimal
	BalanceAfter      decimal.Decimal
	Reason            string
	Notes             string
	ReferenceType     string
	ReferenceID       string
	PerformedByUserID string
	CreatedAt         time.Time
}

// Delta efecto con signo sobre OnHand.
func (m *Movement) Delta() decimal.Decimal {
	return m.Type.Signed(m.Quantity)
}
