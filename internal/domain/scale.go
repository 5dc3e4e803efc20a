package domain

import "github.com/shopspring/decimal"

// Scale decimales que persisten las columnas NUMERIC(18, 4) del ledger y de ventas.
const Scale = 4

// FitsScale indica si todos los valores se representan sin redondeo con Scale decimales.
func FitsScale(values ...decimal.Decimal) bool {
	for _, v := range values {
		if !v.Equal(v.Truncate(Scale)) {
			return false
		}
	}
	return true
}
