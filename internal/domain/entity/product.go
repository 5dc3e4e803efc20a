package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product identidad de catálogo. Este servicio solo la lee; nunca la modifica.
type Product struct {
	ID        string
	SKU       string
	Name      string
	Price     decimal.Decimal // precio de venta vigente
	Cost      decimal.Decimal
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Sellable indica si el producto puede venderse (activo y con precio).
func (p *Product) Sellable() bool {
	return p != nil && p.Active && p.Price.IsPositive()
}
