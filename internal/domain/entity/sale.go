package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleStatus estado del ciclo de vida de una venta.
type SaleStatus string

const (
	SaleStatusDraft     SaleStatus = "DRAFT"
	SaleStatusConfirmed SaleStatus = "CONFIRMED"
	SaleStatusCancelled SaleStatus = "CANCELLED"
)

// Sale venta. Nace en DRAFT y pasa una sola vez a CONFIRMED o CANCELLED.
type Sale struct {
	ID               string
	Status           SaleStatus
	DepositID        string
	SoldByUserID     string
	CustomerName     string
	CustomerDocument string
	Notes            string
	Items            []SaleItem
	Subtotal         decimal.Decimal
	TotalDiscount    decimal.Decimal
	Total            decimal.Decimal
	CreatedAt        time.Time
	ConfirmedAt      *time.Time
	CancelledAt      *time.Time
}

// SaleItem línea de la venta.
type SaleItem struct {
	ID             string
	SaleID         string
	ProductID      string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	DiscountAmount decimal.Decimal
	LineSubtotal   decimal.Decimal
	LineTotal      decimal.Decimal
}

// Price fija el precio unitario y recalcula subtotal y total de la línea.
func (i *SaleItem) Price(unitPrice decimal.Decimal) {
	i.UnitPrice = unitPrice
	i.LineSubtotal = i.Quantity.Mul(unitPrice).Round(4) // NUMERIC(18, 4)
	i.LineTotal = i.LineSubtotal.Sub(i.DiscountAmount)
}

// Recalculate suma las líneas en Subtotal, TotalDiscount y Total.
func (s *Sale) Recalculate() {
	subtotal, discount := decimal.Zero, decimal.Zero
	for _, it := range s.Items {
		subtotal = subtotal.Add(it.LineSubtotal)
		discount = discount.Add(it.DiscountAmount)
	}
	s.Subtotal = subtotal
	s.TotalDiscount = discount
	s.Total = subtotal.Sub(discount)
}

// IsDraft true mientras la venta no tenga efectos.
func (s *Sale) IsDraft() bool { return s.Status == SaleStatusDraft }

// MarkConfirmed transición DRAFT -> CONFIRMED. El llamador valida el estado previo.
func (s *Sale) MarkConfirmed(at time.Time) {
	s.Status = SaleStatusConfirmed
	s.ConfirmedAt = &at
}

// MarkCancelled transición DRAFT -> CANCELLED.
func (s *Sale) MarkCancelled(at time.Time) {
	s.Status = SaleStatusCancelled
	s.CancelledAt = &at
}

// Clone copia profunda (los ítems no se comparten).
func (s *Sale) Clone() *Sale {
	c := *s
	c.Items = append([]SaleItem(nil), s.Items...)
	if s.ConfirmedAt != nil {
		t := *s.ConfirmedAt
		c.ConfirmedAt = &t
	}
	if s.CancelledAt != nil {
		t := *s.CancelledAt
		c.CancelledAt = &t
	}
	return &c
}
