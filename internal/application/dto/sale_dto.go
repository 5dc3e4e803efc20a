package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleItemRequest línea de la venta. El precio lo resuelve el servidor desde el catálogo.
type SaleItemRequest struct {
	ProductID      string          `json:"product_id" validate:"required,uuid"`
	Quantity       decimal.Decimal `json:"quantity"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// CreateSaleRequest body para POST /api/sales.
type CreateSaleRequest struct {
	DepositID        string            `json:"deposit_id,omitempty" validate:"omitempty,uuid"`
	CustomerName     string            `json:"customer_name,omitempty" validate:"max=200"`
	CustomerDocument string            `json:"customer_document,omitempty" validate:"max=50"`
	Notes            string            `json:"notes,omitempty" validate:"max=1000"`
	Items            []SaleItemRequest `json:"items" validate:"dive"`
}

// SaleItemResponse línea de la venta con precio y totales.
type SaleItemResponse struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"product_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	LineSubtotal   decimal.Decimal `json:"line_subtotal"`
	LineTotal      decimal.Decimal `json:"line_total"`
}

// SaleResponse salida de una venta.
type SaleResponse struct {
	ID               string             `json:"id"`
	Status           string             `json:"status"`
	DepositID        string             `json:"deposit_id"`
	SoldByUserID     string             `json:"sold_by_user_id"`
	CustomerName     string             `json:"customer_name,omitempty"`
	CustomerDocument string             `json:"customer_document,omitempty"`
	Notes            string             `json:"notes,omitempty"`
	Items            []SaleItemResponse `json:"items"`
	Subtotal         decimal.Decimal    `json:"subtotal"`
	TotalDiscount    decimal.Decimal    `json:"total_discount"`
	Total            decimal.Decimal    `json:"total"`
	CreatedAt        time.Time          `json:"created_at"`
	ConfirmedAt      *time.Time         `json:"confirmed_at,omitempty"`
	CancelledAt      *time.Time         `json:"cancelled_at,omitempty"`
}

// SaleListResponse lista paginada de ventas.
type SaleListResponse struct {
	Items []SaleResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// SaleListQuery filtros de GET /api/sales.
type SaleListQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=DRAFT CONFIRMED CANCELLED"`
	Limit  int    `query:"limit" validate:"min=0,max=200"`
	Offset int    `query:"offset" validate:"min=0"`
}

// Page devuelve la paginación con valores por defecto aplicados.
func (q SaleListQuery) Page() PageRequest {
	p := PageRequest{Limit: q.Limit, Offset: q.Offset}
	p.DefaultPage()
	return p
}
