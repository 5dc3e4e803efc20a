package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// InitializeStockRequest body para POST /api/inventory/stock/initialize.
type InitializeStockRequest struct {
	ProductID         string          `json:"product_id" validate:"required,uuid"`
	DepositID         string          `json:"deposit_id,omitempty" validate:"omitempty,uuid"`
	InitialOnHand     decimal.Decimal `json:"initial_on_hand"`
	MinimumThreshold  decimal.Decimal `json:"minimum_threshold"`
	CriticalThreshold decimal.Decimal `json:"critical_threshold"`
}

// AdjustStockRequest body para POST /api/inventory/stock/adjust.
type AdjustStockRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	DepositID string          `json:"deposit_id,omitempty" validate:"omitempty,uuid"`
	Quantity  decimal.Decimal `json:"quantity"`
	Direction string          `json:"direction" validate:"required,oneof=IN OUT"`
	Reason    string          `json:"reason" validate:"required,max=255"`
	Notes     string          `json:"notes,omitempty" validate:"max=1000"`
}

// StockItemResponse existencia de un producto en un depósito; state es derivado.
type StockItemResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	DepositID         string          `json:"deposit_id"`
	OnHand            decimal.Decimal `json:"on_hand"`
	MinimumThreshold  decimal.Decimal `json:"minimum_threshold"`
	CriticalThreshold decimal.Decimal `json:"critical_threshold"`
	State             string          `json:"state"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// MovementResponse entrada del kardex.
type MovementResponse struct {
	ID                string          `json:"id"`
	Sequence          int64           `json:"sequence"`
	StockItemID       string          `json:"stock_item_id"`
	Type              string          `json:"type"`
	Quantity          decimal.Decimal `json:"quantity"`
	BalanceAfter      decimal.Decimal `json:"balance_after"`
	Reason            string          `json:"reason"`
	Notes             string          `json:"notes,omitempty"`
	ReferenceType     string          `json:"reference_type,omitempty"`
	ReferenceID       string          `json:"reference_id,omitempty"`
	PerformedByUserID string          `json:"performed_by_user_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// MovementPageResponse página del kardex (más reciente primero).
type MovementPageResponse struct {
	Items         []MovementResponse `json:"items"`
	NextPageToken string             `json:"next_page_token,omitempty"`
}

// ReconciliationResponse resultado de reconstruir la existencia desde el kardex.
type ReconciliationResponse struct {
	StockItemID    string          `json:"stock_item_id"`
	OnHand         decimal.Decimal `json:"on_hand"`
	ReplayedOnHand decimal.Decimal `json:"replayed_on_hand"`
	MovementCount  int             `json:"movement_count"`
	Balanced       bool            `json:"balanced"`
}

// CartLineRequest cantidad de un producto en el carrito del POS.
type CartLineRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// AvailabilityRequest body para POST /api/inventory/availability.
type AvailabilityRequest struct {
	DepositID string            `json:"deposit_id,omitempty" validate:"omitempty,uuid"`
	Cart      []CartLineRequest `json:"cart" validate:"dive"`
	// Candidate línea que se quiere agregar; opcional.
	Candidate *CartLineRequest `json:"candidate,omitempty"`
}

// ProductAvailability proyección por producto (no es una reserva).
type ProductAvailability struct {
	ProductID   string          `json:"product_id"`
	Initialized bool            `json:"initialized"`
	OnHand      decimal.Decimal `json:"on_hand"`
	InCart      decimal.Decimal `json:"in_cart"`
	Available   decimal.Decimal `json:"available"`
}

// AvailabilityResponse resultado de evaluar el carrito.
type AvailabilityResponse struct {
	Products []ProductAvailability `json:"products"`
	CanAdd   *bool                 `json:"can_add,omitempty"`
}
