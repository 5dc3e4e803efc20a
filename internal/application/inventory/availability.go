package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/domain"
	domaininv "github.com/jhoicas/stockledger-api/internal/domain/inventory"
)

// ProductAvailability proyección de un producto frente a un carrito abierto.
type ProductAvailability struct {
	ProductID   string
	Initialized bool
	OnHand      decimal.Decimal
	InCart      decimal.Decimal
	Available   decimal.Decimal
}

// AvailabilityView resultado de evaluar un carrito. CanAdd solo se informa si hubo candidato.
type AvailabilityView struct {
	Products []ProductAvailability
	CanAdd   *bool
}

// Availability evalúa el carrito contra la existencia actual del depósito. Es una proyección
// optimista, no una reserva: la garantía la da la confirmación de la venta.
func (e *StockEngine) Availability(ctx context.Context, depositID string, cart []domaininv.CartLine, candidate *domaininv.CartLine) (*AvailabilityView, error) {
	depositID, err := e.ResolveDeposit(ctx, depositID)
	if err != nil {
		return nil, err
	}
	lines := cart
	if candidate != nil {
		if candidate.ProductID == "" || !candidate.Quantity.IsPositive() {
			return nil, domain.ErrInvalidInput
		}
		lines = append(append([]domaininv.CartLine(nil), cart...), *candidate)
	}

	view := &AvailabilityView{}
	seen := make(map[string]bool)
	onHandByProduct := make(map[string]decimal.Decimal)
	for _, l := range lines {
		if l.ProductID == "" || l.Quantity.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		if seen[l.ProductID] {
			continue
		}
		seen[l.ProductID] = true

		item, err := e.stockRepo.GetByProduct(ctx, l.ProductID, depositID)
		if err != nil {
			return nil, err
		}
		pa := ProductAvailability{ProductID: l.ProductID, OnHand: decimal.Zero}
		if item != nil {
			pa.Initialized = true
			pa.OnHand = item.OnHand
		}
		pa.InCart = domaininv.InCart(cart, l.ProductID)
		pa.Available = domaininv.Available(pa.OnHand, cart, l.ProductID)
		onHandByProduct[l.ProductID] = pa.OnHand
		view.Products = append(view.Products, pa)
	}

	if candidate != nil {
		ok := domaininv.CanAdd(onHandByProduct[candidate.ProductID], cart, candidate.ProductID, candidate.Quantity)
		view.CanAdd = &ok
	}
	return view, nil
}
