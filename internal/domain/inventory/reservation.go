package inventory

import "github.com/shopspring/decimal"

// CartLine cantidad de un producto ya colocada en un carrito abierto.
type CartLine struct {
	ProductID string
	Quantity  decimal.Decimal
}

// InCart suma las cantidades del carrito para un producto.
func InCart(cart []CartLine, productID string) decimal.Decimal {
	total := decimal.Zero
	for _, l := range cart {
		if l.ProductID == productID {
			total = total.Add(l.Quantity)
		}
	}
	return total
}

// Available proyección optimista: onHand - cantidades del producto en el carrito.
// No es una reserva; la garantía real está en la confirmación de la venta.
func Available(onHand decimal.Decimal, cart []CartLine, productID string) decimal.Decimal {
	return onHand.Sub(InCart(cart, productID))
}

// CanAdd indica si se pueden agregar qty unidades más del producto al carrito.
func CanAdd(onHand decimal.Decimal, cart []CartLine, productID string, qty decimal.Decimal) bool {
	if !qty.IsPositive() {
		return false
	}
	available := Available(onHand, cart, productID)
	if !available.IsPositive() {
		return false
	}
	return available.GreaterThanOrEqual(qty)
}
