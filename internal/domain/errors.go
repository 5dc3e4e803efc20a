package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound        = errors.New("recurso no encontrado")
	ErrInvalidInput    = errors.New("entrada inválida")
	ErrDuplicate       = errors.New("recurso duplicado")
	ErrProductNotFound = errors.New("producto no encontrado o inactivo")

	// Ledger de stock
	ErrAlreadyInitialized = errors.New("el stock ya fue inicializado para este producto y depósito")
	ErrNotInitialized     = errors.New("el producto no tiene stock inicializado")
	ErrInsufficientStock  = errors.New("stock insuficiente")

	// Ciclo de vida de la venta
	ErrEmptyCart        = errors.New("la venta no tiene ítems")
	ErrInvalidItem      = errors.New("ítem de venta inválido")
	ErrAlreadyConfirmed = errors.New("la venta ya fue confirmada")
	ErrSaleCancelled    = errors.New("la venta está anulada")
)

// InsufficientStockError detalla un rechazo por stock insuficiente.
// errors.Is(err, ErrInsufficientStock) sigue funcionando.
type InsufficientStockError struct {
	StockItemID string
	ProductID   string
	Requested   decimal.Decimal
	Available   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s: solicitado %s, disponible %s",
		e.ProductID, e.Requested.String(), e.Available.String())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// ItemError asocia un error de validación a una línea de la venta (índice base 0).
type ItemError struct {
	Index     int
	ProductID string
	Err       error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("ítem %d (%s): %v", e.Index, e.ProductID, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }
