package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// errorMapping código estable y estado HTTP por cada error de dominio.
var errorMapping = []struct {
	err     error
	status  int
	code    string
	message string
}{
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION", "datos inválidos"},
	{domain.ErrInvalidItem, fiber.StatusBadRequest, "INVALID_ITEM", "ítem de venta inválido"},
	{domain.ErrEmptyCart, fiber.StatusBadRequest, "EMPTY_CART", "la venta no tiene ítems"},
	{domain.ErrProductNotFound, fiber.StatusNotFound, "PRODUCT_NOT_FOUND", "producto no encontrado o inactivo"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "recurso no encontrado"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK", "stock insuficiente"},
	{domain.ErrAlreadyInitialized, fiber.StatusConflict, "ALREADY_INITIALIZED", "el stock ya fue inicializado"},
	{domain.ErrNotInitialized, fiber.StatusConflict, "STOCK_NOT_INITIALIZED", "el producto no tiene stock inicializado"},
	{domain.ErrAlreadyConfirmed, fiber.StatusConflict, "ALREADY_CONFIRMED", "la venta ya fue confirmada"},
	{domain.ErrSaleCancelled, fiber.StatusConflict, "SALE_CANCELLED", "la venta está anulada"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE", "recurso duplicado"},
}

// writeError traduce un error de la aplicación a dto.ErrorResponse. Lo desconocido es 500 y se registra.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	for _, m := range errorMapping {
		if !errors.Is(err, m.err) {
			continue
		}
		resp := dto.ErrorResponse{Code: m.code, Message: m.message, Details: errorDetails(err)}
		return c.Status(m.status).JSON(resp)
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func errorDetails(err error) map[string]any {
	details := map[string]any{}
	var ise *domain.InsufficientStockError
	if errors.As(err, &ise) {
		details["stock_item_id"] = ise.StockItemID
		details["product_id"] = ise.ProductID
		details["requested"] = ise.Requested.String()
		details["available"] = ise.Available.String()
	}
	var ie *domain.ItemError
	if errors.As(err, &ie) {
		details["item_index"] = ie.Index
		details["product_id"] = ie.ProductID
	}
	if len(details) == 0 {
		return nil
	}
	return details
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}
