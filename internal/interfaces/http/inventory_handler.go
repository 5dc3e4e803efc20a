package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	domaininv "github.com/jhoicas/stockledger-api/internal/domain/inventory"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// InventoryHandler maneja las peticiones HTTP del ledger de stock (protegido).
type InventoryHandler struct {
	engine *inventory.StockEngine
	log    *logger.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(engine *inventory.StockEngine, log *logger.Logger) *InventoryHandler {
	return &InventoryHandler{engine: engine, log: log}
}

// Initialize godoc
// @Summary      Inicializar stock de un producto
// @Description  Crea la fila de stock para (producto, depósito). Solo una vez por par.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.InitializeStockRequest  true  "product_id, deposit_id (opcional), existencia inicial y umbrales"
// @Success      201   {object}  dto.StockItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/stock/initialize [post]
func (h *InventoryHandler) Initialize(c *fiber.Ctx) error {
	var in dto.InitializeStockRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	item, err := h.engine.Initialize(c.UserContext(), inventory.InitializeInput{
		ProductID:         in.ProductID,
		DepositID:         in.DepositID,
		InitialOnHand:     in.InitialOnHand,
		MinimumThreshold:  in.MinimumThreshold,
		CriticalThreshold: in.CriticalThreshold,
		PerformedBy:       GetUserID(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toStockItemResponse(item))
}

// GetByProduct godoc
// @Summary      Stock de un producto
// @Description  Devuelve null si el producto aún no tiene stock inicializado en el depósito.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId   path   string  true   "ID del producto"
// @Param        deposit_id  query  string  false  "Depósito (vacío = predeterminado)"
// @Success      200  {object}  dto.StockItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock/by-product/{productId} [get]
func (h *InventoryHandler) GetByProduct(c *fiber.Ctx) error {
	productID, depositID := c.Params("productId"), c.Query("deposit_id")
	if !isID(productID) || !isOptionalID(depositID) {
		// un ID mal formado no puede tener stock
		return c.Status(fiber.StatusOK).JSON(nil)
	}
	item, err := h.engine.GetStock(c.UserContext(), productID, depositID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if item == nil {
		return c.Status(fiber.StatusOK).JSON(nil)
	}
	return c.JSON(toStockItemResponse(item))
}

// Adjust godoc
// @Summary      Ajuste manual de stock
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "product_id, quantity, direction IN|OUT, reason"
// @Success      200   {object}  dto.StockItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/stock/adjust [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	item, err := h.engine.Adjust(c.UserContext(), inventory.AdjustInput{
		ProductID:   in.ProductID,
		DepositID:   in.DepositID,
		Quantity:    in.Quantity,
		Direction:   in.Direction,
		Reason:      in.Reason,
		Notes:       in.Notes,
		PerformedBy: GetUserID(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toStockItemResponse(item))
}

// ListMovements godoc
// @Summary      Kardex de un producto
// @Description  Movimientos del más reciente al más antiguo, paginados con next_page_token.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId   path   string  true   "ID del producto"
// @Param        deposit_id  query  string  false  "Depósito (vacío = predeterminado)"
// @Param        page_token  query  string  false  "Token de la página anterior"
// @Param        limit       query  int     false  "Tamaño de página (máx. 200)"
// @Success      200  {object}  dto.MovementPageResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/by-product/{productId} [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	productID, depositID := c.Params("productId"), c.Query("deposit_id")
	if !isID(productID) || !isOptionalID(depositID) {
		return writeError(c, h.log, domain.ErrNotFound)
	}
	page, err := h.engine.ListMovements(c.UserContext(),
		productID, depositID, c.Query("page_token"), c.QueryInt("limit", 0))
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.MovementPageResponse{
		Items:         make([]dto.MovementResponse, 0, len(page.Movements)),
		NextPageToken: page.NextPageToken,
	}
	for _, m := range page.Movements {
		out.Items = append(out.Items, toMovementResponse(m))
	}
	return c.JSON(out)
}

// ListCritical godoc
// @Summary      Productos en estado crítico
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        deposit_id   query  string  false  "Depósito (vacío = todos)"
// @Param        include_low  query  bool    false  "Incluir también estado LOW"
// @Success      200  {array}   dto.StockItemResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock/critical [get]
func (h *InventoryHandler) ListCritical(c *fiber.Ctx) error {
	includeLow := false
	if raw := c.Query("include_low"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "include_low debe ser booleano"})
		}
		includeLow = v
	}
	depositID := c.Query("deposit_id")
	if !isOptionalID(depositID) {
		return c.JSON([]dto.StockItemResponse{})
	}
	items, err := h.engine.ListCritical(c.UserContext(), depositID, includeLow)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.StockItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toStockItemResponse(it))
	}
	return c.JSON(out)
}

// Reconcile godoc
// @Summary      Conciliar existencia contra el kardex
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId   path   string  true   "ID del producto"
// @Param        deposit_id  query  string  false  "Depósito (vacío = predeterminado)"
// @Success      200  {object}  dto.ReconciliationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock/reconcile/{productId} [get]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	productID, depositID := c.Params("productId"), c.Query("deposit_id")
	if !isID(productID) || !isOptionalID(depositID) {
		return writeError(c, h.log, domain.ErrNotFound)
	}
	rec, err := h.engine.Reconcile(c.UserContext(), productID, depositID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ReconciliationResponse{
		StockItemID:    rec.StockItemID,
		OnHand:         rec.OnHand,
		ReplayedOnHand: rec.ReplayedOnHand,
		MovementCount:  rec.MovementCount,
		Balanced:       rec.Balanced,
	})
}

// Availability godoc
// @Summary      Disponible para el carrito del POS
// @Description  Proyección optimista (no reserva): existencia menos lo ya colocado en el carrito.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AvailabilityRequest  true  "carrito y línea candidata opcional"
// @Success      200   {object}  dto.AvailabilityResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/availability [post]
func (h *InventoryHandler) Availability(c *fiber.Ctx) error {
	var in dto.AvailabilityRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	cart := make([]domaininv.CartLine, 0, len(in.Cart))
	for _, l := range in.Cart {
		cart = append(cart, domaininv.CartLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	var candidate *domaininv.CartLine
	if in.Candidate != nil {
		candidate = &domaininv.CartLine{ProductID: in.Candidate.ProductID, Quantity: in.Candidate.Quantity}
	}
	view, err := h.engine.Availability(c.UserContext(), in.DepositID, cart, candidate)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.AvailabilityResponse{Products: make([]dto.ProductAvailability, 0, len(view.Products)), CanAdd: view.CanAdd}
	for _, p := range view.Products {
		out.Products = append(out.Products, dto.ProductAvailability{
			ProductID:   p.ProductID,
			Initialized: p.Initialized,
			OnHand:      p.OnHand,
			InCart:      p.InCart,
			Available:   p.Available,
		})
	}
	return c.JSON(out)
}

func toStockItemResponse(it *entity.StockItem) dto.StockItemResponse {
	return dto.StockItemResponse{
		ID:                it.ID,
		ProductID:         it.ProductID,
		DepositID:         it.DepositID,
		OnHand:            it.OnHand,
		MinimumThreshold:  it.MinimumThreshold,
		CriticalThreshold: it.CriticalThreshold,
		State:             string(it.State()),
		UpdatedAt:         it.UpdatedAt,
	}
}

func toMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:                m.ID,
		Sequence:          m.Sequence,
		StockItemID:       m.StockItemID,
		Type:              string(m.Type),
		Quantity:          m.Quantity,
		BalanceAfter:      m.BalanceAfter,
		Reason:            m.Reason,
		Notes:             m.Notes,
		ReferenceType:     m.ReferenceType,
		ReferenceID:       m.ReferenceID,
		PerformedByUserID: m.PerformedByUserID,
		CreatedAt:         m.CreatedAt,
	}
}
