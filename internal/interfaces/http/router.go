package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/application/sales"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/jhoicas/stockledger-api/pkg/jwt"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Engine      *inventory.StockEngine
	Sales       *sales.LifecycleUseCase
	DepositRepo repository.DepositRepository
	JWTSecret   string
	JWTIssuer   string
	Log         *logger.Logger
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	stockWriters := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero)
	sellers := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero, jwt.RoleVendedor)

	// Inventario
	inv := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Engine, log.Named("http.inventory"))
	inv.Post("/stock/initialize", stockWriters, inventoryHandler.Initialize)
	inv.Post("/stock/adjust", stockWriters, inventoryHandler.Adjust)
	inv.Get("/stock/by-product/:productId", inventoryHandler.GetByProduct)
	inv.Get("/stock/critical", inventoryHandler.ListCritical)
	inv.Get("/stock/reconcile/:productId", RequireRole(jwt.RoleAdmin), inventoryHandler.Reconcile)
	inv.Get("/movements/by-product/:productId", inventoryHandler.ListMovements)
	inv.Post("/availability", inventoryHandler.Availability)

	// Depósitos
	depositHandler := NewDepositHandler(deps.DepositRepo, log.Named("http.deposits"))
	inv.Get("/deposits/default", depositHandler.GetDefault)
	inv.Get("/deposits", depositHandler.List)

	// Ventas
	salesGroup := api.Group("/sales", sellers)
	saleHandler := NewSaleHandler(deps.Sales, log.Named("http.sales"))
	salesGroup.Post("/", saleHandler.Create)
	salesGroup.Get("/", saleHandler.List)
	salesGroup.Get("/:id", saleHandler.GetByID)
	salesGroup.Post("/:id/confirm", saleHandler.Confirm)
	salesGroup.Post("/:id/cancel", saleHandler.Cancel)
}
