package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// DepositHandler lectura de depósitos (protegido).
type DepositHandler struct {
	repo repository.DepositRepository
	log  *logger.Logger
}

// NewDepositHandler construye el handler.
func NewDepositHandler(repo repository.DepositRepository, log *logger.Logger) *DepositHandler {
	return &DepositHandler{repo: repo, log: log}
}

// GetDefault godoc
// @Summary      Depósito predeterminado
// @Tags         deposits
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.DepositResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/deposits/default [get]
func (h *DepositHandler) GetDefault(c *fiber.Ctx) error {
	dep, err := h.repo.GetDefault(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	if dep == nil {
		return writeError(c, h.log, domain.ErrNotFound)
	}
	return c.JSON(toDepositResponse(dep))
}

// List godoc
// @Summary      Listar depósitos
// @Tags         deposits
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.DepositResponse
// @Router       /api/inventory/deposits [get]
func (h *DepositHandler) List(c *fiber.Ctx) error {
	list, err := h.repo.List(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.DepositResponse, 0, len(list))
	for _, d := range list {
		out = append(out, toDepositResponse(d))
	}
	return c.JSON(out)
}

func toDepositResponse(d *entity.Deposit) dto.DepositResponse {
	return dto.DepositResponse{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		IsDefault:   d.IsDefault,
		CreatedAt:   d.CreatedAt,
	}
}
