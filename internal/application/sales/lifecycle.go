package sales

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/jhoicas/stockledger-api/pkg/logger"
	"github.com/jhoicas/stockledger-api/pkg/telemetry"
)

const instrumentation = "github.com/jhoicas/stockledger-api/internal/application/sales"

// ReasonSale motivo de los SALE_OUT generados al confirmar.
const ReasonSale = "Venta"

// LifecycleUseCase maneja DRAFT -> CONFIRMED | CANCELLED. Solo la confirmación toca el stock.
type LifecycleUseCase struct {
	txRunner    SalesTxRunner
	stock       StockPoster
	saleRepo    repository.SaleRepository
	productRepo repository.ProductRepository
	log         *logger.Logger
	now         func() time.Time

	confirmed metric.Int64Counter
	failed    metric.Int64Counter
}

// NewLifecycleUseCase construye el caso de uso.
func NewLifecycleUseCase(
	txRunner SalesTxRunner,
	stock StockPoster,
	saleRepo repository.SaleRepository,
	productRepo repository.ProductRepository,
	log *logger.Logger,
) *LifecycleUseCase {
	if log == nil {
		log = logger.Nop()
	}
	meter := otel.Meter(instrumentation)
	return &LifecycleUseCase{
		txRunner:    txRunner,
		stock:       stock,
		saleRepo:    saleRepo,
		productRepo: productRepo,
		log:         log.Named("sales"),
		now:         func() time.Time { return time.Now().UTC() },
		confirmed:   telemetry.Counter(meter, "sales.confirmed", "ventas confirmadas"),
		failed:      telemetry.Counter(meter, "sales.confirm_failed", "confirmaciones revertidas"),
	}
}

// CreateDraft valida las líneas, resuelve precios actuales y guarda la venta en DRAFT.
// No tiene efecto sobre el stock.
func (uc *LifecycleUseCase) CreateDraft(ctx context.Context, userID string, in dto.CreateSaleRequest) (*entity.Sale, error) {
	ctx, span := otel.Tracer(instrumentation).Start(ctx, "LifecycleUseCase.CreateDraft")
	defer span.End()

	if len(in.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}
	depositID, err := uc.stock.ResolveDeposit(ctx, in.DepositID)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	sale := &entity.Sale{
		ID:               uuid.New().String(),
		Status:           entity.SaleStatusDraft,
		DepositID:        depositID,
		SoldByUserID:     userID,
		CustomerName:     strings.TrimSpace(in.CustomerName),
		CustomerDocument: strings.TrimSpace(in.CustomerDocument),
		Notes:            in.Notes,
		CreatedAt:        now,
	}
	for i, it := range in.Items {
		if it.ProductID == "" || !it.Quantity.IsPositive() || it.DiscountAmount.IsNegative() ||
			!domain.FitsScale(it.Quantity, it.DiscountAmount) {
			return nil, &domain.ItemError{Index: i, ProductID: it.ProductID, Err: domain.ErrInvalidItem}
		}
		product, err := uc.sellable(ctx, it.ProductID)
		if err != nil {
			return nil, &domain.ItemError{Index: i, ProductID: it.ProductID, Err: err}
		}
		item := entity.SaleItem{
			ID:             uuid.New().String(),
			SaleID:         sale.ID,
			ProductID:      it.ProductID,
			Quantity:       it.Quantity,
			DiscountAmount: it.DiscountAmount,
		}
		item.Price(product.Price)
		if item.DiscountAmount.GreaterThan(item.LineSubtotal) {
			return nil, &domain.ItemError{Index: i, ProductID: it.ProductID, Err: domain.ErrInvalidItem}
		}
		sale.Items = append(sale.Items, item)
	}
	sale.Recalculate()

	err = uc.txRunner.RunSales(ctx, func(
		_ repository.StockItemRepository,
		_ repository.MovementRepository,
		saleRepo repository.SaleRepository,
	) error {
		return saleRepo.Create(ctx, sale)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return sale, nil
}

// Confirm bloquea la venta, congela precios actuales y descuenta el stock de todas las
// líneas en una sola transacción. Cualquier fallo revierte todo y la venta queda en DRAFT.
func (uc *LifecycleUseCase) Confirm(ctx context.Context, saleID, userID string) (*entity.Sale, error) {
	ctx, span := otel.Tracer(instrumentation).Start(ctx, "LifecycleUseCase.Confirm")
	defer span.End()
	span.SetAttributes(attribute.String("sale.id", saleID))

	if saleID == "" {
		return nil, domain.ErrInvalidInput
	}

	var confirmed *entity.Sale
	var posted int
	err := uc.txRunner.RunSales(ctx, func(
		stockRepo repository.StockItemRepository,
		movRepo repository.MovementRepository,
		saleRepo repository.SaleRepository,
	) error {
		sale, err := saleRepo.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if err := checkDraft(sale); err != nil {
			return err
		}
		if len(sale.Items) == 0 {
			return domain.ErrEmptyCart
		}

		// Precio congelado al confirmar.
		for i := range sale.Items {
			product, err := uc.sellable(ctx, sale.Items[i].ProductID)
			if err != nil {
				return &domain.ItemError{Index: i, ProductID: sale.Items[i].ProductID, Err: err}
			}
			sale.Items[i].Price(product.Price)
			if sale.Items[i].DiscountAmount.GreaterThan(sale.Items[i].LineSubtotal) {
				return &domain.ItemError{Index: i, ProductID: sale.Items[i].ProductID, Err: domain.ErrInvalidItem}
			}
		}
		sale.Recalculate()

		// Orden estable por producto: los bloqueos de fila se toman siempre en el mismo orden.
		order := make([]int, len(sale.Items))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return sale.Items[order[a]].ProductID < sale.Items[order[b]].ProductID
		})
		posted = 0
		for _, idx := range order {
			line := sale.Items[idx]
			item, err := stockRepo.GetByProduct(ctx, line.ProductID, sale.DepositID)
			if err != nil {
				return err
			}
			if item == nil {
				return &domain.ItemError{Index: idx, ProductID: line.ProductID, Err: domain.ErrNotInitialized}
			}
			if _, err := uc.stock.PostMovementInTx(ctx, stockRepo, movRepo, inventory.PostMovementInput{
				StockItemID:   item.ID,
				Type:          entity.MovementSaleOut,
				Quantity:      line.Quantity,
				Reason:        ReasonSale,
				ReferenceType: entity.ReferenceSale,
				ReferenceID:   sale.ID,
				PerformedBy:   userID,
			}); err != nil {
				return err
			}
			posted++
		}

		sale.MarkConfirmed(uc.now())
		if err := saleRepo.Update(ctx, sale); err != nil {
			return err
		}
		confirmed = sale
		return nil
	})
	if err != nil {
		uc.failed.Add(ctx, 1)
		span.SetStatus(codes.Error, err.Error())
		uc.log.Info().Err(err).Str("sale_id", saleID).Msg("confirmación de venta revertida")
		return nil, err
	}

	uc.stock.MovementsCommitted(ctx, posted)
	uc.confirmed.Add(ctx, 1)
	uc.log.Info().
		Str("sale_id", confirmed.ID).
		Str("deposit_id", confirmed.DepositID).
		Int("lines", len(confirmed.Items)).
		Str("total", confirmed.Total.String()).
		Msg("venta confirmada")
	return confirmed, nil
}

// Cancel anula una venta en DRAFT. No tiene efecto sobre el stock.
func (uc *LifecycleUseCase) Cancel(ctx context.Context, saleID string) (*entity.Sale, error) {
	if saleID == "" {
		return nil, domain.ErrInvalidInput
	}
	var cancelled *entity.Sale
	err := uc.txRunner.RunSales(ctx, func(
		_ repository.StockItemRepository,
		_ repository.MovementRepository,
		saleRepo repository.SaleRepository,
	) error {
		sale, err := saleRepo.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if err := checkDraft(sale); err != nil {
			return err
		}
		sale.MarkCancelled(uc.now())
		if err := saleRepo.Update(ctx, sale); err != nil {
			return err
		}
		cancelled = sale
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("sale_id", cancelled.ID).Msg("venta anulada")
	return cancelled, nil
}

// Get devuelve la venta o domain.ErrNotFound.
func (uc *LifecycleUseCase) Get(ctx context.Context, saleID string) (*entity.Sale, error) {
	sale, err := uc.saleRepo.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	return sale, nil
}

// List ventas recientes, opcionalmente filtradas por estado.
func (uc *LifecycleUseCase) List(ctx context.Context, status entity.SaleStatus, limit, offset int) ([]*entity.Sale, error) {
	switch status {
	case "", entity.SaleStatusDraft, entity.SaleStatusConfirmed, entity.SaleStatusCancelled:
	default:
		return nil, domain.ErrInvalidInput
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return uc.saleRepo.List(ctx, status, limit, offset)
}

func (uc *LifecycleUseCase) sellable(ctx context.Context, productID string) (*entity.Product, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.Sellable() {
		return nil, domain.ErrProductNotFound
	}
	return product, nil
}

func checkDraft(sale *entity.Sale) error {
	if sale == nil {
		return domain.ErrNotFound
	}
	if sale.IsDraft() {
		return nil
	}
	if sale.Status == entity.SaleStatusConfirmed {
		return domain.ErrAlreadyConfirmed
	}
	return domain.ErrSaleCancelled
}
