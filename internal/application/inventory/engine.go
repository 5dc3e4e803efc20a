package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	domaininv "github.com/jhoicas/stockledger-api/internal/domain/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/jhoicas/stockledger-api/pkg/logger"
	"github.com/jhoicas/stockledger-api/pkg/telemetry"
)

const instrumentation = "github.com/jhoicas/stockledger-api/internal/application/inventory"

// Razones que el motor escribe por su cuenta en el kardex.
const (
	ReasonInitialStock = "Inventario inicial"
)

// StockEngine es el único que modifica la existencia. Cada movimiento se aplica
// en una transacción con bloqueo de fila (SELECT FOR UPDATE) y Commit/Rollback.
type StockEngine struct {
	txRunner    TxRunner
	stockRepo   repository.StockItemRepository
	movRepo     repository.MovementRepository
	productRepo repository.ProductRepository
	depositRepo repository.DepositRepository
	cache       CriticalCache
	log         *logger.Logger
	now         func() time.Time

	posted   metric.Int64Counter
	rejected metric.Int64Counter
}

// NewStockEngine construye el motor. cache y log son opcionales.
func NewStockEngine(
	txRunner TxRunner,
	stockRepo repository.StockItemRepository,
	movRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
	depositRepo repository.DepositRepository,
	cache CriticalCache,
	log *logger.Logger,
) *StockEngine {
	if log == nil {
		log = logger.Nop()
	}
	meter := otel.Meter(instrumentation)
	return &StockEngine{
		txRunner:    txRunner,
		stockRepo:   stockRepo,
		movRepo:     movRepo,
		productRepo: productRepo,
		depositRepo: depositRepo,
		cache:       cache,
		log:         log.Named("stock_engine"),
		now:         func() time.Time { return time.Now().UTC() },
		posted:      telemetry.Counter(meter, "stock.movements.posted", "movimientos aceptados en el kardex"),
		rejected:    telemetry.Counter(meter, "stock.movements.rejected", "movimientos rechazados por stock insuficiente"),
	}
}

// InitializeInput entrada para crear la fila de stock de un producto.
type InitializeInput struct {
	ProductID         string
	DepositID         string // vacío = depósito predeterminado
	InitialOnHand     decimal.Decimal
	MinimumThreshold  decimal.Decimal
	CriticalThreshold decimal.Decimal
	PerformedBy       string
}

// PostMovementInput entrada para registrar un movimiento sobre una fila existente.
type PostMovementInput struct {
	StockItemID   string
	Type          entity.MovementType
	Quantity      decimal.Decimal
	Reason        string
	Notes         string
	ReferenceType string
	ReferenceID   string
	PerformedBy   string
}

// AdjustInput ajuste manual por producto (IN suma, OUT resta).
type AdjustInput struct {
	ProductID   string
	DepositID   string
	Quantity    decimal.Decimal
	Direction   string // IN | OUT
	Reason      string
	Notes       string
	PerformedBy string
}

// MovementPage página del kardex, del más reciente al más antiguo.
type MovementPage struct {
	StockItemID   string
	Movements     []*entity.Movement
	NextPageToken string
}

// Reconciliation resultado de comparar la existencia con el replay del kardex.
type Reconciliation struct {
	StockItemID    string
	OnHand         decimal.Decimal
	ReplayedOnHand decimal.Decimal
	MovementCount  int
	Balanced       bool
}

// Initialize crea la fila de stock para (producto, depósito). Falla con ErrAlreadyInitialized
// si ya existe. Si la existencia inicial es mayor a cero registra un ADJUSTMENT_IN.
func (e *StockEngine) Initialize(ctx context.Context, in InitializeInput) (*entity.StockItem, error) {
	ctx, span := otel.Tracer(instrumentation).Start(ctx, "StockEngine.Initialize")
	defer span.End()

	if in.ProductID == "" || in.InitialOnHand.IsNegative() ||
		in.MinimumThreshold.IsNegative() || in.CriticalThreshold.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if !domain.FitsScale(in.InitialOnHand, in.MinimumThreshold, in.CriticalThreshold) {
		return nil, domain.ErrInvalidInput
	}
	product, err := e.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}
	depositID, err := e.ResolveDeposit(ctx, in.DepositID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	item := &entity.StockItem{
		ID:                uuid.New().String(),
		ProductID:         in.ProductID,
		DepositID:         depositID,
		OnHand:            in.InitialOnHand,
		MinimumThreshold:  in.MinimumThreshold,
		CriticalThreshold: in.CriticalThreshold,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if !item.ThresholdsOrdered() {
		e.log.Warn().
			Str("product_id", in.ProductID).
			Str("minimum", in.MinimumThreshold.String()).
			Str("critical", in.CriticalThreshold.String()).
			Msg("umbral crítico mayor que el mínimo")
	}

	err = e.txRunner.Run(ctx, func(stockRepo repository.StockItemRepository, movRepo repository.MovementRepository) error {
		existing, err := stockRepo.GetByProduct(ctx, in.ProductID, depositID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrAlreadyInitialized
		}
		if err := stockRepo.Create(ctx, item); err != nil {
			return err
		}
		if !in.InitialOnHand.IsPositive() {
			return nil
		}
		return movRepo.Append(ctx, &entity.Movement{
			StockItemID:       item.ID,
			Type:              entity.MovementAdjustmentIn,
			Quantity:          in.InitialOnHand,
			BalanceAfter:      in.InitialOnHand,
			Reason:            ReasonInitialStock,
			PerformedByUserID: in.PerformedBy,
			CreatedAt:         now,
		})
	})
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	e.invalidate(ctx)
	e.log.Info().
		Str("stock_item_id", item.ID).
		Str("product_id", item.ProductID).
		Str("deposit_id", item.DepositID).
		Str("on_hand", item.OnHand.String()).
		Msg("stock inicializado")
	return item, nil
}

// PostMovement aplica un movimiento en su propia transacción y devuelve la fila actualizada.
func (e *StockEngine) PostMovement(ctx context.Context, in PostMovementInput) (*entity.StockItem, error) {
	ctx, span := otel.Tracer(instrumentation).Start(ctx, "StockEngine.PostMovement")
	defer span.End()
	span.SetAttributes(
		attribute.String("stock_item.id", in.StockItemID),
		attribute.String("movement.type", string(in.Type)),
	)

	if err := validateMovement(in); err != nil {
		return nil, err
	}

	var updated *entity.StockItem
	err := e.txRunner.Run(ctx, func(stockRepo repository.StockItemRepository, movRepo repository.MovementRepository) error {
		item, err := e.PostMovementInTx(ctx, stockRepo, movRepo, in)
		if err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	e.MovementsCommitted(ctx, 1)
	return updated, nil
}

// PostMovementInTx aplica el movimiento usando los repositorios del caller (misma transacción).
// Bloquea la fila, verifica que la existencia no quede negativa, actualiza y agrega al kardex.
// Si retorna error el caller debe hacer rollback.
func (e *StockEngine) PostMovementInTx(
	ctx context.Context,
	stockRepo repository.StockItemRepository,
	movRepo repository.MovementRepository,
	in PostMovementInput,
) (*entity.StockItem, error) {
	if err := validateMovement(in); err != nil {
		return nil, err
	}
	item, err := stockRepo.GetForUpdate(ctx, in.StockItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	newOnHand := item.OnHand.Add(in.Type.Signed(in.Quantity))
	if newOnHand.IsNegative() {
		e.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("movement.type", string(in.Type))))
		e.log.Info().
			Str("stock_item_id", item.ID).
			Str("requested", in.Quantity.String()).
			Str("available", item.OnHand.String()).
			Msg("movimiento rechazado por stock insuficiente")
		return nil, &domain.InsufficientStockError{
			StockItemID: item.ID,
			ProductID:   item.ProductID,
			Requested:   in.Quantity,
			Available:   item.OnHand,
		}
	}

	now := e.now()
	item.OnHand = newOnHand
	item.UpdatedAt = now
	if err := stockRepo.UpdateOnHand(ctx, item); err != nil {
		return nil, err
	}
	mov := &entity.Movement{
		StockItemID:       item.ID,
		Type:              in.Type,
		Quantity:          in.Quantity,
		BalanceAfter:      newOnHand,
		Reason:            in.Reason,
		Notes:             in.Notes,
		ReferenceType:     in.ReferenceType,
		ReferenceID:       in.ReferenceID,
		PerformedByUserID: in.PerformedBy,
		CreatedAt:         now,
	}
	if err := movRepo.Append(ctx, mov); err != nil {
		return nil, err
	}
	return item, nil
}

// MovementsCommitted se invoca tras el commit de una transacción que registró n movimientos.
func (e *StockEngine) MovementsCommitted(ctx context.Context, n int) {
	e.posted.Add(ctx, int64(n))
	e.invalidate(ctx)
}

// Adjust registra un ajuste manual (ADJUSTMENT_IN / ADJUSTMENT_OUT) sobre el stock del producto.
func (e *StockEngine) Adjust(ctx context.Context, in AdjustInput) (*entity.StockItem, error) {
	var typ entity.MovementType
	switch strings.ToUpper(strings.TrimSpace(in.Direction)) {
	case "IN":
		typ = entity.MovementAdjustmentIn
	case "OUT":
		typ = entity.MovementAdjustmentOut
	default:
		return nil, domain.ErrInvalidInput
	}
	if in.ProductID == "" || !in.Quantity.IsPositive() || !domain.FitsScale(in.Quantity) || strings.TrimSpace(in.Reason) == "" {
		return nil, domain.ErrInvalidInput
	}
	item, err := e.GetStock(ctx, in.ProductID, in.DepositID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotInitialized
	}
	return e.PostMovement(ctx, PostMovementInput{
		StockItemID: item.ID,
		Type:        typ,
		Quantity:    in.Quantity,
		Reason:      in.Reason,
		Notes:       in.Notes,
		PerformedBy: in.PerformedBy,
	})
}

// GetStock devuelve la fila del producto en el depósito, o nil si aún no fue inicializada.
// "Sin stock inicializado" es un estado válido, no un error.
func (e *StockEngine) GetStock(ctx context.Context, productID, depositID string) (*entity.StockItem, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	depositID, err := e.ResolveDeposit(ctx, depositID)
	if err != nil {
		return nil, err
	}
	return e.stockRepo.GetByProduct(ctx, productID, depositID)
}

// ListMovements devuelve una página del kardex del producto. Sin fila de stock es ErrNotFound.
func (e *StockEngine) ListMovements(ctx context.Context, productID, depositID, pageToken string, limit int) (*MovementPage, error) {
	item, err := e.GetStock(ctx, productID, depositID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	beforeSeq, err := decodePageToken(pageToken)
	if err != nil {
		return nil, err
	}
	limit = clampLimit(limit)

	list, err := e.movRepo.ListByStockItem(ctx, item.ID, beforeSeq, limit+1)
	if err != nil {
		return nil, err
	}
	page := &MovementPage{StockItemID: item.ID, Movements: list}
	if len(list) > limit {
		page.Movements = list[:limit]
		page.NextPageToken = encodePageToken(page.Movements[limit-1].Sequence)
	}
	return page, nil
}

// ListCritical lista las filas en estado CRITICAL (o LOW ∪ CRITICAL si includeLow).
// depositID vacío considera todos los depósitos. La lectura puede venir de caché.
func (e *StockEngine) ListCritical(ctx context.Context, depositID string, includeLow bool) ([]*entity.StockItem, error) {
	states := []entity.StockState{entity.StockStateCritical}
	scope := "critical"
	if includeLow {
		states = append(states, entity.StockStateLow)
		scope = "low_critical"
	}
	loader := func(ctx context.Context) ([]*entity.StockItem, error) {
		return e.stockRepo.ListByStates(ctx, depositID, states...)
	}
	if e.cache == nil {
		return loader(ctx)
	}
	deposit := depositID
	if deposit == "" {
		deposit = "all"
	}
	items, err := e.cache.FetchCritical(ctx, "stock:"+scope+":"+deposit, loader)
	if err != nil {
		e.log.Warn().Err(err).Msg("caché de críticos no disponible, leyendo de la BD")
		return loader(ctx)
	}
	return items, nil
}

// Reconcile reconstruye la existencia desde el kardex y la compara con la materializada.
func (e *StockEngine) Reconcile(ctx context.Context, productID, depositID string) (*Reconciliation, error) {
	item, err := e.GetStock(ctx, productID, depositID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	movements, err := e.movRepo.ListForReplay(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	res, ok := domaininv.Reconciles(item, movements)
	if !ok {
		e.log.Error().
			Str("stock_item_id", item.ID).
			Str("on_hand", item.OnHand.String()).
			Str("replayed", res.OnHand.String()).
			Msg("kardex descuadrado")
	}
	return &Reconciliation{
		StockItemID:    item.ID,
		OnHand:         item.OnHand,
		ReplayedOnHand: res.OnHand,
		MovementCount:  res.MovementCount,
		Balanced:       ok,
	}, nil
}

// ResolveDeposit valida el depósito; vacío = predeterminado.
func (e *StockEngine) ResolveDeposit(ctx context.Context, depositID string) (string, error) {
	if depositID == "" {
		def, err := e.depositRepo.GetDefault(ctx)
		if err != nil {
			return "", err
		}
		if def == nil {
			return "", domain.ErrNotFound
		}
		return def.ID, nil
	}
	dep, err := e.depositRepo.GetByID(ctx, depositID)
	if err != nil {
		return "", err
	}
	if dep == nil {
		return "", domain.ErrNotFound
	}
	return dep.ID, nil
}

func (e *StockEngine) invalidate(ctx context.Context) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Invalidate(ctx); err != nil {
		e.log.Warn().Err(err).Msg("no se pudo invalidar la caché de críticos")
	}
}

func validateMovement(in PostMovementInput) error {
	if in.StockItemID == "" || !in.Type.Valid() || !in.Quantity.IsPositive() || !domain.FitsScale(in.Quantity) {
		return domain.ErrInvalidInput
	}
	if strings.TrimSpace(in.Reason) == "" {
		return domain.ErrInvalidInput
	}
	return nil
}

func recordError(span trace.Span, err error) {
	if errors.Is(err, domain.ErrInsufficientStock) || errors.Is(err, domain.ErrAlreadyInitialized) {
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
