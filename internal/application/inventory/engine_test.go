package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	domaininv "github.com/jhoicas/stockledger-api/internal/domain/inventory"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type fixture struct {
	store   *memory.Store
	engine  *inventory.StockEngine
	product entity.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	product := store.SeedProduct(entity.Product{SKU: "SKU-1", Name: "Café", Price: d(1000), Active: true})
	engine := inventory.NewStockEngine(store, store.StockItems(), store.Movements(), store.Products(), store.Deposits(), nil, nil)
	return &fixture{store: store, engine: engine, product: product}
}

func (f *fixture) initialize(t *testing.T, onHand int64) *entity.StockItem {
	t.Helper()
	item, err := f.engine.Initialize(context.Background(), inventory.InitializeInput{
		ProductID:         f.product.ID,
		InitialOnHand:     d(onHand),
		MinimumThreshold:  d(5),
		CriticalThreshold: d(2),
		PerformedBy:       "u1",
	})
	require.NoError(t, err)
	return item
}

func (f *fixture) post(typ entity.MovementType, stockItemID string, qty int64) (*entity.StockItem, error) {
	return f.engine.PostMovement(context.Background(), inventory.PostMovementInput{
		StockItemID: stockItemID,
		Type:        typ,
		Quantity:    d(qty),
		Reason:      "prueba",
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Initialize
// ──────────────────────────────────────────────────────────────────────────────

func TestInitialize_CreaFilaYMovimientoInicial(t *testing.T) {
	f := newFixture(t)
	item := f.initialize(t, 10)

	assert.True(t, item.OnHand.Equal(d(10)))
	assert.Equal(t, entity.StockStateOK, item.State())
	assert.NotEmpty(t, item.DepositID, "usa el depósito predeterminado")

	page, err := f.engine.ListMovements(context.Background(), f.product.ID, "", "", 0)
	require.NoError(t, err)
	require.Len(t, page.Movements, 1)
	m := page.Movements[0]
	assert.Equal(t, entity.MovementAdjustmentIn, m.Type)
	assert.True(t, m.Quantity.Equal(d(10)))
	assert.Equal(t, inventory.ReasonInitialStock, m.Reason)
	assert.Equal(t, "u1", m.PerformedByUserID)
}

func TestInitialize_SinExistenciaNoRegistraMovimiento(t *testing.T) {
	f := newFixture(t)
	item := f.initialize(t, 0)
	assert.Equal(t, entity.StockStateCritical, item.State())

	page, err := f.engine.ListMovements(context.Background(), f.product.ID, "", "", 0)
	require.NoError(t, err)
	assert.Empty(t, page.Movements)
}

func TestInitialize_SegundaVezFalla(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 10)

	_, err := f.engine.Initialize(context.Background(), inventory.InitializeInput{ProductID: f.product.ID, InitialOnHand: d(3)})
	require.ErrorIs(t, err, domain.ErrAlreadyInitialized)

	item, err := f.engine.GetStock(context.Background(), f.product.ID, "")
	require.NoError(t, err)
	assert.True(t, item.OnHand.Equal(d(10)), "el segundo intento no modifica nada")
}

func TestInitialize_Concurrente_SoloUnoGana(t *testing.T) {
	f := newFixture(t)
	var g errgroup.Group
	results := make([]error, 8)
	for i := range results {
		g.Go(func() error {
			_, results[i] = f.engine.Initialize(context.Background(), inventory.InitializeInput{
				ProductID: f.product.ID, InitialOnHand: d(1),
			})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	ok := 0
	for _, err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrAlreadyInitialized)
	}
	assert.Equal(t, 1, ok)
}

func TestInitialize_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Initialize(ctx, inventory.InitializeInput{ProductID: "desconocido"})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = f.engine.Initialize(ctx, inventory.InitializeInput{ProductID: f.product.ID, InitialOnHand: d(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.engine.Initialize(ctx, inventory.InitializeInput{ProductID: f.product.ID, DepositID: "no-existe"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInitialize_UmbralesInvertidosSePermiten(t *testing.T) {
	f := newFixture(t)
	item, err := f.engine.Initialize(context.Background(), inventory.InitializeInput{
		ProductID: f.product.ID, InitialOnHand: d(4), MinimumThreshold: d(2), CriticalThreshold: d(5),
	})
	require.NoError(t, err)
	assert.False(t, item.ThresholdsOrdered())
	assert.Equal(t, entity.StockStateCritical, item.State())
}

// ──────────────────────────────────────────────────────────────────────────────
// PostMovement
// ──────────────────────────────────────────────────────────────────────────────

func TestPostMovement_NuncaNegativo(t *testing.T) {
	f := newFixture(t)
	item := f.initialize(t, 5)

	_, err := f.post(entity.MovementSaleOut, item.ID, 6)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, item.ID, ise.StockItemID)
	assert.Equal(t, f.product.ID, ise.ProductID)
	assert.True(t, ise.Requested.Equal(d(6)))
	assert.True(t, ise.Available.Equal(d(5)))

	cur, err := f.engine.GetStock(context.Background(), f.product.ID, "")
	require.NoError(t, err)
	assert.True(t, cur.OnHand.Equal(d(5)), "un rechazo no modifica la existencia")

	updated, err := f.post(entity.MovementSaleOut, item.ID, 5)
	require.NoError(t, err)
	assert.True(t, updated.OnHand.IsZero())
	assert.Equal(t, entity.StockStateCritical, updated.State())
}

func TestPostMovement_EstadoDerivado(t *testing.T) {
	f := newFixture(t)
	item := f.initialize(t, 10)

	cases := []struct {
		typ   entity.MovementType
		qty   int64
		state entity.StockState
	}{
		{entity.MovementSaleOut, 5, entity.StockStateLow},         // 5 <= minimum
		{entity.MovementAdjustmentOut, 3, entity.StockStateCritical}, // 2 <= critical
		{entity.MovementReturnIn, 1, entity.StockStateLow},        // 3
		{entity.MovementPurchaseIn, 10, entity.StockStateOK},      // 13
	}
	for _, tc := range cases {
		got, err := f.post(tc.typ, item.ID, tc.qty)
		require.NoError(t, err)
		assert.Equal(t, tc.state, got.State(), "%s %d", tc.typ, tc.qty)
	}
}

func TestPostMovement_Validaciones(t *testing.T) {
	f := newFixture(t)
	item := f.initialize(t, 10)
	ctx := context.Background()

	_, err := f.post(entity.MovementSaleOut, item.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.post("TRANSFER", item.ID, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.engine.PostMovement(ctx, inventory.PostMovementInput{StockItemID: item.ID, Type: entity.MovementSaleOut, Quantity: d(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "motivo obligatorio")
	_, err = f.post(entity.MovementSaleOut, "no-existe", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// NUMERIC(18,4): una quinta cifra decimal se rechaza en lugar de redondearse al persistir.
func TestValidaciones_MasDeCuatroDecimales(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fine := decimal.RequireFromString("0.00001")

	_, err := f.engine.Initialize(ctx, inventory.InitializeInput{ProductID: f.product.ID, InitialOnHand: fine})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.engine.Initialize(ctx, inventory.InitializeInput{ProductID: f.product.ID, MinimumThreshold: fine})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.engine.Initialize(ctx, inventory.InitializeInput{ProductID: f.product.ID, CriticalThreshold: fine})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	item := f.initialize(t, 10)
	_, err = f.engine.PostMovement(ctx, inventory.PostMovementInput{
		StockItemID: item.ID, Type: entity.MovementSaleOut, Quantity: fine, Reason: "prueba",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.engine.Adjust(ctx, inventory.AdjustInput{
		ProductID: f.product.ID, Direction: "IN", Quantity: decimal.RequireFromString("1.23456"), Reason: "prueba",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	got, err := f.engine.PostMovement(ctx, inventory.PostMovementInput{
		StockItemID: item.ID, Type: entity.MovementSaleOut, Quantity: decimal.RequireFromString("0.0001"), Reason: "prueba",
	})
	require.NoError(t, err, "cuatro decimales se admiten")
	assert.True(t, got.OnHand.Equal(decimal.RequireFromString("9.9999")))

	page, err := f.engine.ListMovements(ctx, f.product.ID, "", "", 0)
	require.NoError(t, err)
	assert.Len(t, page.Movements, 2, "los rechazos no registran movimientos")
}

// Dos salidas concurrentes de 3 sobre 5 unidades: exactamente una se rechaza.
func TestPostMovement_Concurrente(t *testing.T) {
	f := newFixture(t)
	item := f.initialize(t, 5)

	var g errgroup.Group
	results := make([]error, 2)
	for i := range results {
		g.Go(func() error {
			_, results[i] = f.post(entity.MovementSaleOut, item.ID, 3)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	failed := 0
	for _, err := range results {
		if err != nil {
			require.ErrorIs(t, err, domain.ErrInsufficientStock)
			failed++
		}
	}
	assert.Equal(t, 1, failed)

	cur, err := f.engine.GetStock(context.Background(), f.product.ID, "")
	require.NoError(t, err)
	assert.True(t, cur.OnHand.Equal(d(2)))
}

// Muchas operaciones concurrentes mezcladas: el kardex siempre cuadra con la existencia.
func TestReconcile_TrasCargaConcurrente(t *testing.T) {
	f := newFixture(t)
	item := f.initialize(t, 20)

	var g errgroup.Group
	for i := 0; i < 40; i++ {
		typ := entity.MovementSaleOut
		if i%3 == 0 {
			typ = entity.MovementPurchaseIn
		}
		g.Go(func() error {
			_, err := f.post(typ, item.ID, int64(i%4+1))
			if err != nil && !errors.Is(err, domain.ErrInsufficientStock) {
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	rec, err := f.engine.Reconcile(context.Background(), f.product.ID, "")
	require.NoError(t, err)
	assert.True(t, rec.Balanced)
	assert.True(t, rec.OnHand.Equal(rec.ReplayedOnHand))
	assert.False(t, rec.OnHand.IsNegative())
}

// ──────────────────────────────────────────────────────────────────────────────
// Adjust / GetStock
// ──────────────────────────────────────────────────────────────────────────────

func TestAdjust(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Adjust(ctx, inventory.AdjustInput{ProductID: f.product.ID, Quantity: d(1), Direction: "IN", Reason: "conteo"})
	require.ErrorIs(t, err, domain.ErrNotInitialized)

	f.initialize(t, 10)
	item, err := f.engine.Adjust(ctx, inventory.AdjustInput{ProductID: f.product.ID, Quantity: d(4), Direction: "out", Reason: "merma", Notes: "vencido"})
	require.NoError(t, err)
	assert.True(t, item.OnHand.Equal(d(6)))

	page, err := f.engine.ListMovements(ctx, f.product.ID, "", "", 1)
	require.NoError(t, err)
	require.Len(t, page.Movements, 1)
	assert.Equal(t, entity.MovementAdjustmentOut, page.Movements[0].Type)
	assert.Equal(t, "vencido", page.Movements[0].Notes)
	assert.True(t, page.Movements[0].BalanceAfter.Equal(d(6)))

	_, err = f.engine.Adjust(ctx, inventory.AdjustInput{ProductID: f.product.ID, Quantity: d(1), Direction: "SIDEWAYS", Reason: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.engine.Adjust(ctx, inventory.AdjustInput{ProductID: f.product.ID, Quantity: d(1), Direction: "IN"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.engine.Adjust(ctx, inventory.AdjustInput{ProductID: f.product.ID, Quantity: d(7), Direction: "OUT", Reason: "x"})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestGetStock_SinInicializarNoEsError(t *testing.T) {
	f := newFixture(t)
	item, err := f.engine.GetStock(context.Background(), f.product.ID, "")
	require.NoError(t, err)
	assert.Nil(t, item)

	_, err = f.engine.ListMovements(context.Background(), f.product.ID, "", "", 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// ListMovements
// ──────────────────────────────────────────────────────────────────────────────

func TestListMovements_PaginacionReanudable(t *testing.T) {
	f := newFixture(t)
	item := f.initialize(t, 100)
	for i := 0; i < 6; i++ {
		_, err := f.post(entity.MovementSaleOut, item.ID, 1)
		require.NoError(t, err)
	}
	ctx := context.Background()

	var all []*entity.Movement
	token := ""
	for pages := 0; ; pages++ {
		require.Less(t, pages, 10)
		page, err := f.engine.ListMovements(ctx, f.product.ID, "", token, 3)
		require.NoError(t, err)
		all = append(all, page.Movements...)
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}
	require.Len(t, all, 7)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i-1].Sequence, all[i].Sequence, "más reciente primero")
	}
	assert.Equal(t, entity.MovementAdjustmentIn, all[6].Type)
	assert.True(t, all[0].BalanceAfter.Equal(d(94)))

	_, err := f.engine.ListMovements(ctx, f.product.ID, "", "no-es-token", 3)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// ListCritical
// ──────────────────────────────────────────────────────────────────────────────

type fakeCache struct {
	fetches     int
	invalidated int
	err         error
}

func (c *fakeCache) FetchCritical(ctx context.Context, key string, loader func(context.Context) ([]*entity.StockItem, error)) ([]*entity.StockItem, error) {
	c.fetches++
	if c.err != nil {
		return nil, c.err
	}
	return loader(ctx)
}

func (c *fakeCache) Invalidate(context.Context) error {
	c.invalidated++
	return nil
}

func TestListCritical(t *testing.T) {
	store := memory.NewStore()
	cache := &fakeCache{}
	engine := inventory.NewStockEngine(store, store.StockItems(), store.Movements(), store.Products(), store.Deposits(), cache, nil)
	ctx := context.Background()

	levels := map[string]int64{"ok": 50, "low": 4, "crit": 1}
	for name, onHand := range levels {
		p := store.SeedProduct(entity.Product{SKU: name, Name: name, Price: d(1), Active: true})
		_, err := engine.Initialize(ctx, inventory.InitializeInput{
			ProductID: p.ID, InitialOnHand: d(onHand), MinimumThreshold: d(5), CriticalThreshold: d(2),
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, cache.invalidated)

	crit, err := engine.ListCritical(ctx, "", false)
	require.NoError(t, err)
	require.Len(t, crit, 1)
	assert.True(t, crit[0].OnHand.Equal(d(1)))

	both, err := engine.ListCritical(ctx, "", true)
	require.NoError(t, err)
	assert.Len(t, both, 2)
	assert.Equal(t, 2, cache.fetches)

	// Si la caché falla se lee directo del repositorio.
	cache.err = errors.New("redis caído")
	crit, err = engine.ListCritical(ctx, "", false)
	require.NoError(t, err)
	assert.Len(t, crit, 1)
}

// ──────────────────────────────────────────────────────────────────────────────
// Availability
// ──────────────────────────────────────────────────────────────────────────────

func TestAvailability(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 5)
	other := f.store.SeedProduct(entity.Product{SKU: "SKU-2", Name: "Té", Price: d(10), Active: true})
	ctx := context.Background()

	cart := []domaininv.CartLine{{ProductID: f.product.ID, Quantity: d(3)}}
	view, err := f.engine.Availability(ctx, "", cart, &domaininv.CartLine{ProductID: f.product.ID, Quantity: d(2)})
	require.NoError(t, err)
	require.Len(t, view.Products, 1)
	assert.True(t, view.Products[0].Available.Equal(d(2)))
	require.NotNil(t, view.CanAdd)
	assert.True(t, *view.CanAdd)

	view, err = f.engine.Availability(ctx, "", cart, &domaininv.CartLine{ProductID: f.product.ID, Quantity: d(3)})
	require.NoError(t, err)
	assert.False(t, *view.CanAdd)

	view, err = f.engine.Availability(ctx, "", cart, &domaininv.CartLine{ProductID: other.ID, Quantity: d(1)})
	require.NoError(t, err)
	require.Len(t, view.Products, 2)
	assert.False(t, view.Products[1].Initialized)
	assert.False(t, *view.CanAdd, "sin stock inicializado no hay disponible")

	view, err = f.engine.Availability(ctx, "", cart, nil)
	require.NoError(t, err)
	assert.Nil(t, view.CanAdd)

	_, err = f.engine.Availability(ctx, "", cart, &domaininv.CartLine{ProductID: f.product.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
