package sales_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/application/sales"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type fixture struct {
	store  *memory.Store
	engine *inventory.StockEngine
	uc     *sales.LifecycleUseCase
}

func newFixture() *fixture {
	store := memory.NewStore()
	engine := inventory.NewStockEngine(store, store.StockItems(), store.Movements(), store.Products(), store.Deposits(), nil, nil)
	uc := sales.NewLifecycleUseCase(store, engine, store.Sales(), store.Products(), nil)
	return &fixture{store: store, engine: engine, uc: uc}
}

// product siembra un producto activo y lo inicializa con onHand unidades (onHand < 0 = sin inicializar).
func (f *fixture) product(t *testing.T, sku string, price, onHand int64) entity.Product {
	t.Helper()
	p := f.store.SeedProduct(entity.Product{SKU: sku, Name: sku, Price: d(price), Active: true})
	if onHand >= 0 {
		_, err := f.engine.Initialize(context.Background(), inventory.InitializeInput{
			ProductID: p.ID, InitialOnHand: d(onHand), MinimumThreshold: d(5), CriticalThreshold: d(2),
		})
		require.NoError(t, err)
	}
	return p
}

func (f *fixture) onHand(t *testing.T, productID string) decimal.Decimal {
	t.Helper()
	item, err := f.engine.GetStock(context.Background(), productID, "")
	require.NoError(t, err)
	require.NotNil(t, item)
	return item.OnHand
}

func (f *fixture) draft(t *testing.T, items ...dto.SaleItemRequest) *entity.Sale {
	t.Helper()
	sale, err := f.uc.CreateDraft(context.Background(), "vendedor", dto.CreateSaleRequest{Items: items})
	require.NoError(t, err)
	return sale
}

func line(productID string, qty, discount int64) dto.SaleItemRequest {
	return dto.SaleItemRequest{ProductID: productID, Quantity: d(qty), DiscountAmount: d(discount)}
}

// ──────────────────────────────────────────────────────────────────────────────
// CreateDraft
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateDraft_CalculaTotalesSinTocarStock(t *testing.T) {
	f := newFixture()
	a := f.product(t, "A", 1000, 10)
	b := f.product(t, "B", 250, 10)

	sale := f.draft(t, line(a.ID, 2, 100), line(b.ID, 4, 0))

	assert.Equal(t, entity.SaleStatusDraft, sale.Status)
	assert.Equal(t, "vendedor", sale.SoldByUserID)
	assert.NotEmpty(t, sale.DepositID)
	require.Len(t, sale.Items, 2)
	assert.True(t, sale.Items[0].UnitPrice.Equal(d(1000)))
	assert.True(t, sale.Items[0].LineTotal.Equal(d(1900)))
	assert.True(t, sale.Subtotal.Equal(d(3000)))
	assert.True(t, sale.TotalDiscount.Equal(d(100)))
	assert.True(t, sale.Total.Equal(d(2900)))

	assert.True(t, f.onHand(t, a.ID).Equal(d(10)), "un borrador no descuenta stock")
}

func TestCreateDraft_Validaciones(t *testing.T) {
	f := newFixture()
	a := f.product(t, "A", 1000, 10)
	inactive := f.store.SeedProduct(entity.Product{SKU: "X", Price: d(10), Active: false})
	ctx := context.Background()

	_, err := f.uc.CreateDraft(ctx, "u", dto.CreateSaleRequest{})
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	cases := []struct {
		name string
		item dto.SaleItemRequest
		want error
	}{
		{"cantidad cero", line(a.ID, 0, 0), domain.ErrInvalidItem},
		{"descuento negativo", line(a.ID, 1, -1), domain.ErrInvalidItem},
		{"descuento mayor al subtotal", line(a.ID, 1, 1001), domain.ErrInvalidItem},
		{"cantidad con cinco decimales", dto.SaleItemRequest{ProductID: a.ID, Quantity: decimal.RequireFromString("0.00001")}, domain.ErrInvalidItem},
		{"descuento con cinco decimales", dto.SaleItemRequest{ProductID: a.ID, Quantity: d(1), DiscountAmount: decimal.RequireFromString("0.00001")}, domain.ErrInvalidItem},
		{"producto desconocido", line("nope", 1, 0), domain.ErrProductNotFound},
		{"producto inactivo", line(inactive.ID, 1, 0), domain.ErrProductNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.CreateDraft(ctx, "u", dto.CreateSaleRequest{Items: []dto.SaleItemRequest{line(a.ID, 1, 0), tc.item}})
			require.ErrorIs(t, err, tc.want)
			var ie *domain.ItemError
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, 1, ie.Index)
		})
	}

	list, err := f.uc.List(ctx, "", 50, 0)
	require.NoError(t, err)
	assert.Empty(t, list, "ningún borrador inválido se persiste")
}

// ──────────────────────────────────────────────────────────────────────────────
// Confirm
// ──────────────────────────────────────────────────────────────────────────────

func TestConfirm_DescuentaUnaVezPorLinea(t *testing.T) {
	f := newFixture()
	a := f.product(t, "A", 1000, 10)
	b := f.product(t, "B", 250, 3)
	sale := f.draft(t, line(a.ID, 2, 0), line(b.ID, 3, 0))

	confirmed, err := f.uc.Confirm(context.Background(), sale.ID, "cajero")
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)

	assert.True(t, f.onHand(t, a.ID).Equal(d(8)))
	assert.True(t, f.onHand(t, b.ID).Equal(d(0)))

	page, err := f.engine.ListMovements(context.Background(), b.ID, "", "", 10)
	require.NoError(t, err)
	m := page.Movements[0]
	assert.Equal(t, entity.MovementSaleOut, m.Type)
	assert.Equal(t, entity.ReferenceSale, m.ReferenceType)
	assert.Equal(t, sale.ID, m.ReferenceID)
	assert.Equal(t, sales.ReasonSale, m.Reason)
	assert.Equal(t, "cajero", m.PerformedByUserID)
}

func TestConfirm_SegundaVezFallaSinEfecto(t *testing.T) {
	f := newFixture()
	a := f.product(t, "A", 1000, 10)
	sale := f.draft(t, line(a.ID, 4, 0))

	_, err := f.uc.Confirm(context.Background(), sale.ID, "")
	require.NoError(t, err)
	_, err = f.uc.Confirm(context.Background(), sale.ID, "")
	require.ErrorIs(t, err, domain.ErrAlreadyConfirmed)

	assert.True(t, f.onHand(t, a.ID).Equal(d(6)))
}

func TestConfirm_ConcurrenteSoloUnaVez(t *testing.T) {
	f := newFixture()
	a := f.product(t, "A", 1000, 10)
	sale := f.draft(t, line(a.ID, 4, 0))

	var g errgroup.Group
	results := make([]error, 5)
	for i := range results {
		g.Go(func() error {
			_, results[i] = f.uc.Confirm(context.Background(), sale.ID, "")
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
		assert.ErrorIs(t, err, domain.ErrAlreadyConfirmed)
	}
	assert.Equal(t, 1, ok)
	assert.True(t, f.onHand(t, a.ID).Equal(d(6)))
}

// Una línea sin stock suficiente revierte todas las demás.
func TestConfirm_AtomicoEntreLineas(t *testing.T) {
	f := newFixture()
	a := f.product(t, "A", 1000, 10)
	b := f.product(t, "B", 250, 1)
	sale := f.draft(t, line(a.ID, 2, 0), line(b.ID, 2, 0))

	_, err := f.uc.Confirm(context.Background(), sale.ID, "")
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, b.ID, ise.ProductID)

	assert.True(t, f.onHand(t, a.ID).Equal(d(10)))
	assert.True(t, f.onHand(t, b.ID).Equal(d(1)))
	got, err := f.uc.Get(context.Background(), sale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusDraft, got.Status)

	rec, err := f.engine.Reconcile(context.Background(), a.ID, "")
	require.NoError(t, err)
	assert.True(t, rec.Balanced)
	assert.Equal(t, 1, rec.MovementCount, "solo el movimiento inicial")
}

func TestConfirm_ProductoSinStockInicializado(t *testing.T) {
	f := newFixture()
	a := f.product(t, "A", 1000, -1)
	sale := f.draft(t, line(a.ID, 1, 0))

	_, err := f.uc.Confirm(context.Background(), sale.ID, "")
	require.ErrorIs(t, err, domain.ErrNotInitialized)
}

func TestConfirm_CongelaPrecioActual(t *testing.T) {
	f := newFixture()
	a := f.product(t, "A", 1000, 10)
	sale := f.draft(t, line(a.ID, 2, 0))

	a.Price = d(1200)
	f.store.SeedProduct(a)

	confirmed, err := f.uc.Confirm(context.Background(), sale.ID, "")
	require.NoError(t, err)
	assert.True(t, confirmed.Items[0].UnitPrice.Equal(d(1200)))
	assert.True(t, confirmed.Total.Equal(d(2400)))

	// Cambios posteriores no afectan a la venta confirmada.
	a.Price = d(5)
	f.store.SeedProduct(a)
	got, err := f.uc.Get(context.Background(), sale.ID)
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(d(2400)))
}

func TestConfirm_ProductoDesactivadoDejaBorrador(t *testing.T) {
	f := newFixture()
	a := f.product(t, "A", 1000, 10)
	sale := f.draft(t, line(a.ID, 2, 0))

	a.Active = false
	f.store.SeedProduct(a)

	_, err := f.uc.Confirm(context.Background(), sale.ID, "")
	require.ErrorIs(t, err, domain.ErrProductNotFound)
	got, err := f.uc.Get(context.Background(), sale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusDraft, got.Status)
	assert.True(t, f.onHand(t, a.ID).Equal(d(10)))
}

func TestConfirm_NoEncontrada(t *testing.T) {
	f := newFixture()
	_, err := f.uc.Confirm(context.Background(), "no-existe", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cancel / Get / List
// ──────────────────────────────────────────────────────────────────────────────

func TestCancel(t *testing.T) {
	f := newFixture()
	a := f.product(t, "A", 1000, 10)
	ctx := context.Background()

	draft := f.draft(t, line(a.ID, 1, 0))
	cancelled, err := f.uc.Cancel(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	_, err = f.uc.Cancel(ctx, draft.ID)
	assert.ErrorIs(t, err, domain.ErrSaleCancelled)
	_, err = f.uc.Confirm(ctx, draft.ID, "")
	assert.ErrorIs(t, err, domain.ErrSaleCancelled)

	confirmed := f.draft(t, line(a.ID, 1, 0))
	_, err = f.uc.Confirm(ctx, confirmed.ID, "")
	require.NoError(t, err)
	_, err = f.uc.Cancel(ctx, confirmed.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyConfirmed)

	assert.True(t, f.onHand(t, a.ID).Equal(d(9)), "anular no toca el stock")
}

func TestGetYList(t *testing.T) {
	f := newFixture()
	a := f.product(t, "A", 1000, 10)
	ctx := context.Background()

	_, err := f.uc.Get(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	s1 := f.draft(t, line(a.ID, 1, 0))
	f.draft(t, line(a.ID, 1, 0))
	_, err = f.uc.Confirm(ctx, s1.ID, "")
	require.NoError(t, err)

	all, err := f.uc.List(ctx, "", 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	confirmed, err := f.uc.List(ctx, entity.SaleStatusConfirmed, 10, 0)
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, s1.ID, confirmed[0].ID)

	_, err = f.uc.List(ctx, "PAID", 10, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
