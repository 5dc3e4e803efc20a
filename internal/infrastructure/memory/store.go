package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/application/sales"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var (
	_ inventory.TxRunner  = (*Store)(nil)
	_ sales.SalesTxRunner = (*Store)(nil)
)

// DefaultDepositName nombre del depósito sembrado por NewStore.
const DefaultDepositName = "Depósito principal"

// Store almacenamiento en memoria para desarrollo y pruebas (STORE_DRIVER=memory).
// El ledger (stock, kardex, ventas) se protege con un único lock de escritura por
// transacción; el catálogo usa su propio lock porque es de solo lectura para el servicio.
type Store struct {
	mu         sync.RWMutex
	stock      map[string]entity.StockItem
	stockByKey map[string]string // producto|depósito -> id
	movements  []entity.Movement
	seq        int64
	sales      map[string]*entity.Sale
	// saleUndo versión previa de cada venta escrita en la transacción en curso
	// (nil = no existía). Solo es no-nil dentro de inTx.
	saleUndo map[string]*entity.Sale

	catalogMu sync.RWMutex
	products  map[string]entity.Product
	deposits  map[string]entity.Deposit
}

// NewStore crea un Store vacío con un depósito predeterminado.
func NewStore() *Store {
	s := &Store{
		stock:      make(map[string]entity.StockItem),
		stockByKey: make(map[string]string),
		sales:      make(map[string]*entity.Sale),
		products:   make(map[string]entity.Product),
		deposits:   make(map[string]entity.Deposit),
	}
	s.SeedDeposit(entity.Deposit{Name: DefaultDepositName, IsDefault: true})
	return s
}

// SeedDeposit agrega un depósito. Si es predeterminado desmarca el anterior.
func (s *Store) SeedDeposit(d entity.Deposit) entity.Deposit {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if d.IsDefault {
		for id, other := range s.deposits {
			other.IsDefault = false
			s.deposits[id] = other
		}
	}
	s.deposits[d.ID] = d
	return d
}

// SeedProduct agrega o reemplaza un producto del catálogo.
func (s *Store) SeedProduct(p entity.Product) entity.Product {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.products[p.ID] = p
	return p
}

// StockItems repositorio fuera de transacción.
func (s *Store) StockItems() repository.StockItemRepository { return &stockRepo{s: s} }

// Movements repositorio fuera de transacción.
func (s *Store) Movements() repository.MovementRepository { return &movementRepo{s: s} }

// Sales repositorio fuera de transacción.
func (s *Store) Sales() repository.SaleRepository { return &saleRepo{s: s} }

// Products repositorio del catálogo.
func (s *Store) Products() repository.ProductRepository { return &productRepo{s: s} }

// Deposits repositorio de depósitos.
func (s *Store) Deposits() repository.DepositRepository { return &depositRepo{s: s} }

// Run ejecuta fn con el ledger bloqueado; si fn falla se restaura el estado previo.
func (s *Store) Run(ctx context.Context, fn func(
	stockRepo repository.StockItemRepository,
	movRepo repository.MovementRepository,
) error) error {
	return s.inTx(ctx, func() error {
		return fn(&stockRepo{s: s, inTx: true}, &movementRepo{s: s, inTx: true})
	})
}

// RunSales igual que Run, incluyendo el repositorio de ventas.
func (s *Store) RunSales(ctx context.Context, fn func(
	stockRepo repository.StockItemRepository,
	movRepo repository.MovementRepository,
	saleRepo repository.SaleRepository,
) error) error {
	return s.inTx(ctx, func() error {
		return fn(&stockRepo{s: s, inTx: true}, &movementRepo{s: s, inTx: true}, &saleRepo{s: s, inTx: true})
	})
}

type snapshot struct {
	stock      map[string]entity.StockItem
	stockByKey map[string]string
	movements  int
	seq        int64
}

func (s *Store) inTx(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := snapshot{
		stock:      maps.Clone(s.stock),
		stockByKey: maps.Clone(s.stockByKey),
		movements:  len(s.movements),
		seq:        s.seq,
	}
	s.saleUndo = make(map[string]*entity.Sale)
	defer func() { s.saleUndo = nil }()

	if err := fn(); err != nil {
		s.stock = snap.stock
		s.stockByKey = snap.stockByKey
		s.movements = s.movements[:snap.movements]
		s.seq = snap.seq
		for id, prev := range s.saleUndo {
			if prev == nil {
				delete(s.sales, id)
				continue
			}
			s.sales[id] = prev
		}
		return err
	}
	return nil
}

// rememberSale guarda la versión previa de una venta antes de escribirla dentro de
// una transacción. Las ventas guardadas se reemplazan, nunca se mutan, así que basta el puntero.
func (s *Store) rememberSale(id string) {
	if s.saleUndo == nil {
		return
	}
	if _, ok := s.saleUndo[id]; ok {
		return
	}
	s.saleUndo[id] = s.sales[id]
}

// read/write toman el lock del ledger solo fuera de una transacción (dentro ya está tomado).
func (s *Store) read(inTx bool, fn func()) {
	if !inTx {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	fn()
}

func (s *Store) write(inTx bool, fn func() error) error {
	if !inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn()
}

func stockKey(productID, depositID string) string {
	return productID + "|" + depositID
}

// DemoCatalog productos de ejemplo para STORE_DRIVER=memory.
func DemoCatalog() []entity.Product {
	return []entity.Product{
		{ID: "11111111-1111-1111-1111-111111111111", SKU: "CAF-500", Name: "Café molido 500g", Price: decimal.NewFromInt(18500), Cost: decimal.NewFromInt(12000), Active: true},
		{ID: "22222222-2222-2222-2222-222222222222", SKU: "AZU-1K", Name: "Azúcar 1kg", Price: decimal.NewFromInt(4200), Cost: decimal.NewFromInt(3100), Active: true},
		{ID: "33333333-3333-3333-3333-333333333333", SKU: "LEC-1L", Name: "Leche entera 1L", Price: decimal.NewFromInt(3900), Cost: decimal.NewFromInt(2800), Active: true},
	}
}
