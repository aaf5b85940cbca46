package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-franchise-backoffice.git/internal/catalog"
	"github.com/ariefcatur/go-franchise-backoffice.git/internal/inventory"
)

// ---- fakes ----

// fakeTx embed pgx.Tx; hanya Commit/Rollback yang dipakai orchestrator langsung.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if t.committed {
		return pgx.ErrTxClosed
	}
	t.rolledBack = true
	return nil
}

type fakeDB struct{ tx *fakeTx }

func (db *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	db.tx = &fakeTx{}
	return db.tx, nil
}

type fakeOrderStore struct {
	orders   map[string]*Order
	setCalls int
}

func (s *fakeOrderStore) LockForTransition(_ context.Context, _ pgx.Tx, orderID string) (Order, error) {
	o, ok := s.orders[orderID]
	if !ok {
		return Order{}, ErrNotFound
	}
	return *o, nil
}

func (s *fakeOrderStore) SetStatusTx(_ context.Context, _ pgx.Tx, orderID string, next Status, _ time.Time) error {
	o, ok := s.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.Status = next
	s.setCalls++
	return nil
}

type fakeRecipes struct{ byMenu map[string][]catalog.RecipeLine }

func (f *fakeRecipes) RecipeLinesFor(_ context.Context, menuID string) ([]catalog.RecipeLine, error) {
	return f.byMenu[menuID], nil
}

type fakeMapping struct{ byMaterial map[string]inventory.StoreMaterial }

func (f *fakeMapping) MappingFor(_ context.Context, storeID, materialID string) (inventory.StoreMaterial, error) {
	sm, ok := f.byMaterial[materialID]
	if !ok {
		return inventory.StoreMaterial{}, inventory.ErrMappingNotFound
	}
	return sm, nil
}

type fakeLedger struct {
	calls []struct {
		storeID string
		lines   []inventory.ConsumeLine
		memo    string
	}
	err error
	low map[string]bool // storeMaterialID -> low setelah potong
}

func (f *fakeLedger) Consume(_ context.Context, _ pgx.Tx, storeID string, lines []inventory.ConsumeLine, memo string, _ time.Time) ([]inventory.DeductedLine, error) {
	f.calls = append(f.calls, struct {
		storeID string
		lines   []inventory.ConsumeLine
		memo    string
	}{storeID, lines, memo})
	if f.err != nil {
		return nil, f.err
	}
	out := make([]inventory.DeductedLine, 0, len(lines))
	for _, ln := range lines {
		out = append(out, inventory.DeductedLine{
			StoreMaterialID: ln.StoreMaterialID,
			MaterialID:      ln.MaterialID,
			Qty:             ln.Qty,
			Unit:            ln.Unit,
			StockAfter:      decimal.NewFromInt(1),
			Low:             f.low[ln.StoreMaterialID],
		})
	}
	return out, nil
}

type fakeAudit struct {
	orderIDs []string
	corrs    []string
	lines    int
	err      error
}

func (f *fakeAudit) LogDeduction(_ context.Context, _ pgx.Tx, orderID string, lines []inventory.DeductedLine, corr string, _ time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.orderIDs = append(f.orderIDs, orderID)
	f.corrs = append(f.corrs, corr)
	f.lines += len(lines)
	return nil
}

// ---- fixture ----

func burgerOrder(status Status) *Order {
	return &Order{
		ID:      "ord-1",
		StoreID: "store-1",
		Status:  status,
		Lines: []OrderLine{
			{MenuID: "burger", Qty: 2},
			{MenuID: "cheeseburger", Qty: 1},
		},
	}
}

func burgerRecipes() *fakeRecipes {
	one := decimal.NewFromInt(1)
	return &fakeRecipes{byMenu: map[string][]catalog.RecipeLine{
		"burger": {
			{MenuID: "burger", MaterialID: "patty", QtyPerUnit: one},
			{MenuID: "burger", MaterialID: "bun", QtyPerUnit: one},
		},
		"cheeseburger": {
			{MenuID: "cheeseburger", MaterialID: "patty", QtyPerUnit: one},
			{MenuID: "cheeseburger", MaterialID: "bun", QtyPerUnit: one},
			{MenuID: "cheeseburger", MaterialID: "cheese", QtyPerUnit: one},
		},
	}}
}

func burgerMappings() *fakeMapping {
	return &fakeMapping{byMaterial: map[string]inventory.StoreMaterial{
		"patty":  {ID: "sm-patty", StoreID: "store-1", MaterialID: "patty", BaseUnit: "pcs"},
		"bun":    {ID: "sm-bun", StoreID: "store-1", MaterialID: "bun", BaseUnit: "pcs"},
		"cheese": {ID: "sm-cheese", StoreID: "store-1", MaterialID: "cheese", BaseUnit: "slice"},
	}}
}

type harness struct {
	svc    *TransitionService
	db     *fakeDB
	store  *fakeOrderStore
	ledger *fakeLedger
	audit  *fakeAudit
}

func newHarness(o *Order) *harness {
	db := &fakeDB{}
	store := &fakeOrderStore{orders: map[string]*Order{}}
	if o != nil {
		store.orders[o.ID] = o
	}
	ledger := &fakeLedger{low: map[string]bool{}}
	audit := &fakeAudit{}
	return &harness{
		svc: &TransitionService{
			DB:          db,
			Orders:      store,
			Recipes:     burgerRecipes(),
			Mapping:     burgerMappings(),
			Ledger:      ledger,
			Audit:       audit,
			ServiceName: "test",
		},
		db:     db,
		store:  store,
		ledger: ledger,
		audit:  audit,
	}
}

// ---- tests ----

func TestUpdateStatus_UnknownStatusRejectedEarly(t *testing.T) {
	h := newHarness(burgerOrder(StatusPreparing))

	_, err := h.svc.UpdateStatus(context.Background(), "ord-1", Status("FRYING"), "")
	require.ErrorIs(t, err, ErrUnknownStatus)
	assert.Nil(t, h.db.tx, "tidak boleh buka transaksi untuk input tak dikenal")
}

func TestUpdateStatus_OrderNotFound(t *testing.T) {
	h := newHarness(nil)

	_, err := h.svc.UpdateStatus(context.Background(), "ghost", StatusCooking, "")
	require.ErrorIs(t, err, ErrNotFound)
	assert.False(t, h.db.tx.committed)
}

func TestUpdateStatus_NonTriggerTransitionSkipsInventory(t *testing.T) {
	h := newHarness(burgerOrder(StatusPaid))

	res, err := h.svc.UpdateStatus(context.Background(), "ord-1", StatusPreparing, "")
	require.NoError(t, err)

	assert.Equal(t, StatusPaid, res.PrevStatus)
	assert.Equal(t, StatusPreparing, res.NewStatus)
	assert.Empty(t, res.Deducted)
	assert.Empty(t, h.ledger.calls, "selain PREPARING->COOKING tidak boleh sentuh ledger")
	assert.Empty(t, h.audit.orderIDs)
	assert.True(t, h.db.tx.committed)
}

func TestUpdateStatus_CookingToReadySkipsInventory(t *testing.T) {
	h := newHarness(burgerOrder(StatusCooking))

	_, err := h.svc.UpdateStatus(context.Background(), "ord-1", StatusReady, "")
	require.NoError(t, err)
	assert.Empty(t, h.ledger.calls)
}

func TestUpdateStatus_PreparingToCookingDeducts(t *testing.T) {
	h := newHarness(burgerOrder(StatusPreparing))

	res, err := h.svc.UpdateStatus(context.Background(), "ord-1", StatusCooking, "")
	require.NoError(t, err)
	require.True(t, h.db.tx.committed)

	require.Len(t, h.ledger.calls, 1)
	call := h.ledger.calls[0]
	assert.Equal(t, "store-1", call.storeID)
	assert.Equal(t, "ORDER-ord-1", call.memo)

	// 2x burger + 1x cheeseburger => patty=3, bun=3, cheese=1
	byMat := map[string]inventory.ConsumeLine{}
	for _, ln := range call.lines {
		byMat[ln.MaterialID] = ln
	}
	require.Len(t, byMat, 3)
	assert.True(t, byMat["patty"].Qty.Equal(decimal.NewFromInt(3)))
	assert.True(t, byMat["bun"].Qty.Equal(decimal.NewFromInt(3)))
	assert.True(t, byMat["cheese"].Qty.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "sm-patty", byMat["patty"].StoreMaterialID)
	assert.Equal(t, "slice", byMat["cheese"].Unit)

	// audit ikut tercatat dengan correlation id yang sama
	require.Equal(t, []string{"ord-1"}, h.audit.orderIDs)
	require.Equal(t, []string{"ORDER-ord-1"}, h.audit.corrs)
	assert.Equal(t, 3, h.audit.lines)

	require.Len(t, res.Deducted, 3)
}

func TestUpdateStatus_RetryIsNoOp(t *testing.T) {
	h := newHarness(burgerOrder(StatusPreparing))

	_, err := h.svc.UpdateStatus(context.Background(), "ord-1", StatusCooking, "")
	require.NoError(t, err)

	// retry setelah timeout: status sudah COOKING, tidak boleh potong lagi
	res, err := h.svc.UpdateStatus(context.Background(), "ord-1", StatusCooking, "")
	require.NoError(t, err)
	assert.True(t, res.NoOp)
	assert.Len(t, h.ledger.calls, 1, "net deduction harus tetap satu kali")
	assert.Len(t, h.audit.orderIDs, 1)
}

func TestUpdateStatus_MissingMappingAbortsEverything(t *testing.T) {
	h := newHarness(burgerOrder(StatusPreparing))
	h.svc.Mapping = &fakeMapping{byMaterial: map[string]inventory.StoreMaterial{
		"patty": {ID: "sm-patty", StoreID: "store-1", MaterialID: "patty"},
		"bun":   {ID: "sm-bun", StoreID: "store-1", MaterialID: "bun"},
		// cheese sengaja tidak di-provision
	}}

	_, err := h.svc.UpdateStatus(context.Background(), "ord-1", StatusCooking, "")
	require.ErrorIs(t, err, inventory.ErrMappingNotFound)

	assert.False(t, h.db.tx.committed, "transisi harus batal total")
	assert.True(t, h.db.tx.rolledBack)
	assert.Empty(t, h.ledger.calls, "tidak boleh ada potongan parsial")
	assert.Empty(t, h.audit.orderIDs)
}

func TestUpdateStatus_InsufficientStockAborts(t *testing.T) {
	h := newHarness(burgerOrder(StatusPreparing))
	h.ledger.err = inventory.ErrInsufficientStock

	_, err := h.svc.UpdateStatus(context.Background(), "ord-1", StatusCooking, "")
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)
	assert.False(t, h.db.tx.committed)
	assert.Empty(t, h.audit.orderIDs)
}

func TestUpdateStatus_AuditFailureAborts(t *testing.T) {
	h := newHarness(burgerOrder(StatusPreparing))
	h.audit.err = errors.New("disk full")

	_, err := h.svc.UpdateStatus(context.Background(), "ord-1", StatusCooking, "")
	require.Error(t, err)
	assert.False(t, h.db.tx.committed)
}

func TestUpdateStatus_EmptyNeedIsValid(t *testing.T) {
	o := &Order{ID: "ord-2", StoreID: "store-1", Status: StatusPreparing,
		Lines: []OrderLine{{MenuID: "no-recipe-menu", Qty: 1}}}
	h := newHarness(o)

	res, err := h.svc.UpdateStatus(context.Background(), "ord-2", StatusCooking, "")
	require.NoError(t, err)
	assert.True(t, h.db.tx.committed)
	assert.Empty(t, h.ledger.calls)
	assert.Empty(t, res.Deducted)
	assert.Equal(t, StatusCooking, h.store.orders["ord-2"].Status)
}

func TestUpdateStatus_OffGraphJumpStillWrites(t *testing.T) {
	// perilaku lama dipertahankan: lompatan di luar alur tetap ditulis,
	// dan karena prev bukan PREPARING, stok tidak disentuh
	h := newHarness(burgerOrder(StatusPending))

	res, err := h.svc.UpdateStatus(context.Background(), "ord-1", StatusCooking, "")
	require.NoError(t, err)
	assert.Equal(t, StatusCooking, res.NewStatus)
	assert.Empty(t, h.ledger.calls)
	assert.True(t, h.db.tx.committed)
}

func TestUpdateStatus_BounceBackTriggersAgain(t *testing.T) {
	// kelemahan yang disengaja (warisan sistem lama): mundur ke PREPARING lalu
	// maju lagi ke COOKING memicu potongan kedua. Didokumentasikan, bukan diam-diam "diperbaiki".
	h := newHarness(burgerOrder(StatusPreparing))

	_, err := h.svc.UpdateStatus(context.Background(), "ord-1", StatusCooking, "")
	require.NoError(t, err)
	_, err = h.svc.UpdateStatus(context.Background(), "ord-1", StatusPreparing, "")
	require.NoError(t, err)
	_, err = h.svc.UpdateStatus(context.Background(), "ord-1", StatusCooking, "")
	require.NoError(t, err)

	assert.Len(t, h.ledger.calls, 2)
}
