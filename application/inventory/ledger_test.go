package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	appinventory "ecommerce/application/inventory"
	"ecommerce/domain/inventory"
	"ecommerce/domain/shared"
	"ecommerce/infrastructure/persistence/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMetrics struct {
	mu         sync.Mutex
	entries    map[string]int
	rejections map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{entries: map[string]int{}, rejections: map[string]int{}}
}

func (m *recordingMetrics) LedgerEntry(changeType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[changeType]++
}

func (m *recordingMetrics) LedgerRejection(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejections[reason]++
}

func setupLedger(t *testing.T) (*appinventory.Ledger, *mocks.Store, *recordingMetrics) {
	t.Helper()
	store := mocks.NewStore()
	metrics := newRecordingMetrics()
	ledger := appinventory.NewLedger(mocks.NewStockRepository(store), mocks.NewUnitOfWorkFactory(store)).
		WithMetrics(metrics)
	return ledger, store, metrics
}

func requireBalanced(t *testing.T, ledger *appinventory.Ledger, productID string) {
	t.Helper()
	report, err := ledger.Audit(context.Background(), productID)
	require.NoError(t, err)
	assert.True(t, report.Balanced, "quantity %d, log sum %d", report.Quantity, report.LogSum)
}

func TestCreateInitialBooksOpeningQuantity(t *testing.T) {
	ledger, store, metrics := setupLedger(t)
	ctx := context.Background()

	stock, err := ledger.CreateInitial(ctx, "p-1", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, stock.Quantity())

	logs := store.StockLogs("p-1")
	require.Len(t, logs, 1)
	assert.Equal(t, 5, logs[0].Change())
	assert.Equal(t, inventory.ChangeAdjustment, logs[0].Reason().ChangeType())
	assert.Equal(t, inventory.ReferenceManual, logs[0].Reason().ReferenceType())
	assert.Equal(t, 1, metrics.entries["adjustment"])
	requireBalanced(t, ledger, "p-1")
}

func TestCreateInitialRejectsExistingRow(t *testing.T) {
	ledger, _, _ := setupLedger(t)
	ctx := context.Background()

	_, err := ledger.CreateInitial(ctx, "p-1", 0)
	require.NoError(t, err)

	_, err = ledger.CreateInitial(ctx, "p-1", 3)
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestCreateInitialRejectsNegativeQuantity(t *testing.T) {
	ledger, store, _ := setupLedger(t)

	_, err := ledger.CreateInitial(context.Background(), "p-1", -1)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, exists := store.StockQuantity("p-1")
	assert.False(t, exists)
}

func TestApplyRequiresExistingStock(t *testing.T) {
	ledger, _, metrics := setupLedger(t)

	_, err := ledger.Apply(context.Background(), inventory.Entry{
		ProductID: "missing",
		Change:    -1,
		Reason:    inventory.ReasonSale("o-1"),
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, 1, metrics.rejections["not_found"])
}

func TestApplyNeverGoesNegative(t *testing.T) {
	ledger, store, metrics := setupLedger(t)
	ctx := context.Background()
	_, err := ledger.CreateInitial(ctx, "p-1", 3)
	require.NoError(t, err)

	changes := []int{-2, -2, +4, -5, -5, +1}
	expected := 3
	for _, change := range changes {
		_, err := ledger.Apply(ctx, inventory.Entry{ProductID: "p-1", Change: change, Reason: inventory.ReasonAdjustment()})
		if expected+change < 0 {
			assert.ErrorIs(t, err, shared.ErrInsufficientStock)
			continue
		}
		require.NoError(t, err)
		expected += change
	}

	qty, _ := store.StockQuantity("p-1")
	assert.Equal(t, expected, qty)
	assert.GreaterOrEqual(t, qty, 0)
	assert.Equal(t, 2, metrics.rejections["insufficient_stock"])
	requireBalanced(t, ledger, "p-1")
}

func TestEntriesCountedOnlyWhenEnclosingTransactionCommits(t *testing.T) {
	ledger, store, metrics := setupLedger(t)
	ctx := context.Background()
	_, err := ledger.CreateInitial(ctx, "p-1", 5)
	require.NoError(t, err)
	uowFactory := mocks.NewUnitOfWorkFactory(store)

	err = uowFactory.New().Execute(ctx, func(ctx context.Context) error {
		_, err := ledger.Apply(ctx, inventory.Entry{ProductID: "p-1", Change: -2, Reason: inventory.ReasonSale("o-1")})
		require.NoError(t, err)
		return errors.New("second order line failed")
	})
	require.Error(t, err)
	assert.Zero(t, metrics.entries["sale"])
	qty, _ := store.StockQuantity("p-1")
	assert.Equal(t, 5, qty)

	err = uowFactory.New().Execute(ctx, func(ctx context.Context) error {
		_, err := ledger.Apply(ctx, inventory.Entry{ProductID: "p-1", Change: -2, Reason: inventory.ReasonSale("o-2")})
		require.NoError(t, err)
		assert.Zero(t, metrics.entries["sale"], "not before commit")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.entries["sale"])
}

// The in-memory unit of work runs one unit at a time, so this checks the
// ledger's bookkeeping under contention, not MySQL row locking.
func TestConcurrentApplyOnSameProductDoesNotOversell(t *testing.T) {
	ledger, store, _ := setupLedger(t)
	ctx := context.Background()
	_, err := ledger.CreateInitial(ctx, "p-1", 10)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Apply(ctx, inventory.Entry{ProductID: "p-1", Change: -1, Reason: inventory.ReasonSale("o")})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	qty, _ := store.StockQuantity("p-1")
	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 0, qty)
	requireBalanced(t, ledger, "p-1")
}

func TestImportInvoiceCreatesMissingRowsAtomically(t *testing.T) {
	ledger, store, metrics := setupLedger(t)
	ctx := context.Background()
	_, err := ledger.CreateInitial(ctx, "p-1", 1)
	require.NoError(t, err)

	logs, err := ledger.ImportInvoice(ctx, "inv-7", []appinventory.ImportLine{
		{ProductID: "p-1", Quantity: 4},
		{ProductID: "p-2", Quantity: 6},
	})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	for _, log := range logs {
		assert.Equal(t, inventory.ChangeImport, log.Reason().ChangeType())
		assert.Equal(t, "inv-7", log.Reason().ReferenceID())
	}

	q1, _ := store.StockQuantity("p-1")
	q2, _ := store.StockQuantity("p-2")
	assert.Equal(t, 5, q1)
	assert.Equal(t, 6, q2)
	assert.Equal(t, 2, metrics.entries["import"])
	requireBalanced(t, ledger, "p-1")
	requireBalanced(t, ledger, "p-2")
}

func TestImportInvoiceValidatesLines(t *testing.T) {
	ledger, store, _ := setupLedger(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		invoiceID string
		lines     []appinventory.ImportLine
	}{
		{"missing invoice id", "", []appinventory.ImportLine{{ProductID: "p-1", Quantity: 1}}},
		{"no lines", "inv", nil},
		{"zero quantity", "inv", []appinventory.ImportLine{{ProductID: "p-1", Quantity: 0}}},
		{"duplicate product", "inv", []appinventory.ImportLine{{ProductID: "p-1", Quantity: 1}, {ProductID: "p-1", Quantity: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.ImportInvoice(ctx, tt.invoiceID, tt.lines)
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
		})
	}
	_, exists := store.StockQuantity("p-1")
	assert.False(t, exists)
}

func TestApplyJoinsSurroundingUnitOfWork(t *testing.T) {
	ledger, store, _ := setupLedger(t)
	ctx := context.Background()
	_, err := ledger.CreateInitial(ctx, "p-1", 5)
	require.NoError(t, err)

	uow := mocks.NewUnitOfWorkFactory(store).New()
	err = uow.Execute(ctx, func(ctx context.Context) error {
		if _, err := ledger.Apply(ctx, inventory.Entry{ProductID: "p-1", Change: -2, Reason: inventory.ReasonSale("o-1")}); err != nil {
			return err
		}
		// second line fails, so the first must be undone
		_, err := ledger.Apply(ctx, inventory.Entry{ProductID: "p-1", Change: -9, Reason: inventory.ReasonSale("o-1")})
		return err
	})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	qty, _ := store.StockQuantity("p-1")
	assert.Equal(t, 5, qty)
	assert.Len(t, store.StockLogs("p-1"), 1)
}

func TestHistoryIsNewestFirst(t *testing.T) {
	ledger, _, _ := setupLedger(t)
	ctx := context.Background()
	_, err := ledger.CreateInitial(ctx, "p-1", 5)
	require.NoError(t, err)
	_, err = ledger.Adjust(ctx, "p-1", -1, "damaged")
	require.NoError(t, err)
	_, err = ledger.Adjust(ctx, "p-1", 2, "found")
	require.NoError(t, err)

	logs, err := ledger.History(ctx, "p-1", 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "found", logs[0].Note())
	assert.Equal(t, "damaged", logs[1].Note())

	_, err = ledger.History(ctx, "missing", 10)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
