package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/petalroad/storefront-service/internal/apperr"
	"github.com/petalroad/storefront-service/internal/model"
	"github.com/petalroad/storefront-service/internal/stock"
)

// fakeLedger implements the repository with the same conditional-decrement
// semantics as the SQL, guarded by a mutex.
type fakeLedger struct {
	mu        sync.Mutex
	stock     map[string]int
	movements []model.StockMovement
}

func newFakeLedger(initial map[string]int) *fakeLedger {
	return &fakeLedger{stock: initial}
}

func (f *fakeLedger) GetStock(ctx context.Context, productID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	qty, ok := f.stock[productID]
	if !ok {
		return 0, apperr.NotFound("product", productID)
	}
	return qty, nil
}

func (f *fakeLedger) DecrementStock(ctx context.Context, productID string, qty int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.stock[productID]
	if !ok {
		return 0, apperr.NotFound("product", productID)
	}
	if current < qty {
		return 0, &stock.InsufficientError{ProductID: productID, Requested: qty, Available: current}
	}
	f.stock[productID] = current - qty
	return f.stock[productID], nil
}

func (f *fakeLedger) SetStock(ctx context.Context, productID string, value int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.stock[productID]; !ok {
		return 0, apperr.NotFound("product", productID)
	}
	f.stock[productID] = value
	return value, nil
}

func (f *fakeLedger) LogMovement(ctx context.Context, m *model.StockMovement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movements = append(f.movements, *m)
	return nil
}

func (f *fakeLedger) ListMovements(ctx context.Context, filters *stock.MovementFilters) ([]model.StockMovement, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.StockMovement, len(f.movements))
	copy(out, f.movements)
	return out, len(out), nil
}

func TestDecrementStock_LogsMovement(t *testing.T) {
	ledger := newFakeLedger(map[string]int{"rose": 5})
	uc := NewStockUseCase(ledger, nil, zap.NewNop())

	newStock, err := uc.DecrementStock(context.Background(), "rose", 2, "PR-1")
	require.NoError(t, err)
	assert.Equal(t, 3, newStock)

	require.Len(t, ledger.movements, 1)
	m := ledger.movements[0]
	assert.Equal(t, -2, m.QuantityChange)
	assert.Equal(t, 5, m.QuantityBefore)
	assert.Equal(t, 3, m.QuantityAfter)
	assert.Equal(t, "sale", m.Reason)
	require.NotNil(t, m.Reference)
	assert.Equal(t, "PR-1", *m.Reference)
}

func TestDecrementStock_RejectsNonPositiveQuantity(t *testing.T) {
	uc := NewStockUseCase(newFakeLedger(map[string]int{"rose": 5}), nil, zap.NewNop())

	_, err := uc.DecrementStock(context.Background(), "rose", 0, "")
	require.Error(t, err)
}

func TestDecrementStock_NeverGoesNegativeUnderConcurrency(t *testing.T) {
	ledger := newFakeLedger(map[string]int{"rose": 10})
	uc := NewStockUseCase(ledger, nil, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// 8 decrements of 3 against a stock of 10: most must fail.
			_, _ = uc.DecrementStock(context.Background(), "rose", 3, "")
		}()
	}
	wg.Wait()

	qty, err := uc.GetStock(context.Background(), "rose")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, qty, 0, "stock must never go negative")
	// Whatever interleaving happened, only full decrements were applied.
	assert.Equal(t, 0, (10-qty)%3)
}

func TestSetStock_LogsAdjustment(t *testing.T) {
	ledger := newFakeLedger(map[string]int{"rose": 5})
	uc := NewStockUseCase(ledger, nil, zap.NewNop())

	newStock, err := uc.SetStock(context.Background(), "rose", 20, "restock")
	require.NoError(t, err)
	assert.Equal(t, 20, newStock)

	require.Len(t, ledger.movements, 1)
	m := ledger.movements[0]
	assert.Equal(t, 15, m.QuantityChange)
	assert.Equal(t, "restock", m.Reason)
}

func TestSetStock_RejectsNegative(t *testing.T) {
	uc := NewStockUseCase(newFakeLedger(map[string]int{"rose": 5}), nil, zap.NewNop())

	_, err := uc.SetStock(context.Background(), "rose", -1, "")
	require.Error(t, err)
}
