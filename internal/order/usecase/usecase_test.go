package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/petalroad/storefront-service/internal/apperr"
	"github.com/petalroad/storefront-service/internal/model"
	"github.com/petalroad/storefront-service/internal/order/dto"
)

// fakeCatalog serves products from a map.
type fakeCatalog struct {
	mu       sync.Mutex
	products map[string]*model.Product
}

func (f *fakeCatalog) Create(ctx context.Context, p *model.Product) error { return nil }
func (f *fakeCatalog) Update(ctx context.Context, p *model.Product) error { return nil }
func (f *fakeCatalog) Delete(ctx context.Context, id string) error        { return nil }
func (f *fakeCatalog) FindAll(ctx context.Context) ([]model.Product, error) {
	return nil, nil
}

func (f *fakeCatalog) FindByID(ctx context.Context, id string) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

// fakeOrderRepo mimics the transactional Create: conditional decrement per
// item under one lock, all-or-nothing.
type fakeOrderRepo struct {
	mu      sync.Mutex
	catalog *fakeCatalog
	orders  map[string]*model.Order
	numbers map[string]bool
}

func newFakeOrderRepo(catalog *fakeCatalog) *fakeOrderRepo {
	return &fakeOrderRepo{
		catalog: catalog,
		orders:  map[string]*model.Order{},
		numbers: map[string]bool{},
	}
}

func (f *fakeOrderRepo) Create(ctx context.Context, o *model.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalog.mu.Lock()
	defer f.catalog.mu.Unlock()

	for _, item := range o.Items {
		p := f.catalog.products[item.ProductID]
		if p == nil || p.Stock < item.Quantity {
			available := 0
			name := item.Name
			if p != nil {
				available = p.Stock
			}
			return &apperr.InsufficientStockError{Items: []apperr.StockShortage{{
				ProductID: item.ProductID,
				Name:      name,
				Requested: item.Quantity,
				Available: available,
			}}}
		}
	}
	for _, item := range o.Items {
		f.catalog.products[item.ProductID].Stock -= item.Quantity
	}

	f.orders[o.ID] = o
	f.numbers[o.OrderNumber] = true
	return nil
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[id], nil
}

func (f *fakeOrderRepo) FindByNumber(ctx context.Context, number string) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.OrderNumber == number {
			return o, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderRepo) FindAll(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, id string, status model.OrderStatus, payment model.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return apperr.NotFound("order", id)
	}
	o.Status = status
	o.PaymentStatus = payment
	return nil
}

func (f *fakeOrderRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.orders, id)
	return nil
}

func (f *fakeOrderRepo) OrderNumberExists(ctx context.Context, number string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.numbers[number], nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	kinds []string
	done  chan struct{}
}

func (n *recordingNotifier) Notify(ctx context.Context, kind string, payload interface{}) error {
	n.mu.Lock()
	n.kinds = append(n.kinds, kind)
	n.mu.Unlock()
	if n.done != nil {
		n.done <- struct{}{}
	}
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decP(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func fixture() (*fakeCatalog, *fakeOrderRepo) {
	catalog := &fakeCatalog{products: map[string]*model.Product{
		"rose": {
			BaseModel: model.BaseModel{ID: "rose"},
			Name:      "Rose Bouquet",
			Price:     dec("30.00"),
			SalePrice: decP("25.00"),
			Stock:     5,
		},
		"daisy": {
			BaseModel: model.BaseModel{ID: "daisy"},
			Name:      "Daisy Keychain",
			Price:     dec("9.99"),
			Stock:     1,
		},
	}}
	return catalog, newFakeOrderRepo(catalog)
}

func validCustomer() dto.CustomerInfo {
	return dto.CustomerInfo{
		Name:   "Asha Rao",
		Email:  "asha@example.com",
		Street: "12 Garden Lane",
		City:   "Portland",
		Zip:    "97201",
	}
}

func TestPlaceOrder_HappyPath(t *testing.T) {
	catalog, repo := fixture()
	notifier := &recordingNotifier{done: make(chan struct{}, 1)}
	uc := NewOrderUseCase(repo, catalog, notifier, zap.NewNop())

	o, err := uc.PlaceOrder(context.Background(), &dto.PlaceOrderInput{
		Items:    []dto.CartItem{{ProductID: "rose", Quantity: 2}},
		Customer: validCustomer(),
	})
	require.NoError(t, err)

	// Sale price snapshot: 2 * 25.00 = 50.00, which is not > 50.00, so
	// shipping applies.
	assert.True(t, o.Subtotal.Equal(dec("50.00")), "subtotal = %s", o.Subtotal)
	assert.True(t, o.Shipping.Equal(dec("5.99")))
	assert.True(t, o.Tax.Equal(dec("4.00")))
	assert.True(t, o.Total.Equal(dec("59.99")))
	assert.Equal(t, model.StatusPending, o.Status)
	assert.Equal(t, model.PaymentPending, o.PaymentStatus)
	assert.NotEmpty(t, o.OrderNumber)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Rose Bouquet", o.Items[0].Name)

	assert.Equal(t, 3, catalog.products["rose"].Stock)

	<-notifier.done
	assert.Equal(t, []string{"order.created"}, notifier.kinds)
}

func TestPlaceOrder_FreeShippingAboveThreshold(t *testing.T) {
	catalog, repo := fixture()
	uc := NewOrderUseCase(repo, catalog, nil, zap.NewNop())

	o, err := uc.PlaceOrder(context.Background(), &dto.PlaceOrderInput{
		Items:    []dto.CartItem{{ProductID: "rose", Quantity: 3}},
		Customer: validCustomer(),
	})
	require.NoError(t, err)

	assert.True(t, o.Subtotal.Equal(dec("75.00")))
	assert.True(t, o.Shipping.IsZero())
	assert.True(t, o.Tax.Equal(dec("6.00")))
	assert.True(t, o.Total.Equal(dec("81.00")))
}

func TestPlaceOrder_ReportsEveryShortItem(t *testing.T) {
	catalog, repo := fixture()
	uc := NewOrderUseCase(repo, catalog, nil, zap.NewNop())

	_, err := uc.PlaceOrder(context.Background(), &dto.PlaceOrderInput{
		Items: []dto.CartItem{
			{ProductID: "rose", Quantity: 10},
			{ProductID: "daisy", Quantity: 2},
		},
		Customer: validCustomer(),
	})
	require.Error(t, err)

	var insufficient *apperr.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Len(t, insufficient.Items, 2)
	assert.Equal(t, "Rose Bouquet", insufficient.Items[0].Name)
	assert.Equal(t, 5, insufficient.Items[0].Available)
	assert.Equal(t, "Daisy Keychain", insufficient.Items[1].Name)
	assert.Equal(t, 1, insufficient.Items[1].Available)

	// Nothing was persisted and no stock moved.
	assert.Empty(t, repo.orders)
	assert.Equal(t, 5, catalog.products["rose"].Stock)
	assert.Equal(t, 1, catalog.products["daisy"].Stock)
}

func TestPlaceOrder_ValidationErrors(t *testing.T) {
	catalog, repo := fixture()
	uc := NewOrderUseCase(repo, catalog, nil, zap.NewNop())

	_, err := uc.PlaceOrder(context.Background(), &dto.PlaceOrderInput{
		Items:    nil,
		Customer: dto.CustomerInfo{Email: "not-an-email"},
	})
	require.Error(t, err)

	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Fields, "items")
	assert.Contains(t, validation.Fields, "customer.name")
	assert.Contains(t, validation.Fields, "customer.email")
	assert.Empty(t, repo.orders)
}

func TestPlaceOrder_UnknownProduct(t *testing.T) {
	catalog, repo := fixture()
	uc := NewOrderUseCase(repo, catalog, nil, zap.NewNop())

	_, err := uc.PlaceOrder(context.Background(), &dto.PlaceOrderInput{
		Items:    []dto.CartItem{{ProductID: "ghost", Quantity: 1}},
		Customer: validCustomer(),
	})

	var notFound *apperr.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestPlaceOrder_ConcurrentOrdersNeverOversell(t *testing.T) {
	catalog, repo := fixture()
	uc := NewOrderUseCase(repo, catalog, nil, zap.NewNop())

	// Two orders of 3 against a stock of 5: at most one can succeed.
	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.PlaceOrder(context.Background(), &dto.PlaceOrderInput{
				Items:    []dto.CartItem{{ProductID: "rose", Quantity: 3}},
				Customer: validCustomer(),
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			var insufficient *apperr.InsufficientStockError
			require.ErrorAs(t, err, &insufficient)
		}
	}

	assert.LessOrEqual(t, succeeded, 1)
	assert.GreaterOrEqual(t, catalog.products["rose"].Stock, 0, "stock must never go negative")
	assert.Equal(t, 5-3*succeeded, catalog.products["rose"].Stock)
}

func TestUpdateOrderStatus_EnforcesStateMachine(t *testing.T) {
	catalog, repo := fixture()
	uc := NewOrderUseCase(repo, catalog, nil, zap.NewNop())

	o, err := uc.PlaceOrder(context.Background(), &dto.PlaceOrderInput{
		Items:    []dto.CartItem{{ProductID: "daisy", Quantity: 1}},
		Customer: validCustomer(),
	})
	require.NoError(t, err)

	// pending -> shipped skips processing and must be rejected.
	_, err = uc.UpdateOrderStatus(context.Background(), o.ID, model.StatusShipped)
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)

	updated, err := uc.UpdateOrderStatus(context.Background(), o.ID, model.StatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, updated.Status)

	// Cancelling refunds the payment.
	cancelled, err := uc.UpdateOrderStatus(context.Background(), o.ID, model.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRefunded, cancelled.PaymentStatus)

	// Terminal: nothing leaves cancelled.
	_, err = uc.UpdateOrderStatus(context.Background(), o.ID, model.StatusProcessing)
	require.ErrorAs(t, err, &validation)
}

func TestDeleteOrder_CancelsBeforeRemoving(t *testing.T) {
	catalog, repo := fixture()
	notifier := &recordingNotifier{done: make(chan struct{}, 2)}
	uc := NewOrderUseCase(repo, catalog, notifier, zap.NewNop())

	o, err := uc.PlaceOrder(context.Background(), &dto.PlaceOrderInput{
		Items:    []dto.CartItem{{ProductID: "daisy", Quantity: 1}},
		Customer: validCustomer(),
	})
	require.NoError(t, err)
	<-notifier.done

	observer := &observingRepo{fakeOrderRepo: repo}
	ucObserved := NewOrderUseCase(observer, catalog, notifier, zap.NewNop())

	require.NoError(t, ucObserved.DeleteOrder(context.Background(), o.ID))
	<-notifier.done

	// The cancellation update happened before the delete.
	require.Equal(t, []string{"update", "delete"}, observer.events)
	assert.Equal(t, model.StatusCancelled, observer.lastStatus)
	assert.Equal(t, model.PaymentRefunded, observer.lastPayment)

	_, err = ucObserved.GetOrder(context.Background(), o.ID)
	var notFound *apperr.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

// observingRepo records the update-before-delete sequence.
type observingRepo struct {
	*fakeOrderRepo
	events      []string
	lastStatus  model.OrderStatus
	lastPayment model.PaymentStatus
}

func (o *observingRepo) UpdateStatus(ctx context.Context, id string, status model.OrderStatus, payment model.PaymentStatus) error {
	o.events = append(o.events, "update")
	o.lastStatus = status
	o.lastPayment = payment
	return o.fakeOrderRepo.UpdateStatus(ctx, id, status, payment)
}

func (o *observingRepo) Delete(ctx context.Context, id string) error {
	o.events = append(o.events, "delete")
	return o.fakeOrderRepo.Delete(ctx, id)
}

func TestGetOrderByNumber(t *testing.T) {
	catalog, repo := fixture()
	uc := NewOrderUseCase(repo, catalog, nil, zap.NewNop())

	placed, err := uc.PlaceOrder(context.Background(), &dto.PlaceOrderInput{
		Items:    []dto.CartItem{{ProductID: "daisy", Quantity: 1}},
		Customer: validCustomer(),
	})
	require.NoError(t, err)

	found, err := uc.GetOrderByNumber(context.Background(), placed.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, placed.ID, found.ID)

	_, err = uc.GetOrderByNumber(context.Background(), "PR-00000000-NOPE")
	var notFound *apperr.NotFoundError
	require.ErrorAs(t, err, &notFound)
}
