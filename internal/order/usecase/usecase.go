package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/petalroad/storefront-service/internal/apperr"
	"github.com/petalroad/storefront-service/internal/catalog"
	"github.com/petalroad/storefront-service/internal/model"
	"github.com/petalroad/storefront-service/internal/notify"
	"github.com/petalroad/storefront-service/internal/order"
	"github.com/petalroad/storefront-service/internal/order/dto"
	"github.com/petalroad/storefront-service/internal/order/totals"
)

type orderUseCase struct {
	repo     order.Repository
	products catalog.Repository
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewOrderUseCase(repo order.Repository, products catalog.Repository, notifier notify.Notifier, log *zap.Logger) order.UseCase {
	return &orderUseCase{
		repo:     repo,
		products: products,
		notifier: notifier,
		logger:   log,
	}
}

// PlaceOrder is the checkout pipeline.
//
// 1. Validate the input and current stock for every line item; all
// shortages are reported together.
// 2. Build the order: snapshot of the products, server-side totals, unique
// order number.
// 3. Persist. The repository folds the stock decrement into the order
// transaction, so a concurrent order racing past step 1 rolls this one back
// instead of overselling.
// 4. Notify fire-and-forget; the customer gets their order back regardless
// of the notification fate.
func (uc *orderUseCase) PlaceOrder(ctx context.Context, input *dto.PlaceOrderInput) (*model.Order, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	items, err := uc.buildItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	lines := make([]totals.LineItem, len(items))
	for i, item := range items {
		lines[i] = totals.LineItem{
			UnitPrice: item.UnitPrice,
			SalePrice: item.SalePrice,
			Quantity:  item.Quantity,
		}
	}
	breakdown := totals.Compute(lines).Rounded()

	number, err := uc.generateOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	o := &model.Order{
		BaseModel:     model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		OrderNumber:   number,
		CustomerName:  input.Customer.Name,
		CustomerEmail: input.Customer.Email,
		CustomerPhone: input.Customer.Phone,
		ShipStreet:    input.Customer.Street,
		ShipCity:      input.Customer.City,
		ShipState:     input.Customer.State,
		ShipZip:       input.Customer.Zip,
		ShipCountry:   input.Customer.Country,
		Subtotal:      breakdown.Subtotal,
		Tax:           breakdown.Tax,
		Shipping:      breakdown.Shipping,
		Total:         breakdown.Total,
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentPending,
		Items:         items,
	}
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}

	if err := uc.repo.Create(ctx, o); err != nil {
		return nil, err
	}

	uc.dispatch(notify.KindOrderCreated, o)

	return o, nil
}

// buildItems snapshots each cart line from the catalog and collects every
// stock shortage before failing, so the customer learns the full list of
// items to remove or reduce in one round trip.
func (uc *orderUseCase) buildItems(ctx context.Context, cart []dto.CartItem) ([]model.OrderItem, error) {
	items := make([]model.OrderItem, 0, len(cart))
	shortages := []apperr.StockShortage{}

	for _, line := range cart {
		p, err := uc.products.FindByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, apperr.NotFound("product", line.ProductID)
		}

		if p.Stock < line.Quantity {
			shortages = append(shortages, apperr.StockShortage{
				ProductID: p.ID,
				Name:      p.Name,
				Requested: line.Quantity,
				Available: p.Stock,
			})
			continue
		}

		items = append(items, model.OrderItem{
			ID:        uuid.New().String(),
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			SalePrice: p.SalePrice,
			Quantity:  line.Quantity,
		})
	}

	if len(shortages) > 0 {
		return nil, &apperr.InsufficientStockError{Items: shortages}
	}
	return items, nil
}

func (uc *orderUseCase) generateOrderNumber(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 3; attempt++ {
		suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
		number := fmt.Sprintf("PR-%s-%s", time.Now().Format("20060102"), suffix)

		exists, err := uc.repo.OrderNumberExists(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", errors.New("could not generate a unique order number")
}

func (uc *orderUseCase) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	o, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFound("order", id)
	}
	return o, nil
}

func (uc *orderUseCase) GetOrderByNumber(ctx context.Context, number string) (*model.Order, error) {
	o, err := uc.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFound("order", number)
	}
	return o, nil
}

func (uc *orderUseCase) ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *orderUseCase) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, &apperr.ValidationError{Fields: apperr.FieldErrors{
			"status": "unknown status " + string(status),
		}}
	}

	o, err := uc.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !o.Status.CanTransitionTo(status) {
		return nil, &apperr.ValidationError{Fields: apperr.FieldErrors{
			"status": fmt.Sprintf("cannot transition from %s to %s", o.Status, status),
		}}
	}

	payment := o.PaymentStatus
	if status == model.StatusCancelled {
		payment = model.PaymentRefunded
	}

	if err := uc.repo.UpdateStatus(ctx, id, status, payment); err != nil {
		return nil, err
	}

	o.Status = status
	o.PaymentStatus = payment
	o.UpdatedAt = time.Now()
	return o, nil
}

// DeleteOrder cancels before it removes: the status/payment update commits
// first so any observer of update events sees the cancellation, then the
// row disappears.
func (uc *orderUseCase) DeleteOrder(ctx context.Context, id string) error {
	o, err := uc.GetOrder(ctx, id)
	if err != nil {
		return err
	}

	if err := uc.repo.UpdateStatus(ctx, id, model.StatusCancelled, model.PaymentRefunded); err != nil {
		return err
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}

	o.Status = model.StatusCancelled
	o.PaymentStatus = model.PaymentRefunded
	uc.dispatch(notify.KindOrderCancelled, o)

	return nil
}

// dispatch hands the event to the notifier on a detached context and never
// lets a failure reach the caller.
func (uc *orderUseCase) dispatch(kind string, o *model.Order) {
	if uc.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := uc.notifier.Notify(ctx, kind, o); err != nil {
			uc.logger.Error("notification dispatch failed",
				zap.String("kind", kind),
				zap.String("order_number", o.OrderNumber),
				zap.Error(err),
			)
		}
	}()
}
