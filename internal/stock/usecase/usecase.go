package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/petalroad/storefront-service/internal/model"
	"github.com/petalroad/storefront-service/internal/stock"
	"github.com/petalroad/storefront-service/pkg/cache"
)

const (
	lockTTL        = 5 * time.Second
	lockRetries    = 3
	lockRetryDelay = 100 * time.Millisecond
)

type stockUseCase struct {
	repo   stock.Repository
	cache  *cache.RedisClient
	logger *zap.Logger
}

// NewStockUseCase builds the stock ledger usecase. cache may be nil; the
// admin override then runs unlocked (the decrement path never needs the
// lock, it is atomic in the store).
func NewStockUseCase(repo stock.Repository, cache *cache.RedisClient, log *zap.Logger) stock.UseCase {
	return &stockUseCase{
		repo:   repo,
		cache:  cache,
		logger: log,
	}
}

func (uc *stockUseCase) GetStock(ctx context.Context, productID string) (int, error) {
	return uc.repo.GetStock(ctx, productID)
}

func (uc *stockUseCase) DecrementStock(ctx context.Context, productID string, qty int, reference string) (int, error) {
	if qty <= 0 {
		return 0, errors.New("quantity must be positive")
	}

	newStock, err := uc.repo.DecrementStock(ctx, productID, qty)
	if err != nil {
		return 0, err
	}

	uc.logMovement(ctx, productID, -qty, newStock+qty, newStock, "sale", reference)
	return newStock, nil
}

func (uc *stockUseCase) SetStock(ctx context.Context, productID string, value int, reason string) (int, error) {
	if value < 0 {
		return 0, errors.New("stock cannot be negative")
	}

	unlock, err := uc.lockProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	before, err := uc.repo.GetStock(ctx, productID)
	if err != nil {
		return 0, err
	}

	after, err := uc.repo.SetStock(ctx, productID, value)
	if err != nil {
		return 0, err
	}

	if reason == "" {
		reason = "adjustment"
	}
	uc.logMovement(ctx, productID, after-before, before, after, reason, "")
	return after, nil
}

func (uc *stockUseCase) ListMovements(ctx context.Context, filters *stock.MovementFilters) ([]model.StockMovement, int, error) {
	return uc.repo.ListMovements(ctx, filters)
}

func (uc *stockUseCase) lockProduct(ctx context.Context, productID string) (func(), error) {
	if uc.cache == nil {
		return func() {}, nil
	}

	lockKey := fmt.Sprintf("lock:stock:%s", productID)
	lockValue := uuid.New().String()

	for i := 0; i < lockRetries; i++ {
		ok, err := uc.cache.AcquireLock(ctx, lockKey, lockValue, lockTTL)
		if err != nil {
			uc.logger.Error("failed to acquire stock lock", zap.Error(err))
		}
		if ok {
			return func() {
				if err := uc.cache.ReleaseLock(ctx, lockKey, lockValue); err != nil {
					uc.logger.Error("failed to release stock lock", zap.Error(err))
				}
			}, nil
		}
		time.Sleep(lockRetryDelay)
	}

	return nil, errors.New("stock busy, please try again later")
}

func (uc *stockUseCase) logMovement(ctx context.Context, productID string, change, before, after int, reason, reference string) {
	var ref *string
	if reference != "" {
		ref = &reference
	}
	movement := &model.StockMovement{
		ID:             uuid.New().String(),
		ProductID:      productID,
		QuantityChange: change,
		QuantityBefore: before,
		QuantityAfter:  after,
		Reason:         reason,
		Reference:      ref,
		CreatedAt:      time.Now(),
	}
	if err := uc.repo.LogMovement(ctx, movement); err != nil {
		uc.logger.Error("failed to log stock movement",
			zap.String("product_id", productID),
			zap.Error(err),
		)
	}
}
