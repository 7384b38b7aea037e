package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/petalroad/storefront-service/internal/apperr"
	"github.com/petalroad/storefront-service/internal/catalog"
	"github.com/petalroad/storefront-service/internal/catalog/dto"
	"github.com/petalroad/storefront-service/internal/catalog/engine"
	"github.com/petalroad/storefront-service/internal/model"
	"github.com/petalroad/storefront-service/pkg/cache"
	"github.com/petalroad/storefront-service/pkg/search"
)

const (
	productsIndex = "products"
	listCacheTTL  = 5 * time.Minute
)

type productUseCase struct {
	repo   catalog.Repository
	cache  *cache.RedisClient
	es     *search.Client
	logger *zap.Logger
}

// NewProductUseCase builds the catalog usecase. cache and es may be nil;
// the usecase then serves straight from the repository.
func NewProductUseCase(repo catalog.Repository, cache *cache.RedisClient, es *search.Client, log *zap.Logger) catalog.UseCase {
	return &productUseCase{
		repo:   repo,
		cache:  cache,
		es:     es,
		logger: log,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	p := &model.Product{
		BaseModel:   model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		SalePrice:   input.SalePrice,
		Stock:       input.Stock,
		Category:    input.Category,
		IsFeatured:  input.IsFeatured,
		IsNew:       input.IsNew,
		Features:    pq.StringArray(input.Features),
		Images:      pq.StringArray(input.Images),
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	go uc.invalidateListCache(context.Background())
	go uc.syncToElastic(context.Background(), p)

	return p, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("product", id)
	}
	return p, nil
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	cacheKey := uc.listCacheKey(filters)
	if cached, ok := uc.cachedList(ctx, cacheKey); ok {
		return cached.Products, cached.Count, nil
	}

	dataset, err := uc.loadDataset(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	matched := engine.Query(dataset, filters.Request)
	count := len(matched)
	page := paginate(matched, filters.Page, filters.PageSize)

	if cacheKey != "" {
		uc.storeList(ctx, cacheKey, listCacheEntry{Products: page, Count: count})
	}

	return page, count, nil
}

// loadDataset fetches the engine's input. When a search term is present and
// Elasticsearch is up, the term is pushed down to ES and the engine applies
// the remaining predicates to the hits; any ES failure falls back to the
// database.
func (uc *productUseCase) loadDataset(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, error) {
	term := filters.Search
	if term == "" {
		term = filters.FlowerType
	}

	if term != "" && uc.es != nil {
		q := map[string]interface{}{
			"query": map[string]interface{}{
				"query_string": map[string]interface{}{
					"query":  fmt.Sprintf("*%s*", term),
					"fields": []string{"name^3", "description", "features"},
				},
			},
			"size": 1000,
		}

		res, err := uc.es.Search(ctx, productsIndex, q)
		if err == nil {
			products := make([]model.Product, 0, len(res.Hits.Hits))
			for _, hit := range res.Hits.Hits {
				var p model.Product
				if err := json.Unmarshal(hit.Source, &p); err == nil {
					products = append(products, p)
				}
			}
			return products, nil
		}
		uc.logger.Error("es search failed, falling back to db", zap.Error(err))
	}

	return uc.repo.FindAll(ctx)
}

func paginate(products []model.Product, page, pageSize int) []model.Product {
	if pageSize <= 0 {
		return products
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(products) {
		return []model.Product{}
	}
	end := start + pageSize
	if end > len(products) {
		end = len(products)
	}
	return products[start:end]
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	p, err := uc.repo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("product", input.ID)
	}

	p.Name = input.Name
	p.Description = input.Description
	p.Price = input.Price
	p.SalePrice = input.SalePrice
	p.Category = input.Category
	p.IsFeatured = input.IsFeatured
	p.IsNew = input.IsNew
	p.Features = pq.StringArray(input.Features)
	p.Images = pq.StringArray(input.Images)
	p.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	go uc.invalidateListCache(context.Background())
	go uc.syncToElastic(context.Background(), p)

	return p, nil
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, id string) error {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return apperr.NotFound("product", id)
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}

	go uc.invalidateListCache(context.Background())
	if uc.es != nil {
		go func() {
			if err := uc.es.Delete(context.Background(), productsIndex, id); err != nil {
				uc.logger.Error("failed to delete product from es", zap.Error(err))
			}
		}()
	}

	return nil
}

type listCacheEntry struct {
	Products []model.Product
	Count    int
}

func (uc *productUseCase) listCacheKey(filters *dto.ProductFilters) string {
	if uc.cache == nil {
		return ""
	}
	data, err := json.Marshal(filters)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("products:list:%x", md5.Sum(data))
}

func (uc *productUseCase) cachedList(ctx context.Context, key string) (listCacheEntry, bool) {
	var entry listCacheEntry
	if key == "" {
		return entry, false
	}
	val, err := uc.cache.Client.Get(ctx, key).Result()
	if err != nil {
		return entry, false
	}
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return entry, false
	}
	return entry, true
}

func (uc *productUseCase) storeList(ctx context.Context, key string, entry listCacheEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	uc.cache.Client.Set(ctx, key, data, listCacheTTL)
}

func (uc *productUseCase) invalidateListCache(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	keys, err := uc.cache.Client.Keys(ctx, "products:list:*").Result()
	if err == nil && len(keys) > 0 {
		uc.cache.Client.Del(ctx, keys...)
	}
}

func (uc *productUseCase) syncToElastic(ctx context.Context, p *model.Product) {
	if uc.es == nil {
		return
	}

	mapping := `{
		"mappings": {
			"properties": {
				"name": { "type": "text" },
				"description": { "type": "text" },
				"features": { "type": "text" },
				"category": { "type": "keyword" },
				"price": { "type": "double" },
				"created_at": { "type": "date" }
			}
		}
	}`
	_ = uc.es.CreateIndex(ctx, productsIndex, mapping)

	if err := uc.es.Index(ctx, productsIndex, p.ID, p); err != nil {
		uc.logger.Error("failed to index product", zap.Error(err))
	}
}
