package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/petalroad/storefront-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (
            id, name, description, price, sale_price, stock, category,
            is_featured, is_new, features, images, created_at, updated_at
        )
        VALUES (
            :id, :name, :description, :price, :sale_price, :stock, :category,
            :is_featured, :is_new, :features, :images, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return errors.Wrap(err, "insert product")
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	query := `SELECT * FROM products WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "select product")
	}
	return &product, nil
}

// FindAll loads the whole catalog in insertion order. The dataset is small
// (one shop) and the query engine needs a deterministic base order for its
// stable tie-breaks.
func (r *PGRepository) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	query := `SELECT * FROM products ORDER BY created_at ASC, id ASC`
	if err := r.DB.SelectContext(ctx, &products, query); err != nil {
		return nil, errors.Wrap(err, "select products")
	}
	return products, nil
}

func (r *PGRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products
        SET name = :name,
            description = :description,
            price = :price,
            sale_price = :sale_price,
            category = :category,
            is_featured = :is_featured,
            is_new = :is_new,
            features = :features,
            images = :images,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return errors.Wrap(err, "update product")
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	return errors.Wrap(err, "delete product")
}
