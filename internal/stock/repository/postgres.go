package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/petalroad/storefront-service/internal/apperr"
	"github.com/petalroad/storefront-service/internal/model"
	"github.com/petalroad/storefront-service/internal/stock"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetStock(ctx context.Context, productID string) (int, error) {
	var qty int
	err := r.DB.GetContext(ctx, &qty, `SELECT stock FROM products WHERE id = $1`, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperr.NotFound("product", productID)
		}
		return 0, errors.Wrap(err, "select stock")
	}
	return qty, nil
}

// DecrementStock refuses to go below zero: the WHERE clause only matches
// while the remaining stock covers qty, so concurrent decrements cannot
// oversell.
func (r *PGRepository) DecrementStock(ctx context.Context, productID string, qty int) (int, error) {
	var newStock int
	query := `
        UPDATE products
        SET stock = stock - $1, updated_at = NOW()
        WHERE id = $2 AND stock >= $1
        RETURNING stock
    `
	err := r.DB.GetContext(ctx, &newStock, query, qty, productID)
	if err == nil {
		return newStock, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, errors.Wrap(err, "decrement stock")
	}

	// No row matched: either the product is gone or the stock is short.
	available, err := r.GetStock(ctx, productID)
	if err != nil {
		return 0, err
	}
	return 0, &stock.InsufficientError{
		ProductID: productID,
		Requested: qty,
		Available: available,
	}
}

func (r *PGRepository) SetStock(ctx context.Context, productID string, value int) (int, error) {
	var newStock int
	query := `
        UPDATE products
        SET stock = $1, updated_at = NOW()
        WHERE id = $2
        RETURNING stock
    `
	err := r.DB.GetContext(ctx, &newStock, query, value, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperr.NotFound("product", productID)
		}
		return 0, errors.Wrap(err, "set stock")
	}
	return newStock, nil
}

func (r *PGRepository) LogMovement(ctx context.Context, m *model.StockMovement) error {
	query := `
        INSERT INTO stock_movements (
            id, product_id, quantity_change, quantity_before, quantity_after,
            reason, reference, created_at
        )
        VALUES (
            :id, :product_id, :quantity_change, :quantity_before, :quantity_after,
            :reason, :reference, :created_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, m)
	return errors.Wrap(err, "insert stock movement")
}

func (r *PGRepository) ListMovements(ctx context.Context, f *stock.MovementFilters) ([]model.StockMovement, int, error) {
	var items []model.StockMovement
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.Reason != "" {
		conditions = append(conditions, "reason = :reason")
		args["reason"] = f.Reason
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM stock_movements" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count stock movements")
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM stock_movements" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, errors.Wrap(err, "prepare stock movements")
	}
	defer nstmt.Close()

	if err := nstmt.SelectContext(ctx, &items, args); err != nil {
		return nil, 0, errors.Wrap(err, "select stock movements")
	}
	return items, count, nil
}
