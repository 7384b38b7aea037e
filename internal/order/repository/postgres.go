package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/petalroad/storefront-service/internal/apperr"
	"github.com/petalroad/storefront-service/internal/model"
	"github.com/petalroad/storefront-service/internal/order/dto"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const insertOrderQuery = `
    INSERT INTO orders (
        id, order_number, customer_name, customer_email, customer_phone,
        ship_street, ship_city, ship_state, ship_zip, ship_country,
        subtotal, tax, shipping, total, status, payment_status,
        created_at, updated_at
    )
    VALUES (
        :id, :order_number, :customer_name, :customer_email, :customer_phone,
        :ship_street, :ship_city, :ship_state, :ship_zip, :ship_country,
        :subtotal, :tax, :shipping, :total, :status, :payment_status,
        :created_at, :updated_at
    )
`

const insertItemQuery = `
    INSERT INTO order_items (
        id, order_id, product_id, name, unit_price, sale_price, quantity
    )
    VALUES (
        :id, :order_id, :product_id, :name, :unit_price, :sale_price, :quantity
    )
`

const decrementStockQuery = `
    UPDATE products
    SET stock = stock - $1, updated_at = NOW()
    WHERE id = $2 AND stock >= $1
    RETURNING stock
`

const insertMovementQuery = `
    INSERT INTO stock_movements (
        id, product_id, quantity_change, quantity_before, quantity_after,
        reason, reference, created_at
    )
    VALUES (
        :id, :product_id, :quantity_change, :quantity_before, :quantity_after,
        :reason, :reference, :created_at
    )
`

// Create commits the order and its inventory effects atomically. Each item
// runs the conditional decrement; a zero-row match means a concurrent order
// took the stock since validation, and the whole transaction rolls back.
func (r *PGRepository) Create(ctx context.Context, o *model.Order) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin order tx")
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, insertOrderQuery, o); err != nil {
		return errors.Wrap(err, "insert order")
	}

	for i := range o.Items {
		item := &o.Items[i]
		if _, err := tx.NamedExecContext(ctx, insertItemQuery, item); err != nil {
			return errors.Wrap(err, "insert order item")
		}

		var newStock int
		err := tx.GetContext(ctx, &newStock, decrementStockQuery, item.Quantity, item.ProductID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				available := 0
				_ = tx.GetContext(ctx, &available, `SELECT stock FROM products WHERE id = $1`, item.ProductID)
				return &apperr.InsufficientStockError{Items: []apperr.StockShortage{{
					ProductID: item.ProductID,
					Name:      item.Name,
					Requested: item.Quantity,
					Available: available,
				}}}
			}
			return errors.Wrap(err, "decrement stock")
		}

		reference := o.OrderNumber
		movement := &model.StockMovement{
			ID:             uuid.New().String(),
			ProductID:      item.ProductID,
			QuantityChange: -item.Quantity,
			QuantityBefore: newStock + item.Quantity,
			QuantityAfter:  newStock,
			Reason:         "sale",
			Reference:      &reference,
			CreatedAt:      time.Now(),
		}
		if _, err := tx.NamedExecContext(ctx, insertMovementQuery, movement); err != nil {
			return errors.Wrap(err, "insert stock movement")
		}
	}

	return errors.Wrap(tx.Commit(), "commit order tx")
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	return r.findOne(ctx, `SELECT * FROM orders WHERE id = $1 LIMIT 1`, id)
}

func (r *PGRepository) FindByNumber(ctx context.Context, number string) (*model.Order, error) {
	return r.findOne(ctx, `SELECT * FROM orders WHERE order_number = $1 LIMIT 1`, number)
}

func (r *PGRepository) findOne(ctx context.Context, query, arg string) (*model.Order, error) {
	var o model.Order
	err := r.DB.GetContext(ctx, &o, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "select order")
	}

	items, err := r.loadItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (r *PGRepository) loadItems(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	var items []model.OrderItem
	query := `SELECT * FROM order_items WHERE order_id = $1 ORDER BY id ASC`
	if err := r.DB.SelectContext(ctx, &items, query, orderID); err != nil {
		return nil, errors.Wrap(err, "select order items")
	}
	return items, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	var orders []model.Order
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM orders" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count orders")
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM orders" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, errors.Wrap(err, "prepare orders")
	}
	defer nstmt.Close()

	if err := nstmt.SelectContext(ctx, &orders, args); err != nil {
		return nil, 0, errors.Wrap(err, "select orders")
	}

	for i := range orders {
		items, err := r.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, 0, err
		}
		orders[i].Items = items
	}

	return orders, count, nil
}

func (r *PGRepository) UpdateStatus(ctx context.Context, id string, status model.OrderStatus, payment model.PaymentStatus) error {
	query := `
        UPDATE orders
        SET status = $1, payment_status = $2, updated_at = NOW()
        WHERE id = $3
    `
	res, err := r.DB.ExecContext(ctx, query, status, payment, id)
	if err != nil {
		return errors.Wrap(err, "update order status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound("order", id)
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	return errors.Wrap(err, "delete order")
}

func (r *PGRepository) OrderNumberExists(ctx context.Context, number string) (bool, error) {
	var count int
	err := r.DB.GetContext(ctx, &count, `SELECT count(*) FROM orders WHERE order_number = $1`, number)
	if err != nil {
		return false, errors.Wrap(err, "check order number")
	}
	return count > 0, nil
}
