package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fadedwholesale/wholesale-service/internal/application/ports"
	domainErrors "github.com/fadedwholesale/wholesale-service/internal/domain/errors"
	"github.com/fadedwholesale/wholesale-service/internal/domain/order"
	"github.com/fadedwholesale/wholesale-service/internal/infrastructure/monitoring"
)

type OrderRepository struct {
	db   *sql.DB
	tx   *sql.Tx
	isTx bool
}

func NewOrderRepository(conn *Connection) *OrderRepository {
	return &OrderRepository{
		db:   conn.GetDB(),
		isTx: false,
	}
}

func (r *OrderRepository) CreateOrder(ctx context.Context, o *order.Order) error {
	orderQuery := `
		INSERT INTO orders (id, code, user_id, subtotal, shipping_fee, discount_percent, discount_amount, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	var err error
	if r.isTx {
		_, err = r.tx.ExecContext(ctx, orderQuery,
			o.ID, o.Code, o.UserID, o.Subtotal, o.ShippingFee, o.DiscountPercent, o.DiscountAmount, o.Total, o.CreatedAt,
		)
	} else {
		_, err = monitoring.InstrumentExec(ctx, r.db, "INSERT", "orders", orderQuery,
			o.ID, o.Code, o.UserID, o.Subtotal, o.ShippingFee, o.DiscountPercent, o.DiscountAmount, o.Total, o.CreatedAt,
		)
	}
	if err != nil {
		return err
	}

	lineQuery := `
		INSERT INTO order_lines (order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
	`

	for _, line := range o.Lines {
		if r.isTx {
			_, err = r.tx.ExecContext(ctx, lineQuery, o.ID, line.ProductID, line.Quantity, line.UnitPrice)
		} else {
			_, err = monitoring.InstrumentExec(ctx, r.db, "INSERT", "order_lines", lineQuery,
				o.ID, line.ProductID, line.Quantity, line.UnitPrice,
			)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *OrderRepository) GetOrderByCode(ctx context.Context, code string) (*order.Order, error) {
	query := `
		SELECT id, code, user_id, subtotal, shipping_fee, discount_percent, discount_amount, total, created_at
		FROM orders
		WHERE code = $1
	`

	var o order.Order
	var err error

	if r.isTx {
		err = r.tx.QueryRowContext(ctx, query, code).Scan(
			&o.ID, &o.Code, &o.UserID, &o.Subtotal, &o.ShippingFee, &o.DiscountPercent, &o.DiscountAmount, &o.Total, &o.CreatedAt,
		)
	} else {
		row := monitoring.InstrumentQueryRow(ctx, r.db, "SELECT", "orders", query, code)
		err = row.Scan(&o.ID, &o.Code, &o.UserID, &o.Subtotal, &o.ShippingFee, &o.DiscountPercent, &o.DiscountAmount, &o.Total, &o.CreatedAt)
	}

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domainErrors.ErrOrderNotFound
		}
		return nil, err
	}

	lines, err := r.getOrderLines(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Lines = lines

	return &o, nil
}

func (r *OrderRepository) GetOrdersByUserID(ctx context.Context, userID string, limit, offset int) ([]*order.Order, error) {
	query := `
		SELECT id, code, user_id, subtotal, shipping_fee, discount_percent, discount_amount, total, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	var rows *sql.Rows
	var err error

	if r.isTx {
		rows, err = r.tx.QueryContext(ctx, query, userID, limit, offset)
	} else {
		rows, err = monitoring.InstrumentQuery(ctx, r.db, "SELECT", "orders", query, userID, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*order.Order
	for rows.Next() {
		var o order.Order
		if err := rows.Scan(
			&o.ID, &o.Code, &o.UserID, &o.Subtotal, &o.ShippingFee, &o.DiscountPercent, &o.DiscountAmount, &o.Total, &o.CreatedAt,
		); err != nil {
			return nil, err
		}
		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, o := range orders {
		lines, err := r.getOrderLines(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		o.Lines = lines
	}

	return orders, nil
}

// DecrementStock reduces a product's remaining stock, failing the whole
// statement when the decrement would go negative. Sold-out detection rides on
// the returned remaining count.
func (r *OrderRepository) DecrementStock(ctx context.Context, productID string, quantity int) (int, error) {
	query := `
		UPDATE products
		SET stock_ceiling = stock_ceiling - $2
		WHERE id = $1 AND stock_ceiling >= $2
		RETURNING stock_ceiling
	`

	var remaining int
	var err error

	if r.isTx {
		err = r.tx.QueryRowContext(ctx, query, productID, quantity).Scan(&remaining)
	} else {
		row := monitoring.InstrumentQueryRow(ctx, r.db, "UPDATE", "products", query, productID, quantity)
		err = row.Scan(&remaining)
	}

	if err != nil {
		if err == sql.ErrNoRows {
			return 0, domainErrors.ErrOutOfStock
		}
		return 0, err
	}

	return remaining, nil
}

func (r *OrderRepository) BeginTx(ctx context.Context) (ports.OrderRepository, error) {
	if r.isTx {
		return nil, errors.New("transaction already started")
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
	if err != nil {
		return nil, err
	}

	return &OrderRepository{
		db:   r.db,
		tx:   tx,
		isTx: true,
	}, nil
}

func (r *OrderRepository) CommitTx(ctx context.Context) error {
	if !r.isTx || r.tx == nil {
		return errors.New("no transaction to commit")
	}

	return r.tx.Commit()
}

func (r *OrderRepository) RollbackTx(ctx context.Context) error {
	if !r.isTx || r.tx == nil {
		return errors.New("no transaction to rollback")
	}

	return r.tx.Rollback()
}

func (r *OrderRepository) getOrderLines(ctx context.Context, orderID string) ([]order.Line, error) {
	query := `
		SELECT product_id, quantity, unit_price
		FROM order_lines
		WHERE order_id = $1
		ORDER BY product_id
	`

	var rows *sql.Rows
	var err error

	if r.isTx {
		rows, err = r.tx.QueryContext(ctx, query, orderID)
	} else {
		rows, err = monitoring.InstrumentQuery(ctx, r.db, "SELECT", "order_lines", query, orderID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []order.Line
	for rows.Next() {
		var l order.Line
		if err := rows.Scan(&l.ProductID, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}
