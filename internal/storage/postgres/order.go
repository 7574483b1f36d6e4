package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-api/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// getOrderForUserQuery selects an order owned by userID joined with its items,
// one row per item. An order without items yields a single row with NULL item
// columns.
func getOrderForUserQuery(id, userID string) (string, []any, error) {
	return psql.Select(
		"o.id::text", "o.user_id::text", "o.status", "o.total_amount", "o.currency",
		"o.created_at", "o.updated_at",
		"oi.id::text", "oi.product_id", "oi.name", "oi.quantity", "oi.unit_price",
	).
		From("orders o").
		LeftJoin("order_items oi ON oi.order_id = o.id").
		Where(sq.Eq{"o.id": id, "o.user_id": userID}).
		OrderBy("oi.position").
		ToSql()
}

// GetForUser fetches the order and its items in a single query. Returns
// order.ErrNotFound when the order does not exist or belongs to another user.
func (r *OrderRepository) GetForUser(ctx context.Context, id, userID string) (*order.Order, error) {
	query, args, err := getOrderForUserQuery(id, userID)
	if err != nil {
		return nil, fmt.Errorf("building order query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying order %q: %w", id, err)
	}
	defer rows.Close()

	var o *order.Order
	for rows.Next() {
		var (
			head order.Order
			row  itemRow
		)
		if err := rows.Scan(
			&head.ID, &head.UserID, &head.Status, &head.TotalAmount, &head.Currency,
			&head.CreatedAt, &head.UpdatedAt,
			&row.ID, &row.ProductID, &row.Name, &row.Quantity, &row.UnitPrice,
		); err != nil {
			return nil, fmt.Errorf("scanning order %q: %w", id, err)
		}
		if o == nil {
			head.Items = []order.Item{}
			o = &head
		}
		if item, ok := row.item(o.ID); ok {
			o.Items = append(o.Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading order %q: %w", id, err)
	}
	if o == nil {
		return nil, order.ErrNotFound
	}

	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	return o, nil
}

// itemRow holds the nullable item columns of the order join.
type itemRow struct {
	ID        *string
	ProductID *string
	Name      *string
	Quantity  *int32
	UnitPrice decimal.NullDecimal
}

// item converts the row into an order item. It reports false for the NULL row
// produced by an order without items.
func (r itemRow) item(orderID string) (order.Item, bool) {
	if r.ID == nil {
		return order.Item{}, false
	}
	it := order.Item{
		ID:        *r.ID,
		OrderID:   orderID,
		UnitPrice: r.UnitPrice.Decimal,
	}
	if r.ProductID != nil {
		it.ProductID = *r.ProductID
	}
	if r.Name != nil {
		it.Name = *r.Name
	}
	if r.Quantity != nil {
		it.Quantity = int(*r.Quantity)
	}
	return it, true
}
