package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no order matches the requested id and owner.
var ErrNotFound = errors.New("order not found")

// StatusPending is the status of an order that has not been paid yet.
const StatusPending = "pending"

// Order is a customer order together with its line items.
type Order struct {
	ID          string
	UserID      string
	Status      string
	TotalAmount decimal.Decimal
	Currency    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Items       []Item
}

// Item is a single line of an order.
type Item struct {
	ID        string
	OrderID   string
	ProductID string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Payable reports whether a payment can still be started for the order.
func (o *Order) Payable() bool {
	return o.Status == StatusPending
}

// Repository defines read operations for orders.
type Repository interface {
	// GetForUser returns the order with the given id owned by userID,
	// including its items. Returns ErrNotFound if there is no such order.
	GetForUser(ctx context.Context, id, userID string) (*Order, error)
}
