package order

import (
	"context"

	"github.com/farmtohome/backend/internal/domain/cart"
	"github.com/farmtohome/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderRepository provides access to the order store
type OrderRepository interface {
	// FindByID loads an order with its items and status history
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByCustomer returns a customer's orders, newest first
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]Order, int64, error)

	// FindByFarmer returns orders containing at least one of the farmer's products
	FindByFarmer(ctx context.Context, farmerID uuid.UUID, filter shared.Filter) ([]Order, int64, error)

	// FindAll returns all orders for the admin back office
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, int64, error)

	// SaveWithLock persists status and refund changes with an optimistic
	// version check, appending any new history entries
	SaveWithLock(ctx context.Context, order *Order) error
}

// StockDecrement is one conditional stock adjustment applied at checkout
type StockDecrement struct {
	ProductID uuid.UUID
	Quantity  int
}

// CheckoutRepository owns the all-or-nothing persistence of checkout and
// cancellation. Implementations must guarantee that stock adjustments,
// the order write and the cart clear commit or roll back together.
type CheckoutRepository interface {
	// PlaceOrder atomically decrements stock for every line (failing the
	// whole operation with INSUFFICIENT_STOCK if any product has too
	// little), inserts the order with items and initial history, and
	// clears the cart.
	PlaceOrder(ctx context.Context, o *Order, c *cart.Cart, decrements []StockDecrement) error

	// CancelOrder atomically persists the cancelled order and restores
	// stock for every line.
	CancelOrder(ctx context.Context, o *Order) error
}
