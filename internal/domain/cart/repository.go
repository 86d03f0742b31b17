package cart

import (
	"context"

	"github.com/google/uuid"
)

// CartRepository provides access to the cart store
type CartRepository interface {
	// FindByCustomer loads a customer's cart with its items, or returns
	// a NOT_FOUND domain error if the customer has never had one
	FindByCustomer(ctx context.Context, customerID uuid.UUID) (*Cart, error)

	// Save persists the cart and replaces its item lines
	Save(ctx context.Context, cart *Cart) error
}
