package catalog

import (
	"context"

	"github.com/farmtohome/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductRepository provides access to the product store
type ProductRepository interface {
	shared.Repository[Product]

	// FindByIDs loads multiple products at once, e.g. for cart validation
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// FindByFarmer returns a farmer's own listings, approved or not
	FindByFarmer(ctx context.Context, farmerID uuid.UUID, filter shared.Filter) ([]Product, error)

	// SaveWithLock persists with an optimistic version check
	SaveWithLock(ctx context.Context, product *Product) error
}
