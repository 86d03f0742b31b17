package identity

import (
	"context"

	"github.com/farmtohome/backend/internal/domain/shared"
)

// UserRepository provides access to the user store
type UserRepository interface {
	shared.Repository[User]
	FindByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
