package persistence

import (
	"context"
	"time"

	"github.com/farmtohome/backend/internal/domain/cart"
	"github.com/farmtohome/backend/internal/domain/catalog"
	"github.com/farmtohome/backend/internal/domain/order"
	"github.com/farmtohome/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormCheckoutRepository implements order.CheckoutRepository using GORM.
// Checkout and cancellation each run in a single database transaction so
// stock adjustments, the order write and the cart clear commit together.
type GormCheckoutRepository struct {
	db *gorm.DB
}

// NewGormCheckoutRepository creates a new GormCheckoutRepository
func NewGormCheckoutRepository(db *gorm.DB) *GormCheckoutRepository {
	return &GormCheckoutRepository{db: db}
}

// PlaceOrder commits a checkout. Each stock decrement is conditional on
// sufficient stock remaining; if any line fails, the whole transaction
// rolls back and no order is created. This is the guard against
// overselling under concurrent checkouts.
func (r *GormCheckoutRepository) PlaceOrder(ctx context.Context, o *order.Order, c *cart.Cart, decrements []order.StockDecrement) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, d := range decrements {
			if err := decrementStock(tx, d); err != nil {
				return err
			}
		}

		if err := tx.Create(o).Error; err != nil {
			return err
		}

		if err := tx.Where("cart_id = ?", c.ID).
			Delete(&cart.CartItem{}).Error; err != nil {
			return err
		}
		c.Clear()
		return tx.Omit("Items").Save(c).Error
	})
}

// decrementStock applies one conditional decrement. Zero rows affected
// means the product either vanished or has too little stock left.
func decrementStock(tx *gorm.DB, d order.StockDecrement) error {
	result := tx.Model(&catalog.Product{}).
		Where("id = ? AND stock >= ?", d.ProductID, d.Quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", d.Quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrInsufficientStock
	}
	return nil
}

// CancelOrder persists the cancelled order and restores stock for every
// line in the same transaction, with the usual optimistic version check.
func (r *GormCheckoutRepository) CancelOrder(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Scan into a scalar reports a missing row via RowsAffected,
		// not ErrRecordNotFound
		var currentVersion int
		res := tx.Model(&order.Order{}).
			Where("id = ?", o.ID).
			Select("version").
			Scan(&currentVersion)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		if currentVersion != o.Version {
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The order has been modified by another user")
		}

		o.Version++
		o.UpdatedAt = time.Now()

		result := tx.Model(&order.Order{}).
			Where("id = ? AND version = ?", o.ID, currentVersion).
			Updates(map[string]interface{}{
				"status":        o.Status,
				"refund_amount": o.RefundAmount,
				"refund_method": o.RefundMethod,
				"version":       o.Version,
				"updated_at":    o.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The order has been modified by another user")
		}

		if err := appendStatusHistory(tx, o); err != nil {
			return err
		}

		for i := range o.Items {
			item := &o.Items[i]
			if err := tx.Model(&catalog.Product{}).
				Where("id = ?", item.ProductID).
				UpdateColumn("stock", gorm.Expr("stock + ?", item.Quantity)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Ensure GormCheckoutRepository implements CheckoutRepository
var _ order.CheckoutRepository = (*GormCheckoutRepository)(nil)
