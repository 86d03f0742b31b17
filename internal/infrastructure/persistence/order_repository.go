package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/farmtohome/backend/internal/domain/order"
	"github.com/farmtohome/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements order.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID loads an order with its items and status history
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindByCustomer returns a customer's orders, newest first
func (r *GormOrderRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]order.Order, int64, error) {
	base := r.db.WithContext(ctx).Model(&order.Order{}).Where("customer_id = ?", customerID)
	return r.list(ctx, base, filter)
}

// FindByFarmer returns orders containing at least one of the farmer's products
func (r *GormOrderRepository) FindByFarmer(ctx context.Context, farmerID uuid.UUID, filter shared.Filter) ([]order.Order, int64, error) {
	lines := r.db.Model(&order.OrderItem{}).
		Select("order_id").
		Where("farmer_id = ?", farmerID)
	base := r.db.WithContext(ctx).Model(&order.Order{}).Where("id IN (?)", lines)
	return r.list(ctx, base, filter)
}

// FindAll returns all orders for the admin back office
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).Model(&order.Order{}), filter)
}

func (r *GormOrderRepository) list(ctx context.Context, base *gorm.DB, filter shared.Filter) ([]order.Order, int64, error) {
	var total int64
	countQuery := applyFilterWithoutPagination(base.Session(&gorm.Session{}), filter, orderFilterColumns)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []order.Order
	query := applyFilter(base.Session(&gorm.Session{}), filter, orderFilterColumns).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		})
	if err := query.Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// SaveWithLock persists status and refund changes with an optimistic version
// check. Item snapshots are immutable after checkout and are never updated;
// new status history entries are appended, existing ones left untouched.
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
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
				"delivered_at":  o.DeliveredAt,
				"refund_amount": o.RefundAmount,
				"refund_method": o.RefundMethod,
				"bank_details":  o.BankDetails,
				"version":       o.Version,
				"updated_at":    o.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The order has been modified by another user")
		}

		return appendStatusHistory(tx, o)
	})
}

// appendStatusHistory inserts history entries that are not yet persisted.
// Existing rows are skipped on primary key conflict, keeping the log
// strictly append-only.
func appendStatusHistory(tx *gorm.DB, o *order.Order) error {
	if len(o.StatusHistory) == 0 {
		return nil
	}
	for i := range o.StatusHistory {
		o.StatusHistory[i].OrderID = o.ID
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&o.StatusHistory).Error
}

// orderFilterColumns maps filter keys to order columns
var orderFilterColumns = filterColumns{
	allowed: map[string]string{
		"status":         "status",
		"payment_method": "payment_method",
	},
	sortable:     mergeSortFields("status", "total", "delivered_at"),
	defaultOrder: "created_at DESC",
}

// Ensure GormOrderRepository implements OrderRepository
var _ order.OrderRepository = (*GormOrderRepository)(nil)
