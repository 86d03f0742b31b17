package order

import (
	"github.com/farmtohome/backend/internal/domain/identity"
	"github.com/farmtohome/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Event types for the order context
const (
	EventTypeOrderPlaced        = "order.placed"
	EventTypeOrderStatusChanged = "order.status_changed"
	EventTypeOrderCancelled     = "order.cancelled"
)

// OrderPlacedEvent is raised when a cart is committed into an order
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	ItemCount  int       `json:"item_count"`
	Total      string    `json:"total"`
}

// NewOrderPlacedEvent creates a new order placed event
func NewOrderPlacedEvent(o *Order) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPlaced, "Order", o.ID),
		CustomerID:      o.CustomerID,
		ItemCount:       len(o.Items),
		Total:           o.Total.String(),
	}
}

// OrderStatusChangedEvent is raised on every status transition
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	From      OrderStatus   `json:"from"`
	To        OrderStatus   `json:"to"`
	ActorID   uuid.UUID     `json:"actor_id"`
	ActorRole identity.Role `json:"actor_role"`
}

// NewOrderStatusChangedEvent creates a new status changed event
func NewOrderStatusChangedEvent(o *Order, from, to OrderStatus, actorID uuid.UUID, actorRole identity.Role) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, "Order", o.ID),
		From:            from,
		To:              to,
		ActorID:         actorID,
		ActorRole:       actorRole,
	}
}

// OrderCancelledEvent is raised when an order is cancelled and stock restored
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	From      OrderStatus   `json:"from"`
	ActorID   uuid.UUID     `json:"actor_id"`
	ActorRole identity.Role `json:"actor_role"`
}

// NewOrderCancelledEvent creates a new order cancelled event
func NewOrderCancelledEvent(o *Order, from OrderStatus, actorID uuid.UUID, actorRole identity.Role) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, "Order", o.ID),
		From:            from,
		ActorID:         actorID,
		ActorRole:       actorRole,
	}
}
