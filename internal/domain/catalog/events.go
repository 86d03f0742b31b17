package catalog

import (
	"github.com/farmtohome/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Event types for the catalog context
const (
	EventTypeProductCreated  = "catalog.product.created"
	EventTypeProductApproved = "catalog.product.approved"
)

// ProductCreatedEvent is raised when a farmer lists a new product
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	FarmerID uuid.UUID `json:"farmer_id"`
	Name     string    `json:"name"`
	Category Category  `json:"category"`
}

// NewProductCreatedEvent creates a new product created event
func NewProductCreatedEvent(p *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, "Product", p.ID),
		FarmerID:        p.FarmerID,
		Name:            p.Name,
		Category:        p.Category,
	}
}

// ProductApprovedEvent is raised when an admin approves a listing
type ProductApprovedEvent struct {
	shared.BaseDomainEvent
	FarmerID uuid.UUID `json:"farmer_id"`
}

// NewProductApprovedEvent creates a new product approved event
func NewProductApprovedEvent(p *Product) *ProductApprovedEvent {
	return &ProductApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductApproved, "Product", p.ID),
		FarmerID:        p.FarmerID,
	}
}
