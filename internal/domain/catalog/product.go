// Package catalog contains the product aggregate, its categories and units.
package catalog

import (
	"strings"

	"github.com/farmtohome/backend/internal/domain/shared"
	"github.com/farmtohome/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Category classifies produce listed on the marketplace
type Category string

const (
	CategoryVegetables Category = "vegetables"
	CategoryFruits     Category = "fruits"
	CategoryGrains     Category = "grains"
	CategoryDairy      Category = "dairy"
	CategoryPoultry    Category = "poultry"
	CategoryOther      Category = "other"
)

// IsValid checks if the category is one of the defined categories
func (c Category) IsValid() bool {
	switch c {
	case CategoryVegetables, CategoryFruits, CategoryGrains, CategoryDairy, CategoryPoultry, CategoryOther:
		return true
	}
	return false
}

// Unit is the unit of sale for a product
type Unit string

const (
	UnitKg     Unit = "kg"
	UnitGram   Unit = "gram"
	UnitLitre  Unit = "litre"
	UnitMl     Unit = "ml"
	UnitPiece  Unit = "piece"
	UnitDozen  Unit = "dozen"
	UnitBundle Unit = "bundle"
)

// IsValid checks if the unit is one of the defined units
func (u Unit) IsValid() bool {
	switch u {
	case UnitKg, UnitGram, UnitLitre, UnitMl, UnitPiece, UnitDozen, UnitBundle:
		return true
	}
	return false
}

// Product is a farmer's listing. Stock is a whole number of Unit;
// the authoritative decrement happens in the database during checkout.
type Product struct {
	shared.BaseAggregateRoot
	FarmerID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	Name        string            `gorm:"size:200;not null"`
	Description string            `gorm:"type:text"`
	Category    Category          `gorm:"size:30;not null;index"`
	Unit        Unit              `gorm:"size:20;not null"`
	Price       valueobject.Money `gorm:"type:decimal(12,2);not null"`
	Stock       int               `gorm:"not null;default:0"`
	IsAvailable bool              `gorm:"not null;default:true"`
	IsApproved  bool              `gorm:"not null;default:false"`
	ImageKey    string            `gorm:"size:512"`
}

// TableName returns the database table name
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new unapproved product listing for a farmer
func NewProduct(farmerID uuid.UUID, name, description string, category Category, unit Unit, price valueobject.Money, stock int) (*Product, error) {
	name = strings.TrimSpace(name)

	if farmerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Farmer ID is required")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Product name is required")
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown product category")
	}
	if !unit.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown unit of sale")
	}
	if !price.IsPositive() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Price must be greater than zero")
	}
	if stock < 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Stock cannot be negative")
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		FarmerID:          farmerID,
		Name:              name,
		Description:       strings.TrimSpace(description),
		Category:          category,
		Unit:              unit,
		Price:             price,
		Stock:             stock,
		IsAvailable:       true,
		IsApproved:        false,
	}
	product.AddDomainEvent(NewProductCreatedEvent(product))
	return product, nil
}

// UpdateDetails changes the listing's descriptive fields
func (p *Product) UpdateDetails(name, description string, category Category, unit Unit) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_INPUT", "Product name is required")
	}
	if !category.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "Unknown product category")
	}
	if !unit.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "Unknown unit of sale")
	}

	p.Name = name
	p.Description = strings.TrimSpace(description)
	p.Category = category
	p.Unit = unit
	return nil
}

// ChangePrice sets a new unit price. Existing orders keep their snapshots.
func (p *Product) ChangePrice(price valueobject.Money) error {
	if !price.IsPositive() {
		return shared.NewDomainError("INVALID_INPUT", "Price must be greater than zero")
	}
	p.Price = price
	return nil
}

// SetStock replaces the stock level, e.g. after a new harvest
func (p *Product) SetStock(stock int) error {
	if stock < 0 {
		return shared.NewDomainError("INVALID_INPUT", "Stock cannot be negative")
	}
	p.Stock = stock
	return nil
}

// SetAvailability toggles the farmer-controlled visibility flag
func (p *Product) SetAvailability(available bool) {
	p.IsAvailable = available
}

// Approve marks the listing as admin-approved and purchasable
func (p *Product) Approve() {
	if p.IsApproved {
		return
	}
	p.IsApproved = true
	p.AddDomainEvent(NewProductApprovedEvent(p))
}

// Revoke withdraws admin approval
func (p *Product) Revoke() {
	p.IsApproved = false
}

// AttachImage stores the object storage key of the product image
func (p *Product) AttachImage(key string) {
	p.ImageKey = strings.TrimSpace(key)
}

// CanBePurchased reports whether the listing may appear in a new order
func (p *Product) CanBePurchased() bool {
	return p.IsAvailable && p.IsApproved
}

// HasStock reports whether the requested quantity is in stock right now.
// This is a pre-check only; checkout re-verifies atomically in the database.
func (p *Product) HasStock(quantity int) bool {
	return quantity > 0 && p.Stock >= quantity
}
