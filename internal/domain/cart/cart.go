// Package cart contains the shopping cart aggregate.
package cart

import (
	"github.com/farmtohome/backend/internal/domain/shared"
	"github.com/farmtohome/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Cart holds a customer's pending selections. Each customer has at most
// one cart; it is created lazily and emptied rather than deleted.
type Cart struct {
	shared.BaseAggregateRoot
	CustomerID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	Items      []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}

// CartItem is one product line in a cart. UnitPrice is a display snapshot
// taken when the line was added; checkout always re-reads live prices.
type CartItem struct {
	shared.BaseEntity
	CartID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID         `gorm:"type:uuid;not null;index"`
	ProductName string            `gorm:"size:200;not null"`
	UnitPrice   valueobject.Money `gorm:"type:decimal(12,2);not null"`
	Quantity    int               `gorm:"not null"`
}

// TableName returns the database table name
func (Cart) TableName() string {
	return "carts"
}

// TableName returns the database table name
func (CartItem) TableName() string {
	return "cart_items"
}

// NewCart creates an empty cart for a customer
func NewCart(customerID uuid.UUID) (*Cart, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Customer ID is required")
	}
	return &Cart{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		Items:             make([]CartItem, 0),
	}, nil
}

// AddItem adds a product line, merging quantities when the product is
// already in the cart. The price snapshot is refreshed on merge.
func (c *Cart) AddItem(productID uuid.UUID, productName string, unitPrice valueobject.Money, quantity int) error {
	if productID == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "Product ID is required")
	}
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "Quantity must be at least 1")
	}

	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			c.Items[i].ProductName = productName
			c.Items[i].UnitPrice = unitPrice
			return nil
		}
	}

	c.Items = append(c.Items, CartItem{
		BaseEntity:  shared.NewBaseEntity(),
		CartID:      c.ID,
		ProductID:   productID,
		ProductName: productName,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
	})
	return nil
}

// UpdateItemQuantity sets the quantity of an existing line. A quantity of
// zero or less removes the line.
func (c *Cart) UpdateItemQuantity(productID uuid.UUID, quantity int) error {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			if quantity <= 0 {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
				return nil
			}
			c.Items[i].Quantity = quantity
			return nil
		}
	}
	return shared.NewDomainError("NOT_FOUND", "Product is not in the cart")
}

// RemoveItem removes a product line from the cart
func (c *Cart) RemoveItem(productID uuid.UUID) error {
	return c.UpdateItemQuantity(productID, 0)
}

// Clear empties the cart, typically after a successful checkout
func (c *Cart) Clear() {
	c.Items = c.Items[:0]
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// FindItem returns the line for a product, or nil if absent
func (c *Cart) FindItem(productID uuid.UUID) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// TotalQuantity returns the sum of all line quantities
func (c *Cart) TotalQuantity() int {
	total := 0
	for i := range c.Items {
		total += c.Items[i].Quantity
	}
	return total
}

// DisplaySubtotal sums the snapshot prices for cart display. Checkout
// recomputes the real subtotal from live product prices.
func (c *Cart) DisplaySubtotal() (valueobject.Money, error) {
	subtotal := valueobject.ZeroMoney(valueobject.DefaultCurrency)
	for i := range c.Items {
		line := c.Items[i].UnitPrice.MultiplyByInt(int64(c.Items[i].Quantity))
		sum, err := subtotal.Add(line)
		if err != nil {
			return valueobject.Money{}, err
		}
		subtotal = sum
	}
	return subtotal, nil
}
