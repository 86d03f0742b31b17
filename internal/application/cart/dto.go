package cart

import (
	"time"

	"github.com/farmtohome/backend/internal/domain/cart"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddItemRequest represents a request to add a product to the cart
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// UpdateItemRequest represents a request to change a line's quantity.
// Zero removes the line.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

// CartItemResponse represents one cart line in API responses
type CartItemResponse struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	PriceDisplay string          `json:"price_display"`
	Quantity     int             `json:"quantity"`
	LineTotal    decimal.Decimal `json:"line_total"`
	AddedAt      time.Time       `json:"added_at"`
}

// CartResponse represents the cart in API responses. Prices shown are
// add-time snapshots; checkout recomputes from live prices.
type CartResponse struct {
	ID              uuid.UUID          `json:"id"`
	CustomerID      uuid.UUID          `json:"customer_id"`
	Items           []CartItemResponse `json:"items"`
	TotalQuantity   int                `json:"total_quantity"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	SubtotalDisplay string             `json:"subtotal_display"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// ToCartResponse converts a cart aggregate to its API representation
func ToCartResponse(c *cart.Cart) (*CartResponse, error) {
	items := make([]CartItemResponse, len(c.Items))
	for i := range c.Items {
		item := &c.Items[i]
		items[i] = CartItemResponse{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			UnitPrice:    item.UnitPrice.Amount(),
			PriceDisplay: item.UnitPrice.Display(),
			Quantity:     item.Quantity,
			LineTotal:    item.UnitPrice.Amount().Mul(decimal.NewFromInt(int64(item.Quantity))),
			AddedAt:      item.CreatedAt,
		}
	}

	subtotal, err := c.DisplaySubtotal()
	if err != nil {
		return nil, err
	}

	return &CartResponse{
		ID:              c.ID,
		CustomerID:      c.CustomerID,
		Items:           items,
		TotalQuantity:   c.TotalQuantity(),
		Subtotal:        subtotal.Amount(),
		SubtotalDisplay: subtotal.Display(),
		UpdatedAt:       c.UpdatedAt,
	}, nil
}
