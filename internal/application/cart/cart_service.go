// Package cart contains the shopping cart application service.
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/farmtohome/backend/internal/domain/cart"
	"github.com/farmtohome/backend/internal/domain/catalog"
	"github.com/farmtohome/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CartService handles cart mutations. Add is intentionally loose; the
// authoritative availability and stock checks happen at checkout.
type CartService struct {
	carts    cart.CartRepository
	products catalog.ProductRepository
}

// NewCartService creates a new CartService
func NewCartService(carts cart.CartRepository, products catalog.ProductRepository) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
	}
}

// GetCart returns the customer's cart, creating an empty one on first use
func (s *CartService) GetCart(ctx context.Context, customerID uuid.UUID) (*CartResponse, error) {
	c, err := s.loadOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return ToCartResponse(c)
}

// AddItem adds a product to the cart with an add-time price snapshot
func (s *CartService) AddItem(ctx context.Context, customerID uuid.UUID, req AddItemRequest) (*CartResponse, error) {
	product, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.CanBePurchased() {
		return nil, shared.NewDomainError("PRODUCT_UNAVAILABLE",
			fmt.Sprintf("%s is not available for purchase", product.Name))
	}

	c, err := s.loadOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if err := c.AddItem(product.ID, product.Name, product.Price, req.Quantity); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return ToCartResponse(c)
}

// UpdateItemQuantity changes a line's quantity, removing it at zero.
// The new quantity is checked against live stock.
func (s *CartService) UpdateItemQuantity(ctx context.Context, customerID, productID uuid.UUID, req UpdateItemRequest) (*CartResponse, error) {
	c, err := s.carts.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if req.Quantity > 0 {
		product, err := s.products.FindByID(ctx, productID)
		if err != nil {
			return nil, err
		}
		if !product.HasStock(req.Quantity) {
			return nil, shared.NewDomainError("INSUFFICIENT_STOCK",
				fmt.Sprintf("Only %d %s of %s in stock", product.Stock, product.Unit, product.Name))
		}
	}

	if err := c.UpdateItemQuantity(productID, req.Quantity); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return ToCartResponse(c)
}

// RemoveItem removes a product line from the cart
func (s *CartService) RemoveItem(ctx context.Context, customerID, productID uuid.UUID) (*CartResponse, error) {
	c, err := s.carts.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := c.RemoveItem(productID); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return ToCartResponse(c)
}

// Clear empties the cart
func (s *CartService) Clear(ctx context.Context, customerID uuid.UUID) (*CartResponse, error) {
	c, err := s.carts.FindByCustomer(ctx, customerID)
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == "NOT_FOUND" {
			// Nothing to clear; return an empty cart view
			empty, newErr := cart.NewCart(customerID)
			if newErr != nil {
				return nil, newErr
			}
			return ToCartResponse(empty)
		}
		return nil, err
	}
	c.Clear()
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return ToCartResponse(c)
}

func (s *CartService) loadOrCreate(ctx context.Context, customerID uuid.UUID) (*cart.Cart, error) {
	c, err := s.carts.FindByCustomer(ctx, customerID)
	if err == nil {
		return c, nil
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) && domainErr.Code == "NOT_FOUND" {
		return cart.NewCart(customerID)
	}
	return nil, err
}
