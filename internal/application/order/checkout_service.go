// Package order contains the checkout transaction and order lifecycle services.
package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/farmtohome/backend/internal/domain/cart"
	"github.com/farmtohome/backend/internal/domain/catalog"
	"github.com/farmtohome/backend/internal/domain/order"
	"github.com/farmtohome/backend/internal/domain/shared"
	"github.com/farmtohome/backend/internal/domain/shared/valueobject"
	"github.com/farmtohome/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricingPolicy holds the order-level charges applied at checkout
type PricingPolicy struct {
	DeliveryCharge valueobject.Money
	TaxRatePercent decimal.Decimal
}

// CheckoutService converts a cart into an order. All monetary figures are
// computed from live product prices at commit time, not cart snapshots.
type CheckoutService struct {
	carts          cart.CartRepository
	products       catalog.ProductRepository
	checkout       order.CheckoutRepository
	pricing        PricingPolicy
	eventPublisher shared.EventPublisher
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(
	carts cart.CartRepository,
	products catalog.ProductRepository,
	checkout order.CheckoutRepository,
	pricing PricingPolicy,
) *CheckoutService {
	return &CheckoutService{
		carts:    carts,
		products: products,
		checkout: checkout,
		pricing:  pricing,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *CheckoutService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// PlaceOrder commits the customer's cart into a pending order. Stock is
// decremented conditionally inside the persistence transaction, so the
// pre-checks here give friendly errors while the database guarantees
// no overselling under concurrent checkouts.
func (s *CheckoutService) PlaceOrder(ctx context.Context, customerID uuid.UUID, req PlaceOrderRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "place_order")
	defer span.End()

	c, err := s.carts.FindByCustomer(ctx, customerID)
	if err != nil {
		// A customer without a cart has nothing to order; anything else
		// is an infrastructure failure and surfaces as-is.
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == "NOT_FOUND" {
			return nil, shared.ErrCartEmpty
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	if c.IsEmpty() {
		return nil, shared.ErrCartEmpty
	}

	var geo *valueobject.GeoPoint
	if req.Address.Latitude != nil && req.Address.Longitude != nil {
		geo = &valueobject.GeoPoint{Latitude: *req.Address.Latitude, Longitude: *req.Address.Longitude}
	}
	address, err := valueobject.NewDeliveryAddress(
		req.Address.FullName, req.Address.Phone, req.Address.Street,
		req.Address.City, req.Address.State, req.Address.Pincode, geo)
	if err != nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", err.Error())
	}

	products, err := s.liveProducts(ctx, c)
	if err != nil {
		return nil, err
	}

	items, decrements, subtotal, err := s.buildLines(c, products)
	if err != nil {
		return nil, err
	}

	tax := subtotal.Percentage(s.pricing.TaxRatePercent).Round(2)
	total := subtotal.MustAdd(s.pricing.DeliveryCharge).MustAdd(tax)

	o, err := order.NewOrder(customerID, items, address, order.PaymentMethod(req.PaymentMethod),
		subtotal, s.pricing.DeliveryCharge, tax, total)
	if err != nil {
		return nil, err
	}

	if err := s.checkout.PlaceOrder(ctx, o, c, decrements); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.publishEvents(ctx, o)

	return ToOrderResponse(o), nil
}

// liveProducts resolves every cart line to its current product record
func (s *CheckoutService) liveProducts(ctx context.Context, c *cart.Cart) (map[uuid.UUID]*catalog.Product, error) {
	ids := make([]uuid.UUID, len(c.Items))
	for i := range c.Items {
		ids[i] = c.Items[i].ProductID
	}

	records, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	products := make(map[uuid.UUID]*catalog.Product, len(records))
	for i := range records {
		products[records[i].ID] = &records[i]
	}
	return products, nil
}

// buildLines validates every cart line against live product state and
// produces the order snapshots, stock decrements and subtotal.
func (s *CheckoutService) buildLines(c *cart.Cart, products map[uuid.UUID]*catalog.Product) ([]order.OrderItem, []order.StockDecrement, valueobject.Money, error) {
	items := make([]order.OrderItem, 0, len(c.Items))
	decrements := make([]order.StockDecrement, 0, len(c.Items))
	subtotal := valueobject.ZeroMoney(valueobject.DefaultCurrency)

	for i := range c.Items {
		line := &c.Items[i]

		product, found := products[line.ProductID]
		if !found {
			return nil, nil, valueobject.Money{}, shared.NewDomainError("PRODUCT_UNAVAILABLE",
				fmt.Sprintf("%s is no longer listed", line.ProductName))
		}
		if !product.CanBePurchased() {
			return nil, nil, valueobject.Money{}, shared.NewDomainError("PRODUCT_UNAVAILABLE",
				fmt.Sprintf("%s is not available for purchase", product.Name))
		}
		if !product.HasStock(line.Quantity) {
			return nil, nil, valueobject.Money{}, shared.NewDomainError("INSUFFICIENT_STOCK",
				fmt.Sprintf("Only %d %s of %s in stock", product.Stock, product.Unit, product.Name))
		}

		lineSubtotal := product.Price.MultiplyByInt(int64(line.Quantity))
		sum, err := subtotal.Add(lineSubtotal)
		if err != nil {
			return nil, nil, valueobject.Money{}, err
		}
		subtotal = sum

		items = append(items, order.OrderItem{
			ProductID:   product.ID,
			FarmerID:    product.FarmerID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    line.Quantity,
			Unit:        string(product.Unit),
			Subtotal:    lineSubtotal,
		})
		decrements = append(decrements, order.StockDecrement{
			ProductID: product.ID,
			Quantity:  line.Quantity,
		})
	}

	return items, decrements, subtotal, nil
}

func (s *CheckoutService) publishEvents(ctx context.Context, o *order.Order) {
	if s.eventPublisher == nil {
		o.ClearDomainEvents()
		return
	}
	for _, event := range o.GetDomainEvents() {
		_ = s.eventPublisher.Publish(ctx, event)
	}
	o.ClearDomainEvents()
}
