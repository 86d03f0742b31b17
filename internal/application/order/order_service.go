package order

import (
	"context"
	"time"

	"github.com/farmtohome/backend/internal/domain/identity"
	"github.com/farmtohome/backend/internal/domain/order"
	"github.com/farmtohome/backend/internal/domain/shared"
	"github.com/farmtohome/backend/internal/domain/shared/valueobject"
	"github.com/farmtohome/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// Actor is the authenticated user performing an order operation
type Actor struct {
	ID   uuid.UUID
	Role identity.Role
}

// OrderService handles reads and lifecycle transitions on placed orders
type OrderService struct {
	orders         order.OrderRepository
	checkout       order.CheckoutRepository
	returnWindow   time.Duration
	eventPublisher shared.EventPublisher
	now            func() time.Time
}

// NewOrderService creates a new OrderService
func NewOrderService(orders order.OrderRepository, checkout order.CheckoutRepository, returnWindow time.Duration) *OrderService {
	return &OrderService{
		orders:       orders,
		checkout:     checkout,
		returnWindow: returnWindow,
		now:          time.Now,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// GetByID returns an order the actor is allowed to see: the owning
// customer, a farmer with a line in it, or an admin.
func (s *OrderService) GetByID(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.visibleOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	return ToOrderResponse(o), nil
}

func (s *OrderService) visibleOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (*order.Order, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case identity.RoleAdmin:
		return o, nil
	case identity.RoleCustomer:
		if o.IsOwnedBy(actor.ID) {
			return o, nil
		}
	case identity.RoleFarmer:
		if o.ContainsFarmer(actor.ID) {
			return o, nil
		}
	}
	return nil, shared.ErrNotFound
}

// ListForCustomer returns the customer's own orders
func (s *OrderService) ListForCustomer(ctx context.Context, customerID uuid.UUID, filter OrderListFilter) ([]OrderResponse, int64, error) {
	orders, total, err := s.orders.FindByCustomer(ctx, customerID, s.buildFilter(filter))
	if err != nil {
		return nil, 0, err
	}
	return ToOrderResponses(orders), total, nil
}

// ListForFarmer returns orders containing the farmer's products
func (s *OrderService) ListForFarmer(ctx context.Context, farmerID uuid.UUID, filter OrderListFilter) ([]OrderResponse, int64, error) {
	orders, total, err := s.orders.FindByFarmer(ctx, farmerID, s.buildFilter(filter))
	if err != nil {
		return nil, 0, err
	}
	return ToOrderResponses(orders), total, nil
}

// ListAll returns every order for the admin back office
func (s *OrderService) ListAll(ctx context.Context, filter OrderListFilter) ([]OrderResponse, int64, error) {
	orders, total, err := s.orders.FindAll(ctx, s.buildFilter(filter))
	if err != nil {
		return nil, 0, err
	}
	return ToOrderResponses(orders), total, nil
}

func (s *OrderService) buildFilter(filter OrderListFilter) shared.Filter {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	return domainFilter
}

// UpdateStatus applies a fulfilment transition (accept, reject, processing,
// shipped, delivered). Farmers may only act on orders containing their
// products; the state machine enforces role and transition rules.
func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, orderID uuid.UUID, req StatusUpdateRequest) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actor.Role == identity.RoleFarmer && !o.ContainsFarmer(actor.ID) {
		return nil, shared.ErrNotFound
	}

	switch order.OrderStatus(req.Status) {
	case order.StatusAccepted:
		err = o.Accept(actor.ID, actor.Role, req.Note)
	case order.StatusRejected:
		err = o.Reject(actor.ID, actor.Role, req.Note)
	case order.StatusProcessing:
		err = o.StartProcessing(actor.ID, actor.Role, req.Note)
	case order.StatusShipped:
		err = o.Ship(actor.ID, actor.Role, req.Note)
	case order.StatusDelivered:
		err = o.MarkDelivered(actor.ID, actor.Role, req.Note, s.now())
	default:
		err = shared.NewDomainError("VALIDATION_ERROR", "Unknown status transition")
	}
	if err != nil {
		return nil, err
	}

	if err := s.orders.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, o)
	return ToOrderResponse(o), nil
}

// Cancel cancels a pending or accepted order and restores stock in the
// same transaction as the status change.
func (s *OrderService) Cancel(ctx context.Context, actor Actor, orderID uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "cancel")
	defer span.End()

	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actor.Role == identity.RoleCustomer && !o.IsOwnedBy(actor.ID) {
		return nil, shared.ErrNotFound
	}

	if err := o.Cancel(actor.ID, actor.Role, req.Reason); err != nil {
		return nil, err
	}

	if err := s.checkout.CancelOrder(ctx, o); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.publishEvents(ctx, o)
	return ToOrderResponse(o), nil
}

// RequestReturn opens a return for a delivered order within the window
func (s *OrderService) RequestReturn(ctx context.Context, actor Actor, orderID uuid.UUID, req ReturnRequestInput) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actor.Role == identity.RoleCustomer && !o.IsOwnedBy(actor.ID) {
		return nil, shared.ErrNotFound
	}

	if err := o.RequestReturn(actor.ID, actor.Role, req.Reason, s.now(), s.returnWindow); err != nil {
		return nil, err
	}
	if err := s.orders.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, o)
	return ToOrderResponse(o), nil
}

// ResolveReturn closes a return request with a refund decision
func (s *OrderService) ResolveReturn(ctx context.Context, actor Actor, orderID uuid.UUID, req ResolveReturnRequest) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	refund, err := valueobject.NewMoney(req.RefundAmount, valueobject.DefaultCurrency)
	if err != nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Invalid refund amount")
	}

	var bankDetails *order.BankDetails
	if order.RefundMethod(req.RefundMethod) == order.RefundBankTransfer {
		bankDetails = &order.BankDetails{
			AccountHolder: req.AccountHolder,
			AccountNumber: req.AccountNumber,
			IFSC:          req.IFSC,
		}
	}

	if err := o.Resolve(actor.ID, actor.Role, req.Note, refund, order.RefundMethod(req.RefundMethod), bankDetails); err != nil {
		return nil, err
	}
	if err := s.orders.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, o)
	return ToOrderResponse(o), nil
}

func (s *OrderService) publishEvents(ctx context.Context, o *order.Order) {
	if s.eventPublisher == nil {
		o.ClearDomainEvents()
		return
	}
	for _, event := range o.GetDomainEvents() {
		_ = s.eventPublisher.Publish(ctx, event)
	}
	o.ClearDomainEvents()
}
