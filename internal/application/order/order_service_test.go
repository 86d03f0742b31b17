package order

import (
	"context"
	"testing"
	"time"

	"github.com/farmtohome/backend/internal/domain/identity"
	"github.com/farmtohome/backend/internal/domain/order"
	"github.com/farmtohome/backend/internal/domain/shared"
	"github.com/farmtohome/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderRepository is a mock implementation of order.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]order.Order, int64, error) {
	args := m.Called(ctx, customerID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]order.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) FindByFarmer(ctx context.Context, farmerID uuid.UUID, filter shared.Filter) ([]order.Order, int64, error) {
	args := m.Called(ctx, farmerID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]order.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]order.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func testOrder(t *testing.T, customerID uuid.UUID) *order.Order {
	t.Helper()
	address, err := valueobject.NewDeliveryAddress(
		"Asha Patel", "+919876543210", "12 MG Road", "Pune", "Maharashtra", "411001", nil)
	require.NoError(t, err)

	items := []order.OrderItem{{
		ProductID:   uuid.New(),
		FarmerID:    uuid.New(),
		ProductName: "Tomatoes",
		UnitPrice:   valueobject.RupeesFromString("100"),
		Quantity:    2,
		Unit:        "kg",
		Subtotal:    valueobject.RupeesFromString("200"),
	}}

	o, err := order.NewOrder(customerID, items, address, order.PaymentCOD,
		valueobject.RupeesFromString("200"),
		valueobject.RupeesFromString("50"),
		valueobject.RupeesFromString("10"),
		valueobject.RupeesFromString("260"))
	require.NoError(t, err)
	o.ClearDomainEvents()
	return o
}

func newTestOrderService(orders order.OrderRepository, checkout order.CheckoutRepository) *OrderService {
	return NewOrderService(orders, checkout, 7*24*time.Hour)
}

func TestOrderService_GetByID_Scoping(t *testing.T) {
	customerID := uuid.New()
	o := testOrder(t, customerID)
	farmerID := o.Items[0].FarmerID

	orders := new(MockOrderRepository)
	orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)

	svc := newTestOrderService(orders, new(MockCheckoutRepository))
	ctx := context.Background()

	_, err := svc.GetByID(ctx, Actor{ID: customerID, Role: identity.RoleCustomer}, o.ID)
	assert.NoError(t, err)

	_, err = svc.GetByID(ctx, Actor{ID: farmerID, Role: identity.RoleFarmer}, o.ID)
	assert.NoError(t, err)

	_, err = svc.GetByID(ctx, Actor{ID: uuid.New(), Role: identity.RoleAdmin}, o.ID)
	assert.NoError(t, err)

	// Another customer and an unrelated farmer see a 404, not a 403
	_, err = svc.GetByID(ctx, Actor{ID: uuid.New(), Role: identity.RoleCustomer}, o.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.GetByID(ctx, Actor{ID: uuid.New(), Role: identity.RoleFarmer}, o.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestOrderService_UpdateStatus_FarmerAccepts(t *testing.T) {
	o := testOrder(t, uuid.New())
	farmerID := o.Items[0].FarmerID

	orders := new(MockOrderRepository)
	orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	orders.On("SaveWithLock", mock.Anything, o).Return(nil)

	svc := newTestOrderService(orders, new(MockCheckoutRepository))
	resp, err := svc.UpdateStatus(context.Background(),
		Actor{ID: farmerID, Role: identity.RoleFarmer}, o.ID,
		StatusUpdateRequest{Status: "accepted", Note: "confirmed"})
	require.NoError(t, err)

	assert.Equal(t, "accepted", resp.Status)
	require.Len(t, resp.StatusHistory, 2)
	assert.Equal(t, "accepted", resp.StatusHistory[1].Status)
}

func TestOrderService_UpdateStatus_UnrelatedFarmer(t *testing.T) {
	o := testOrder(t, uuid.New())

	orders := new(MockOrderRepository)
	orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)

	svc := newTestOrderService(orders, new(MockCheckoutRepository))
	_, err := svc.UpdateStatus(context.Background(),
		Actor{ID: uuid.New(), Role: identity.RoleFarmer}, o.ID,
		StatusUpdateRequest{Status: "accepted"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestOrderService_UpdateStatus_DeliveredSetsTimestamp(t *testing.T) {
	o := testOrder(t, uuid.New())
	farmerID := o.Items[0].FarmerID
	deliveredAt := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	orders := new(MockOrderRepository)
	orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	orders.On("SaveWithLock", mock.Anything, o).Return(nil)

	svc := newTestOrderService(orders, new(MockCheckoutRepository))
	svc.now = func() time.Time { return deliveredAt }

	actor := Actor{ID: farmerID, Role: identity.RoleFarmer}
	ctx := context.Background()
	_, err := svc.UpdateStatus(ctx, actor, o.ID, StatusUpdateRequest{Status: "accepted"})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, actor, o.ID, StatusUpdateRequest{Status: "processing"})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, actor, o.ID, StatusUpdateRequest{Status: "shipped"})
	require.NoError(t, err)
	resp, err := svc.UpdateStatus(ctx, actor, o.ID, StatusUpdateRequest{Status: "delivered"})
	require.NoError(t, err)

	require.NotNil(t, resp.DeliveredAt)
	assert.Equal(t, deliveredAt, *resp.DeliveredAt)
}

func TestOrderService_Cancel_RestoresStockAtomically(t *testing.T) {
	customerID := uuid.New()
	o := testOrder(t, customerID)

	orders := new(MockOrderRepository)
	orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)

	checkout := new(MockCheckoutRepository)
	checkout.On("CancelOrder", mock.Anything, o).Return(nil)

	svc := newTestOrderService(orders, checkout)
	resp, err := svc.Cancel(context.Background(),
		Actor{ID: customerID, Role: identity.RoleCustomer}, o.ID,
		CancelOrderRequest{Reason: "changed my mind"})
	require.NoError(t, err)

	assert.Equal(t, "cancelled", resp.Status)
	checkout.AssertExpectations(t)
	orders.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestOrderService_Cancel_OtherCustomersOrder(t *testing.T) {
	o := testOrder(t, uuid.New())

	orders := new(MockOrderRepository)
	orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)

	svc := newTestOrderService(orders, new(MockCheckoutRepository))
	_, err := svc.Cancel(context.Background(),
		Actor{ID: uuid.New(), Role: identity.RoleCustomer}, o.ID, CancelOrderRequest{})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestOrderService_Cancel_AfterProcessing(t *testing.T) {
	customerID := uuid.New()
	o := testOrder(t, customerID)
	farmerID := o.Items[0].FarmerID
	require.NoError(t, o.Accept(farmerID, identity.RoleFarmer, ""))
	require.NoError(t, o.StartProcessing(farmerID, identity.RoleFarmer, ""))
	o.ClearDomainEvents()

	orders := new(MockOrderRepository)
	orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)

	checkout := new(MockCheckoutRepository)

	svc := newTestOrderService(orders, checkout)
	_, err := svc.Cancel(context.Background(),
		Actor{ID: customerID, Role: identity.RoleCustomer}, o.ID, CancelOrderRequest{})

	assert.ErrorIs(t, err, shared.ErrCannotCancel)
	checkout.AssertNotCalled(t, "CancelOrder", mock.Anything, mock.Anything)
}

func deliveredTestOrder(t *testing.T, customerID uuid.UUID, deliveredAt time.Time) *order.Order {
	t.Helper()
	o := testOrder(t, customerID)
	farmerID := o.Items[0].FarmerID
	require.NoError(t, o.Accept(farmerID, identity.RoleFarmer, ""))
	require.NoError(t, o.StartProcessing(farmerID, identity.RoleFarmer, ""))
	require.NoError(t, o.Ship(farmerID, identity.RoleFarmer, ""))
	require.NoError(t, o.MarkDelivered(farmerID, identity.RoleFarmer, "", deliveredAt))
	o.ClearDomainEvents()
	return o
}

func TestOrderService_RequestReturn_WindowBoundary(t *testing.T) {
	customerID := uuid.New()
	deliveredAt := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	boundary := deliveredAt.Add(7 * 24 * time.Hour)

	// Exactly at the boundary: accepted
	o := deliveredTestOrder(t, customerID, deliveredAt)
	orders := new(MockOrderRepository)
	orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	orders.On("SaveWithLock", mock.Anything, o).Return(nil)

	svc := newTestOrderService(orders, new(MockCheckoutRepository))
	svc.now = func() time.Time { return boundary }

	resp, err := svc.RequestReturn(context.Background(),
		Actor{ID: customerID, Role: identity.RoleCustomer}, o.ID,
		ReturnRequestInput{Reason: "damaged"})
	require.NoError(t, err)
	assert.Equal(t, "return_requested", resp.Status)

	// One second past the boundary: rejected
	o2 := deliveredTestOrder(t, customerID, deliveredAt)
	orders2 := new(MockOrderRepository)
	orders2.On("FindByID", mock.Anything, o2.ID).Return(o2, nil)

	svc2 := newTestOrderService(orders2, new(MockCheckoutRepository))
	svc2.now = func() time.Time { return boundary.Add(time.Second) }

	_, err = svc2.RequestReturn(context.Background(),
		Actor{ID: customerID, Role: identity.RoleCustomer}, o2.ID,
		ReturnRequestInput{Reason: "damaged"})
	assert.ErrorIs(t, err, shared.ErrReturnWindowExpired)
}

func TestOrderService_ResolveReturn(t *testing.T) {
	customerID := uuid.New()
	o := deliveredTestOrder(t, customerID, time.Now())
	require.NoError(t, o.RequestReturn(customerID, identity.RoleCustomer, "damaged", time.Now(), 7*24*time.Hour))
	o.ClearDomainEvents()

	orders := new(MockOrderRepository)
	orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	orders.On("SaveWithLock", mock.Anything, o).Return(nil)

	svc := newTestOrderService(orders, new(MockCheckoutRepository))
	resp, err := svc.ResolveReturn(context.Background(),
		Actor{ID: uuid.New(), Role: identity.RoleAdmin}, o.ID,
		ResolveReturnRequest{
			RefundAmount:  decimal.RequireFromString("260"),
			RefundMethod:  "bank_transfer",
			AccountHolder: "Asha Patel",
			AccountNumber: "1234567890",
			IFSC:          "HDFC0000123",
		})
	require.NoError(t, err)

	assert.Equal(t, "resolved", resp.Status)
	require.NotNil(t, resp.RefundAmount)
	assert.True(t, resp.RefundAmount.Equal(decimal.RequireFromString("260")))
}

func TestOrderService_ResolveReturn_BankTransferNeedsDetails(t *testing.T) {
	customerID := uuid.New()
	o := deliveredTestOrder(t, customerID, time.Now())
	require.NoError(t, o.RequestReturn(customerID, identity.RoleCustomer, "", time.Now(), 7*24*time.Hour))
	o.ClearDomainEvents()

	orders := new(MockOrderRepository)
	orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)

	svc := newTestOrderService(orders, new(MockCheckoutRepository))
	_, err := svc.ResolveReturn(context.Background(),
		Actor{ID: uuid.New(), Role: identity.RoleAdmin}, o.ID,
		ResolveReturnRequest{
			RefundAmount: decimal.RequireFromString("260"),
			RefundMethod: "bank_transfer",
		})
	assert.Error(t, err)
}

func TestOrderService_ListForCustomer(t *testing.T) {
	customerID := uuid.New()
	o := testOrder(t, customerID)

	orders := new(MockOrderRepository)
	orders.On("FindByCustomer", mock.Anything, customerID, mock.Anything).
		Return([]order.Order{*o}, int64(1), nil)

	svc := newTestOrderService(orders, new(MockCheckoutRepository))
	list, total, err := svc.ListForCustomer(context.Background(), customerID, OrderListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, o.ID, list[0].ID)
}
