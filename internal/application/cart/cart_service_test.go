package cart

import (
	"context"
	"testing"

	"github.com/farmtohome/backend/internal/domain/cart"
	"github.com/farmtohome/backend/internal/domain/catalog"
	"github.com/farmtohome/backend/internal/domain/shared"
	"github.com/farmtohome/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCartRepository is a mock implementation of cart.CartRepository
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) (*cart.Cart, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByFarmer(ctx context.Context, farmerID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, farmerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) SaveWithLock(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func approvedProduct(t *testing.T, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(uuid.New(), "Tomatoes", "",
		catalog.CategoryVegetables, catalog.UnitKg, valueobject.RupeesFromString("40"), stock)
	require.NoError(t, err)
	p.Approve()
	p.ClearDomainEvents()
	return p
}

func TestCartService_GetCart_CreatesLazily(t *testing.T) {
	customerID := uuid.New()
	carts := new(MockCartRepository)
	carts.On("FindByCustomer", mock.Anything, customerID).Return(nil, shared.ErrNotFound)

	svc := NewCartService(carts, new(MockProductRepository))
	resp, err := svc.GetCart(context.Background(), customerID)
	require.NoError(t, err)

	assert.Equal(t, customerID, resp.CustomerID)
	assert.Empty(t, resp.Items)
}

func TestCartService_AddItem(t *testing.T) {
	customerID := uuid.New()
	product := approvedProduct(t, 10)

	carts := new(MockCartRepository)
	carts.On("FindByCustomer", mock.Anything, customerID).Return(nil, shared.ErrNotFound)
	carts.On("Save", mock.Anything, mock.AnythingOfType("*cart.Cart")).Return(nil)

	products := new(MockProductRepository)
	products.On("FindByID", mock.Anything, product.ID).Return(product, nil)

	svc := NewCartService(carts, products)
	resp, err := svc.AddItem(context.Background(), customerID, AddItemRequest{
		ProductID: product.ID,
		Quantity:  3,
	})
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, 3, resp.Items[0].Quantity)
	assert.Equal(t, "₹40.00", resp.Items[0].PriceDisplay)
	carts.AssertExpectations(t)
}

func TestCartService_AddItem_UnapprovedProduct(t *testing.T) {
	product := approvedProduct(t, 10)
	product.Revoke()

	products := new(MockProductRepository)
	products.On("FindByID", mock.Anything, product.ID).Return(product, nil)

	svc := NewCartService(new(MockCartRepository), products)
	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemRequest{
		ProductID: product.ID,
		Quantity:  1,
	})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "PRODUCT_UNAVAILABLE", domainErr.Code)
}

func existingCart(t *testing.T, customerID uuid.UUID, product *catalog.Product, quantity int) *cart.Cart {
	t.Helper()
	c, err := cart.NewCart(customerID)
	require.NoError(t, err)
	require.NoError(t, c.AddItem(product.ID, product.Name, product.Price, quantity))
	return c
}

func TestCartService_UpdateItemQuantity_ChecksLiveStock(t *testing.T) {
	customerID := uuid.New()
	product := approvedProduct(t, 3)
	c := existingCart(t, customerID, product, 2)

	carts := new(MockCartRepository)
	carts.On("FindByCustomer", mock.Anything, customerID).Return(c, nil)

	products := new(MockProductRepository)
	products.On("FindByID", mock.Anything, product.ID).Return(product, nil)

	svc := NewCartService(carts, products)
	_, err := svc.UpdateItemQuantity(context.Background(), customerID, product.ID, UpdateItemRequest{Quantity: 5})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INSUFFICIENT_STOCK", domainErr.Code)
}

func TestCartService_UpdateItemQuantity_ZeroRemovesLine(t *testing.T) {
	customerID := uuid.New()
	product := approvedProduct(t, 10)
	c := existingCart(t, customerID, product, 2)

	carts := new(MockCartRepository)
	carts.On("FindByCustomer", mock.Anything, customerID).Return(c, nil)
	carts.On("Save", mock.Anything, c).Return(nil)

	svc := NewCartService(carts, new(MockProductRepository))
	resp, err := svc.UpdateItemQuantity(context.Background(), customerID, product.ID, UpdateItemRequest{Quantity: 0})
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
}

func TestCartService_RemoveItem(t *testing.T) {
	customerID := uuid.New()
	product := approvedProduct(t, 10)
	c := existingCart(t, customerID, product, 2)

	carts := new(MockCartRepository)
	carts.On("FindByCustomer", mock.Anything, customerID).Return(c, nil)
	carts.On("Save", mock.Anything, c).Return(nil)

	svc := NewCartService(carts, new(MockProductRepository))
	resp, err := svc.RemoveItem(context.Background(), customerID, product.ID)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)

	_, err = svc.RemoveItem(context.Background(), customerID, uuid.New())
	assert.Error(t, err)
}

func TestCartService_Clear(t *testing.T) {
	customerID := uuid.New()
	product := approvedProduct(t, 10)
	c := existingCart(t, customerID, product, 2)

	carts := new(MockCartRepository)
	carts.On("FindByCustomer", mock.Anything, customerID).Return(c, nil)
	carts.On("Save", mock.Anything, c).Return(nil)

	svc := NewCartService(carts, new(MockProductRepository))
	resp, err := svc.Clear(context.Background(), customerID)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.True(t, c.IsEmpty())
}
