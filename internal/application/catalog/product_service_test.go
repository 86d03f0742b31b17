package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/farmtohome/backend/internal/domain/catalog"
	"github.com/farmtohome/backend/internal/domain/shared"
	"github.com/farmtohome/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

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

// MockObjectStorage is a mock implementation of ObjectStorage
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, contentType, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockObjectStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	args := m.Called(ctx, storageKey)
	return args.Error(0)
}

func testProduct(t *testing.T, farmerID uuid.UUID) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(farmerID, "Tomatoes", "Desi tomatoes",
		catalog.CategoryVegetables, catalog.UnitKg, valueobject.RupeesFromString("40"), 100)
	require.NoError(t, err)
	p.ClearDomainEvents()
	return p
}

func TestProductService_Create(t *testing.T) {
	repo := new(MockProductRepository)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*catalog.Product")).Return(nil)

	svc := NewProductService(repo, nil)
	resp, err := svc.Create(context.Background(), uuid.New(), CreateProductRequest{
		Name:     "Tomatoes",
		Category: "vegetables",
		Unit:     "kg",
		Price:    decimal.RequireFromString("40"),
		Stock:    100,
	})
	require.NoError(t, err)

	assert.Equal(t, "Tomatoes", resp.Name)
	assert.False(t, resp.IsApproved)
	assert.Equal(t, "₹40.00", resp.PriceDisplay)
	repo.AssertExpectations(t)
}

func TestProductService_Create_InvalidCategory(t *testing.T) {
	svc := NewProductService(new(MockProductRepository), nil)
	_, err := svc.Create(context.Background(), uuid.New(), CreateProductRequest{
		Name:     "Tomatoes",
		Category: "meat",
		Unit:     "kg",
		Price:    decimal.RequireFromString("40"),
	})
	assert.Error(t, err)
}

func TestProductService_Update(t *testing.T) {
	farmerID := uuid.New()
	product := testProduct(t, farmerID)

	repo := new(MockProductRepository)
	repo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	repo.On("SaveWithLock", mock.Anything, product).Return(nil)

	svc := NewProductService(repo, nil)
	newPrice := decimal.RequireFromString("55")
	newStock := 40
	resp, err := svc.Update(context.Background(), farmerID, product.ID, UpdateProductRequest{
		Price: &newPrice,
		Stock: &newStock,
	})
	require.NoError(t, err)

	assert.True(t, resp.Price.Equal(newPrice))
	assert.Equal(t, 40, resp.Stock)
}

func TestProductService_Update_NotOwner(t *testing.T) {
	product := testProduct(t, uuid.New())

	repo := new(MockProductRepository)
	repo.On("FindByID", mock.Anything, product.ID).Return(product, nil)

	svc := NewProductService(repo, nil)
	_, err := svc.Update(context.Background(), uuid.New(), product.ID, UpdateProductRequest{})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestProductService_Approve(t *testing.T) {
	product := testProduct(t, uuid.New())

	repo := new(MockProductRepository)
	repo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	repo.On("SaveWithLock", mock.Anything, product).Return(nil)

	svc := NewProductService(repo, nil)
	resp, err := svc.Approve(context.Background(), product.ID)
	require.NoError(t, err)
	assert.True(t, resp.IsApproved)
}

func TestProductService_GenerateImageUploadURL(t *testing.T) {
	farmerID := uuid.New()
	product := testProduct(t, farmerID)
	expiresAt := time.Now().Add(15 * time.Minute)

	repo := new(MockProductRepository)
	repo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	repo.On("SaveWithLock", mock.Anything, product).Return(nil)

	storage := new(MockObjectStorage)
	storage.On("GenerateUploadURL", mock.Anything, mock.AnythingOfType("string"), "image/jpeg", time.Duration(0)).
		Return("https://storage.example.com/upload", expiresAt, nil)
	storage.On("GenerateDownloadURL", mock.Anything, mock.AnythingOfType("string"), time.Duration(0)).
		Return("https://storage.example.com/download", expiresAt, nil).Maybe()

	svc := NewProductService(repo, storage)
	resp, err := svc.GenerateImageUploadURL(context.Background(), farmerID, product.ID, "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "https://storage.example.com/upload", resp.UploadURL)
	assert.NotEmpty(t, resp.ObjectKey)
	assert.NotEmpty(t, product.ImageKey)
	storage.AssertExpectations(t)
}

func TestProductService_ListPublicFiltersToApproved(t *testing.T) {
	repo := new(MockProductRepository)
	repo.On("FindAll", mock.Anything, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Filters["is_approved"] == true && f.Filters["is_available"] == true
	})).Return([]catalog.Product{}, nil)
	repo.On("Count", mock.Anything, mock.Anything).Return(int64(0), nil)

	svc := NewProductService(repo, nil)
	_, total, err := svc.ListPublic(context.Background(), ProductListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	repo.AssertExpectations(t)
}
