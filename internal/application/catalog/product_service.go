// Package catalog contains product listing and moderation services.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/farmtohome/backend/internal/domain/catalog"
	"github.com/farmtohome/backend/internal/domain/shared"
	"github.com/farmtohome/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// ObjectStorage is the port to presigned object storage for product images
type ObjectStorage interface {
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
	DeleteObject(ctx context.Context, storageKey string) error
}

// ProductService handles product listing, updates and admin moderation
type ProductService struct {
	products       catalog.ProductRepository
	storage        ObjectStorage
	eventPublisher shared.EventPublisher
}

// NewProductService creates a new ProductService
func NewProductService(products catalog.ProductRepository, storage ObjectStorage) *ProductService {
	return &ProductService{
		products: products,
		storage:  storage,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create lists a new product for the farmer. The listing stays hidden
// from customers until an admin approves it.
func (s *ProductService) Create(ctx context.Context, farmerID uuid.UUID, req CreateProductRequest) (*ProductResponse, error) {
	price, err := valueobject.NewMoney(req.Price, valueobject.DefaultCurrency)
	if err != nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Invalid price")
	}

	product, err := catalog.NewProduct(farmerID, req.Name, req.Description,
		catalog.Category(req.Category), catalog.Unit(req.Unit), price, req.Stock)
	if err != nil {
		return nil, err
	}

	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, product)

	return s.toResponse(ctx, product), nil
}

// Update edits the farmer's own listing
func (s *ProductService) Update(ctx context.Context, farmerID, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.ownedProduct(ctx, farmerID, productID)
	if err != nil {
		return nil, err
	}

	name := product.Name
	if req.Name != nil {
		name = *req.Name
	}
	description := product.Description
	if req.Description != nil {
		description = *req.Description
	}
	category := product.Category
	if req.Category != nil {
		category = catalog.Category(*req.Category)
	}
	unit := product.Unit
	if req.Unit != nil {
		unit = catalog.Unit(*req.Unit)
	}
	if err := product.UpdateDetails(name, description, category, unit); err != nil {
		return nil, err
	}

	if req.Price != nil {
		price, err := valueobject.NewMoney(*req.Price, valueobject.DefaultCurrency)
		if err != nil {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "Invalid price")
		}
		if err := product.ChangePrice(price); err != nil {
			return nil, err
		}
	}
	if req.Stock != nil {
		if err := product.SetStock(*req.Stock); err != nil {
			return nil, err
		}
	}
	if req.IsAvailable != nil {
		product.SetAvailability(*req.IsAvailable)
	}

	if err := s.products.SaveWithLock(ctx, product); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, product), nil
}

// Delete removes the farmer's own listing
func (s *ProductService) Delete(ctx context.Context, farmerID, productID uuid.UUID) error {
	product, err := s.ownedProduct(ctx, farmerID, productID)
	if err != nil {
		return err
	}
	if product.ImageKey != "" && s.storage != nil {
		// Best effort; a dangling image is harmless
		_ = s.storage.DeleteObject(ctx, product.ImageKey)
	}
	return s.products.Delete(ctx, productID)
}

// GetByID returns a single product
func (s *ProductService) GetByID(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, product), nil
}

// ListPublic returns approved, available products for the storefront
func (s *ProductService) ListPublic(ctx context.Context, filter ProductListFilter) ([]ProductResponse, int64, error) {
	domainFilter := s.buildFilter(filter)
	domainFilter.Filters["is_approved"] = true
	domainFilter.Filters["is_available"] = true
	return s.list(ctx, domainFilter)
}

// ListByFarmer returns a farmer's own listings, approved or not
func (s *ProductService) ListByFarmer(ctx context.Context, farmerID uuid.UUID, filter ProductListFilter) ([]ProductResponse, int64, error) {
	domainFilter := s.buildFilter(filter)
	products, err := s.products.FindByFarmer(ctx, farmerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	domainFilter.Filters["farmer_id"] = farmerID
	total, err := s.products.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return s.toResponses(ctx, products), total, nil
}

// ListAll returns every product for the admin back office
func (s *ProductService) ListAll(ctx context.Context, filter ProductListFilter) ([]ProductResponse, int64, error) {
	return s.list(ctx, s.buildFilter(filter))
}

// Approve marks a listing as admin-approved
func (s *ProductService) Approve(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	product.Approve()
	if err := s.products.SaveWithLock(ctx, product); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, product)
	return s.toResponse(ctx, product), nil
}

// Revoke withdraws admin approval from a listing
func (s *ProductService) Revoke(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	product.Revoke()
	if err := s.products.SaveWithLock(ctx, product); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, product), nil
}

// GenerateImageUploadURL returns a presigned PUT URL for a product image
// and records the object key on the product.
func (s *ProductService) GenerateImageUploadURL(ctx context.Context, farmerID, productID uuid.UUID, contentType string) (*ImageUploadResponse, error) {
	if s.storage == nil {
		return nil, shared.NewDomainError("SERVER_ERROR", "Image storage is not configured")
	}

	product, err := s.ownedProduct(ctx, farmerID, productID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("products/%s/%s", product.ID, uuid.New())
	url, expiresAt, err := s.storage.GenerateUploadURL(ctx, key, contentType, 0)
	if err != nil {
		return nil, err
	}

	product.AttachImage(key)
	if err := s.products.SaveWithLock(ctx, product); err != nil {
		return nil, err
	}

	return &ImageUploadResponse{
		UploadURL: url,
		ObjectKey: key,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *ProductService) ownedProduct(ctx context.Context, farmerID, productID uuid.UUID) (*catalog.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.FarmerID != farmerID {
		return nil, shared.ErrForbidden
	}
	return product, nil
}

func (s *ProductService) buildFilter(filter ProductListFilter) shared.Filter {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Search = filter.Search
	if filter.Category != "" {
		domainFilter.Filters["category"] = filter.Category
	}
	return domainFilter
}

func (s *ProductService) list(ctx context.Context, domainFilter shared.Filter) ([]ProductResponse, int64, error) {
	products, err := s.products.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.products.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return s.toResponses(ctx, products), total, nil
}

func (s *ProductService) toResponse(ctx context.Context, product *catalog.Product) *ProductResponse {
	imageURL := ""
	if product.ImageKey != "" && s.storage != nil {
		if url, _, err := s.storage.GenerateDownloadURL(ctx, product.ImageKey, 0); err == nil {
			imageURL = url
		}
	}
	resp := ToProductResponse(product, imageURL)
	return &resp
}

func (s *ProductService) toResponses(ctx context.Context, products []catalog.Product) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = *s.toResponse(ctx, &products[i])
	}
	return responses
}

func (s *ProductService) publishEvents(ctx context.Context, product *catalog.Product) {
	if s.eventPublisher == nil {
		product.ClearDomainEvents()
		return
	}
	for _, event := range product.GetDomainEvents() {
		_ = s.eventPublisher.Publish(ctx, event)
	}
	product.ClearDomainEvents()
}
