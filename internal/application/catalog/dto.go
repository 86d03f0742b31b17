package catalog

import (
	"time"

	"github.com/farmtohome/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to list a new product
type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required,min=1,max=200"`
	Description string          `json:"description" binding:"max=2000"`
	Category    string          `json:"category" binding:"required"`
	Unit        string          `json:"unit" binding:"required"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Stock       int             `json:"stock" binding:"min=0"`
}

// UpdateProductRequest represents a request to update a listing
type UpdateProductRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string          `json:"description" binding:"omitempty,max=2000"`
	Category    *string          `json:"category"`
	Unit        *string          `json:"unit"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock" binding:"omitempty,min=0"`
	IsAvailable *bool            `json:"is_available"`
}

// ProductListFilter represents filter options for product lists
type ProductListFilter struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID           uuid.UUID       `json:"id"`
	FarmerID     uuid.UUID       `json:"farmer_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Category     string          `json:"category"`
	Unit         string          `json:"unit"`
	Price        decimal.Decimal `json:"price"`
	PriceDisplay string          `json:"price_display"`
	Stock        int             `json:"stock"`
	IsAvailable  bool            `json:"is_available"`
	IsApproved   bool            `json:"is_approved"`
	ImageURL     string          `json:"image_url,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ImageUploadResponse carries a presigned upload URL for a product image
type ImageUploadResponse struct {
	UploadURL string    `json:"upload_url"`
	ObjectKey string    `json:"object_key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ToProductResponse converts a product aggregate to its API representation
func ToProductResponse(p *catalog.Product, imageURL string) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		FarmerID:     p.FarmerID,
		Name:         p.Name,
		Description:  p.Description,
		Category:     string(p.Category),
		Unit:         string(p.Unit),
		Price:        p.Price.Amount(),
		PriceDisplay: p.Price.Display(),
		Stock:        p.Stock,
		IsAvailable:  p.IsAvailable,
		IsApproved:   p.IsApproved,
		ImageURL:     imageURL,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
