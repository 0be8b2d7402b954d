package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pos/backend/internal/domain/catalog"
)

// CreateCategoryRequest represents a request to create a category
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description"`
}

// UpdateCategoryRequest represents a request to update a category
type UpdateCategoryRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateProductRequest represents a request to create a product. SKU is
// intentionally absent: it is generated at creation time.
type CreateProductRequest struct {
	Name              string          `json:"name" binding:"required,max=255"`
	Description       string          `json:"description"`
	CategoryID        uuid.UUID       `json:"category_id" binding:"required"`
	Barcode           string          `json:"barcode" binding:"omitempty,max=100"`
	Unit              string          `json:"unit" binding:"required,unit"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	LeastSellingPrice decimal.Decimal `json:"least_selling_price"`
	WholesalePrice    decimal.Decimal `json:"wholesale_price"`
	RetailPrice       decimal.Decimal `json:"retail_price"`
	ReorderLevel      *int64          `json:"reorder_level" binding:"omitempty,min=0"`
	PackSize          *int64          `json:"pack_size" binding:"omitempty,min=1"`
}

// UpdateProductRequest represents a request to update a product's details
type UpdateProductRequest struct {
	Name              string           `json:"name" binding:"required,max=255"`
	Description       string           `json:"description"`
	Barcode           *string          `json:"barcode" binding:"omitempty,max=100"`
	UnitCost          *decimal.Decimal `json:"unit_cost"`
	LeastSellingPrice *decimal.Decimal `json:"least_selling_price"`
	WholesalePrice    *decimal.Decimal `json:"wholesale_price"`
	RetailPrice       *decimal.Decimal `json:"retail_price"`
	DiscountPercent   *decimal.Decimal `json:"discount_percent"`
	ReorderLevel      *int64           `json:"reorder_level" binding:"omitempty,min=0"`
	PackSize          *int64           `json:"pack_size" binding:"omitempty,min=1"`
}

// ProductResponse represents a product in API responses, including the
// values derived from its quantity and pricing
type ProductResponse struct {
	ID              uuid.UUID       `json:"id"`
	SKU             string          `json:"sku"`
	Barcode         *string         `json:"barcode,omitempty"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	CategoryID      uuid.UUID       `json:"category_id"`
	Unit            string          `json:"unit"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	LeastSellingPrice decimal.Decimal `json:"least_selling_price"`
	WholesalePrice  decimal.Decimal `json:"wholesale_price"`
	RetailPrice     decimal.Decimal `json:"retail_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
	ProfitMargin    decimal.Decimal `json:"profit_margin"`
	Quantity        int64           `json:"quantity"`
	ReorderLevel    int64           `json:"reorder_level"`
	IsLowStock      bool            `json:"is_low_stock"`
	PackSize        int64           `json:"pack_size"`
	AvailableStock  int64           `json:"available_stock"`
	Taxable         bool            `json:"taxable"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Version         int             `json:"version"`
}

// PreviewSKURequest represents a request to preview the next SKU
type PreviewSKURequest struct {
	CategoryID uuid.UUID `json:"category_id" binding:"required"`
	Name       string    `json:"name" binding:"required"`
}

// PreviewSKUResponse carries an advisory next SKU
type PreviewSKUResponse struct {
	SKU string `json:"sku"`
}

// ProductListFilter represents filter options for product listing
type ProductListFilter struct {
	Search     string     `form:"search"`
	CategoryID *uuid.UUID `form:"category_id"`
	LowStock   bool       `form:"low_stock"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToCategoryResponse converts a category to its response representation
func ToCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// ToProductResponse converts a product to its response representation
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:                p.ID,
		SKU:               p.SKU,
		Barcode:           p.Barcode,
		Name:              p.Name,
		Description:       p.Description,
		CategoryID:        p.CategoryID,
		Unit:              p.Unit.String(),
		UnitCost:          p.UnitCost,
		LeastSellingPrice: p.LeastSellingPrice,
		WholesalePrice:    p.WholesalePrice,
		RetailPrice:       p.RetailPrice,
		DiscountPercent:   p.DiscountPercent,
		DiscountedPrice:   p.DiscountedPrice(),
		ProfitMargin:      p.ProfitMargin(),
		Quantity:          p.Quantity,
		ReorderLevel:      p.ReorderLevel,
		IsLowStock:        p.IsLowStock(),
		PackSize:          p.PackSize,
		AvailableStock:    p.AvailableStock(),
		Taxable:           p.Taxable,
		IsActive:          p.IsActive,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
		Version:           p.Version,
	}
}
