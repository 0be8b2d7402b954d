package catalog

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/shared"
)

// ProductService handles product management, including SKU assignment at
// creation time.
type ProductService struct {
	productRepo  catalog.ProductRepository
	categoryRepo catalog.CategoryRepository
	skuGenerator *catalog.SKUGenerator
	logger       *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(
	productRepo catalog.ProductRepository,
	categoryRepo catalog.CategoryRepository,
	skuGenerator *catalog.SKUGenerator,
	logger *zap.Logger,
) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		skuGenerator: skuGenerator,
		logger:       logger,
	}
}

// CreateProduct creates a product and assigns it a generated SKU derived
// from the category and product names. SKU generation never blocks product
// creation: when the sequence is unavailable a fallback SKU is used.
func (s *ProductService) CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}

	unit := catalog.Unit(req.Unit)
	pricing := catalog.Pricing{
		UnitCost:          req.UnitCost,
		LeastSellingPrice: req.LeastSellingPrice,
		WholesalePrice:    req.WholesalePrice,
		RetailPrice:       req.RetailPrice,
	}

	product, err := catalog.NewProduct(req.Name, category.ID, unit, pricing)
	if err != nil {
		return nil, err
	}

	sku := s.skuGenerator.Generate(ctx, category.Name, product.Name)
	if err := product.AssignSKU(sku); err != nil {
		return nil, err
	}

	if req.Barcode != "" {
		if err := product.SetBarcode(req.Barcode); err != nil {
			return nil, err
		}
	}
	if req.ReorderLevel != nil {
		if err := product.SetReorderLevel(*req.ReorderLevel); err != nil {
			return nil, err
		}
	}
	if req.PackSize != nil {
		if err := product.SetPackSize(*req.PackSize); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU),
		zap.String("name", product.Name))

	resp := ToProductResponse(product)
	return &resp, nil
}

// PreviewSKU returns the SKU the next product with this category and name
// would receive. Advisory only: a concurrent creation may take the number.
func (s *ProductService) PreviewSKU(ctx context.Context, req PreviewSKURequest) (*PreviewSKUResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}

	sku, err := s.skuGenerator.Preview(ctx, category.Name, req.Name)
	if err != nil {
		return nil, err
	}
	return &PreviewSKUResponse{SKU: sku}, nil
}

// GetProduct returns a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// GetProductBySKU returns a product by its SKU
func (s *ProductService) GetProductBySKU(ctx context.Context, sku string) (*ProductResponse, error) {
	product, err := s.productRepo.FindBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// GetProductByBarcode returns a product by its barcode
func (s *ProductService) GetProductByBarcode(ctx context.Context, barcode string) (*ProductResponse, error) {
	product, err := s.productRepo.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// ListProducts returns a page of products matching the filter
func (s *ProductService) ListProducts(ctx context.Context, listFilter ProductListFilter) (*shared.Paginated[ProductResponse], error) {
	filter := shared.DefaultFilter()
	filter.Search = listFilter.Search
	if listFilter.Page > 0 {
		filter.Page = listFilter.Page
	}
	if listFilter.PageSize > 0 {
		filter.PageSize = listFilter.PageSize
	}
	if listFilter.OrderBy != "" {
		filter.OrderBy = listFilter.OrderBy
	}
	if listFilter.OrderDir != "" {
		filter.OrderDir = listFilter.OrderDir
	}
	if listFilter.CategoryID != nil {
		filter.Filters["category_id"] = *listFilter.CategoryID
	}

	find := s.productRepo.FindAll
	count := s.productRepo.Count
	if listFilter.LowStock {
		find = s.productRepo.FindLowStock
	}

	products, err := find(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := count(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = ToProductResponse(&products[i])
	}

	result := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &result, nil
}

// ListLowStockProducts returns active products at or below their reorder level
func (s *ProductService) ListLowStockProducts(ctx context.Context, filter shared.Filter) ([]ProductResponse, error) {
	products, err := s.productRepo.FindLowStock(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = ToProductResponse(&products[i])
	}
	return responses, nil
}

// UpdateProduct updates a product's details. The SKU is never touched.
func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := product.Update(req.Name, req.Description); err != nil {
		return nil, err
	}

	if req.UnitCost != nil || req.LeastSellingPrice != nil || req.WholesalePrice != nil || req.RetailPrice != nil {
		pricing := catalog.Pricing{
			UnitCost:          product.UnitCost,
			LeastSellingPrice: product.LeastSellingPrice,
			WholesalePrice:    product.WholesalePrice,
			RetailPrice:       product.RetailPrice,
		}
		if req.UnitCost != nil {
			pricing.UnitCost = *req.UnitCost
		}
		if req.LeastSellingPrice != nil {
			pricing.LeastSellingPrice = *req.LeastSellingPrice
		}
		if req.WholesalePrice != nil {
			pricing.WholesalePrice = *req.WholesalePrice
		}
		if req.RetailPrice != nil {
			pricing.RetailPrice = *req.RetailPrice
		}
		if err := product.SetPricing(pricing); err != nil {
			return nil, err
		}
	}

	if req.Barcode != nil {
		if err := product.SetBarcode(*req.Barcode); err != nil {
			return nil, err
		}
	}
	if req.DiscountPercent != nil {
		if err := product.SetDiscountPercent(*req.DiscountPercent); err != nil {
			return nil, err
		}
	}
	if req.ReorderLevel != nil {
		if err := product.SetReorderLevel(*req.ReorderLevel); err != nil {
			return nil, err
		}
	}
	if req.PackSize != nil {
		if err := product.SetPackSize(*req.PackSize); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	resp := ToProductResponse(product)
	return &resp, nil
}

// DeactivateProduct marks a product inactive without deleting it
func (s *ProductService) DeactivateProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	product.Deactivate()
	return s.productRepo.Save(ctx, product)
}

// ActivateProduct marks a product active
func (s *ProductService) ActivateProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	product.Activate()
	return s.productRepo.Save(ctx, product)
}

// DeleteProduct deletes a product and, by cascade, its stock batches. The
// product's movements survive with their batch reference cleared.
func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.productRepo.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("product deleted", zap.String("product_id", id.String()))
	return nil
}
