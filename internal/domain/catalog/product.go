package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Unit is a unit of measure for a product
type Unit string

// Supported units of measure
const (
	UnitPieces    Unit = "pcs"
	UnitKilogram  Unit = "kg"
	UnitGram      Unit = "g"
	UnitLiter     Unit = "l"
	UnitMilliliter Unit = "ml"
	UnitBox       Unit = "box"
	UnitPack      Unit = "pack"
	UnitBottle    Unit = "bottle"
	UnitCan       Unit = "can"
	UnitBag       Unit = "bag"
)

// IsValid returns true if the unit is a supported unit of measure
func (u Unit) IsValid() bool {
	switch u {
	case UnitPieces, UnitKilogram, UnitGram, UnitLiter, UnitMilliliter,
		UnitBox, UnitPack, UnitBottle, UnitCan, UnitBag:
		return true
	}
	return false
}

// String returns the string representation of the unit
func (u Unit) String() string {
	return string(u)
}

// Product is the catalog aggregate root. Its Quantity field is derived from
// the sum of active stock batches and is never written directly by callers;
// the stock application service recomputes it after every ledger mutation.
type Product struct {
	shared.BaseAggregateRoot
	SKU         string    `gorm:"type:varchar(20);not null;uniqueIndex"`
	Barcode     *string   `gorm:"type:varchar(100);uniqueIndex"`
	Name        string    `gorm:"type:varchar(255);not null;index"`
	Description string    `gorm:"type:text"`
	CategoryID  uuid.UUID `gorm:"type:uuid;not null;index"`

	UnitCost          decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	LeastSellingPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	WholesalePrice    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	RetailPrice       decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	Quantity     int64 `gorm:"not null;default:0"`
	ReorderLevel int64 `gorm:"not null;default:10"`
	Unit         Unit  `gorm:"type:varchar(20);not null;default:'pcs'"`
	PackSize     int64 `gorm:"not null;default:1"`

	Taxable         bool            `gorm:"not null;default:true"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	IsSpecial       bool            `gorm:"not null;default:false"`
	IsOnline        bool            `gorm:"not null;default:true"`
	IsActive        bool            `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// Pricing bundles the four price points of a product
type Pricing struct {
	UnitCost          decimal.Decimal
	LeastSellingPrice decimal.Decimal
	WholesalePrice    decimal.Decimal
	RetailPrice       decimal.Decimal
}

// Validate checks that all prices are non-negative and the hierarchy
// unit_cost <= least_selling_price <= wholesale_price <= retail_price holds.
func (p Pricing) Validate() error {
	for _, price := range []decimal.Decimal{p.UnitCost, p.LeastSellingPrice, p.WholesalePrice, p.RetailPrice} {
		if price.IsNegative() {
			return shared.NewDomainError("INVALID_PRICE", "All prices must be non-negative")
		}
	}
	if p.UnitCost.GreaterThan(p.LeastSellingPrice) ||
		p.LeastSellingPrice.GreaterThan(p.WholesalePrice) ||
		p.WholesalePrice.GreaterThan(p.RetailPrice) {
		return shared.NewDomainError("PRICING_HIERARCHY_VIOLATED",
			"Pricing hierarchy violated: unit_cost <= least_selling_price <= wholesale_price <= retail_price")
	}
	return nil
}

// NewProduct creates a new product. SKU may be empty; the catalog service
// assigns one at creation time via the SKU generator.
func NewProduct(name string, categoryID uuid.UUID, unit Unit, pricing Pricing) (*Product, error) {
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if categoryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Category ID cannot be empty")
	}
	if !unit.IsValid() {
		return nil, shared.NewDomainError("INVALID_UNIT", "Unknown unit of measure: "+unit.String())
	}
	if err := pricing.Validate(); err != nil {
		return nil, err
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              strings.TrimSpace(name),
		CategoryID:        categoryID,
		Unit:              unit,
		UnitCost:          pricing.UnitCost,
		LeastSellingPrice: pricing.LeastSellingPrice,
		WholesalePrice:    pricing.WholesalePrice,
		RetailPrice:       pricing.RetailPrice,
		ReorderLevel:      10,
		PackSize:          1,
		Taxable:           true,
		DiscountPercent:   decimal.Zero,
		IsOnline:          true,
		IsActive:          true,
	}, nil
}

// AssignSKU sets the product SKU. A SKU is immutable once assigned.
func (p *Product) AssignSKU(sku string) error {
	if p.SKU != "" {
		return shared.NewDomainError("SKU_IMMUTABLE", "Product SKU cannot be changed once assigned")
	}
	if sku == "" {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	p.SKU = sku
	return nil
}

// SetBarcode sets the optional barcode. Empty clears it.
func (p *Product) SetBarcode(barcode string) error {
	if len(barcode) > 100 {
		return shared.NewDomainError("INVALID_BARCODE", "Barcode cannot exceed 100 characters")
	}
	if barcode == "" {
		p.Barcode = nil
	} else {
		p.Barcode = &barcode
	}
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// SetPricing replaces all four price points after validating the hierarchy
func (p *Product) SetPricing(pricing Pricing) error {
	if err := pricing.Validate(); err != nil {
		return err
	}
	p.UnitCost = pricing.UnitCost
	p.LeastSellingPrice = pricing.LeastSellingPrice
	p.WholesalePrice = pricing.WholesalePrice
	p.RetailPrice = pricing.RetailPrice
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// SetDiscountPercent sets the discount percentage (0-100)
func (p *Product) SetDiscountPercent(percent decimal.Decimal) error {
	if percent.IsNegative() || percent.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount percent must be between 0 and 100")
	}
	p.DiscountPercent = percent
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// SetReorderLevel sets the minimum stock level for reorder alerts
func (p *Product) SetReorderLevel(level int64) error {
	if level < 0 {
		return shared.NewDomainError("INVALID_REORDER_LEVEL", "Reorder level cannot be negative")
	}
	p.ReorderLevel = level
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// SetPackSize sets the number of units per pack
func (p *Product) SetPackSize(size int64) error {
	if size <= 0 {
		return shared.NewDomainError("INVALID_PACK_SIZE", "Pack size must be positive")
	}
	p.PackSize = size
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// Update updates the product's basic information
func (p *Product) Update(name, description string) error {
	if err := validateProductName(name); err != nil {
		return err
	}
	p.Name = strings.TrimSpace(name)
	p.Description = description
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// Deactivate marks the product inactive without deleting it
func (p *Product) Deactivate() {
	p.IsActive = false
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// Activate marks the product active
func (p *Product) Activate() {
	p.IsActive = true
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// IsLowStock returns true if the product is at or below its reorder level
func (p *Product) IsLowStock() bool {
	return p.Quantity <= p.ReorderLevel
}

// ProfitMargin returns the margin percentage over unit cost based on the
// retail price, or zero when the unit cost is zero.
func (p *Product) ProfitMargin() decimal.Decimal {
	if p.UnitCost.IsPositive() {
		return p.RetailPrice.Sub(p.UnitCost).Div(p.UnitCost).Mul(decimal.NewFromInt(100))
	}
	return decimal.Zero
}

// DiscountedPrice returns the retail price after discount, rounded to 2 decimals
func (p *Product) DiscountedPrice() decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(p.DiscountPercent.Div(decimal.NewFromInt(100)))
	return p.RetailPrice.Mul(factor).Round(2)
}

// AvailableStock returns the unit count considering pack size
func (p *Product) AvailableStock() int64 {
	return p.Quantity * p.PackSize
}

func validateProductName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 255 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 255 characters")
	}
	return nil
}
