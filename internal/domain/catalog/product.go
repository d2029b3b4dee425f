package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopkart/backend/internal/domain/shared"
	"github.com/shopkart/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Product represents a catalog entry available for sale.
// Stock is mutated only by order placement (decrement) and
// cancellation/return (increment); the persistence layer performs those
// mutations as conditional single-row updates so the quantity can never
// go negative.
type Product struct {
	shared.BaseAggregateRoot
	Name          string          `gorm:"not null;size:200"`
	SKU           string          `gorm:"not null;size:64;uniqueIndex"`
	Description   string          `gorm:"size:2000"`
	Price         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	StockQuantity int             `gorm:"not null;default:0"`
	Active        bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product
func NewProduct(name, sku, description string, price valueobject.Money, stockQuantity int) (*Product, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "Product SKU cannot be empty")
	}
	if price.Amount().IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Product price cannot be negative")
	}
	if stockQuantity < 0 {
		return nil, shared.NewDomainError("INVALID_STOCK", "Stock quantity cannot be negative")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		SKU:               sku,
		Description:       description,
		Price:             price.Amount(),
		StockQuantity:     stockQuantity,
		Active:            true,
	}, nil
}

// IsInStock returns true if any quantity is available
func (p *Product) IsInStock() bool {
	return p.StockQuantity > 0
}

// GetPriceMoney returns the price as a Money value object
func (p *Product) GetPriceMoney() valueobject.Money {
	return valueobject.NewMoneyINR(p.Price)
}

// UpdateDetails updates name and description
func (p *Product) UpdateDetails(name, description string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}

	p.Name = name
	p.Description = description
	p.UpdatedAt = time.Now()

	return nil
}

// UpdatePrice updates the selling price. Orders already placed keep
// their snapshot price.
func (p *Product) UpdatePrice(price valueobject.Money) error {
	if price.Amount().IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Product price cannot be negative")
	}

	p.Price = price.Amount()
	p.UpdatedAt = time.Now()

	return nil
}

// SetStock replaces the stock quantity (admin restock)
func (p *Product) SetStock(quantity int) error {
	if quantity < 0 {
		return shared.NewDomainError("INVALID_STOCK", "Stock quantity cannot be negative")
	}

	p.StockQuantity = quantity
	p.UpdatedAt = time.Now()

	return nil
}

// Deactivate removes the product from sale without deleting it
func (p *Product) Deactivate() {
	p.Active = false
	p.UpdatedAt = time.Now()
}

// Activate puts the product back on sale
func (p *Product) Activate() {
	p.Active = true
	p.UpdatedAt = time.Now()
}

// InsufficientStockError is returned when a requested quantity exceeds
// the available stock. It names the offending product and the quantity
// actually available so callers can surface both.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

// Error implements the error interface
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// NewInsufficientStockError creates a new InsufficientStockError
func NewInsufficientStockError(productID uuid.UUID, productName string, requested, available int) *InsufficientStockError {
	return &InsufficientStockError{
		ProductID:   productID,
		ProductName: productName,
		Requested:   requested,
		Available:   available,
	}
}
