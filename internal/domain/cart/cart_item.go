package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopkart/backend/internal/domain/shared"
	"github.com/shopkart/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Quantity bounds for a single cart line
const (
	MinQuantity = 1
	MaxQuantity = 10
)

// CartItem is one line of a user's cart: a product reference, a
// quantity within [1, 10] and the price snapshotted at add time. The
// snapshot is what gets frozen onto the order line at checkout, so a
// later catalog price change does not reprice an existing cart.
type CartItem struct {
	shared.BaseEntity
	UserID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_product,priority:1"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_product,priority:2"`
	ProductName string          `gorm:"not null;size:200"`
	Quantity    int             `gorm:"not null"`
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (CartItem) TableName() string {
	return "cart_items"
}

// NewCartItem creates a cart line for a user
func NewCartItem(userID, productID uuid.UUID, productName string, quantity int, price valueobject.Money) (*CartItem, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	if price.Amount().IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	return &CartItem{
		BaseEntity:  shared.NewBaseEntity(),
		UserID:      userID,
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		Price:       price.Amount(),
	}, nil
}

// UpdateQuantity changes the quantity, keeping it within bounds
func (i *CartItem) UpdateQuantity(quantity int) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}

	i.Quantity = quantity
	i.UpdatedAt = time.Now()

	return nil
}

// LineTotal returns price * quantity
func (i *CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// GetPriceMoney returns the snapshot price as Money
func (i *CartItem) GetPriceMoney() valueobject.Money {
	return valueobject.NewMoneyINR(i.Price)
}

func validateQuantity(quantity int) error {
	if quantity < MinQuantity || quantity > MaxQuantity {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be between 1 and 10")
	}
	return nil
}
