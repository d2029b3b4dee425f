package persistence

import (
	"context"
	"errors"

	"github.com/shopkart/backend/internal/domain/cart"
	"github.com/shopkart/backend/internal/domain/order"
	"gorm.io/gorm"
)

// GormCheckoutRepository implements the transactional checkout port.
// Placement and cancellation each run in a single database transaction
// so stock, order rows and the cart move together or not at all.
type GormCheckoutRepository struct {
	db *gorm.DB
}

// NewGormCheckoutRepository creates a new GormCheckoutRepository
func NewGormCheckoutRepository(db *gorm.DB) *GormCheckoutRepository {
	return &GormCheckoutRepository{db: db}
}

// PlaceOrder reserves stock for every line with a conditional decrement,
// persists the order and empties the user's cart, all atomically. The
// first line failing the stock guard aborts the transaction, which
// rolls back every decrement already applied and leaves the cart
// untouched.
func (r *GormCheckoutRepository) PlaceOrder(ctx context.Context, o *order.Order, lines []order.StockLine) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range lines {
			if err := decrementStock(tx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}

		if err := saveOrder(tx, o); err != nil {
			// two checkouts racing GenerateOrderNumber can compute the
			// same number; the unique index catches the loser
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return order.ErrDuplicateOrderNumber
			}
			return err
		}

		return tx.Where("user_id = ?", o.UserID).Delete(&cart.CartItem{}).Error
	})
}

// RestockOrder persists the order under a version check and restores
// every line quantity back onto product stock. Used for cancellations
// and returns. A version conflict aborts the transaction with no stock
// restored.
func (r *GormCheckoutRepository) RestockOrder(ctx context.Context, o *order.Order, lines []order.StockLine) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveOrderWithLock(tx, o); err != nil {
			return err
		}

		for _, line := range lines {
			if err := incrementStock(tx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}

		return nil
	})
}

// Ensure GormCheckoutRepository implements CheckoutRepository
var _ order.CheckoutRepository = (*GormCheckoutRepository)(nil)
