package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopkart/backend/internal/domain/shared"
)

// ErrDuplicateOrderNumber is returned by PlaceOrder when a concurrent
// checkout claimed the same order number first
var ErrDuplicateOrderNumber = shared.NewDomainError("DUPLICATE_ORDER_NUMBER", "Order number already in use")

// StockLine names a product and the quantity to reserve or restore
type StockLine struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
}

// OrderRepository defines the persistence port for orders
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	FindByPaymentIntentID(ctx context.Context, intentID string) (*Order, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)
	FindAllByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Order, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	CountByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) (int64, error)
	CountByStatus(ctx context.Context, status OrderStatus) (int64, error)
	Save(ctx context.Context, o *Order) error

	// SaveWithLock persists the order with an optimistic version check so
	// two concurrent transitions on the same order cannot both win.
	// Returns shared.ErrConcurrencyConflict when the check fails.
	SaveWithLock(ctx context.Context, o *Order) error

	// GenerateOrderNumber produces the next unique ORD-YYYY-NNNNN number
	GenerateOrderNumber(ctx context.Context) (string, error)
}

// CheckoutRepository is the transactional port for operations that must
// mutate stock and order state atomically.
type CheckoutRepository interface {
	// PlaceOrder atomically reserves stock for every line (conditional
	// decrement guarded by quantity >= requested), persists the order and
	// empties the user's cart. On any line failing the guard the whole
	// transaction rolls back, leaving stock and cart unchanged; the error
	// is *catalog.InsufficientStockError naming the offending product.
	// A lost race on the order number rolls back the same way with
	// ErrDuplicateOrderNumber.
	PlaceOrder(ctx context.Context, o *Order, lines []StockLine) error

	// RestockOrder atomically persists the order (with version check) and
	// restores every line quantity back onto product stock. Serves the two
	// stock-incrementing legs of the lifecycle: cancellation and return.
	RestockOrder(ctx context.Context, o *Order, lines []StockLine) error
}
