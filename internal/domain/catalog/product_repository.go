package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopkart/backend/internal/domain/shared"
)

// ProductRepository defines the persistence port for products
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	FindBySKU(ctx context.Context, sku string) (*Product, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Save(ctx context.Context, product *Product) error
	SaveWithLock(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsBySKU(ctx context.Context, sku string) (bool, error)

	// DecrementStock atomically decrements stock by quantity, guarded by
	// stock_quantity >= quantity in a single conditional update. Returns
	// *InsufficientStockError when the guard fails.
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error

	// IncrementStock atomically restores stock (cancellation / return)
	IncrementStock(ctx context.Context, productID uuid.UUID, quantity int) error
}
