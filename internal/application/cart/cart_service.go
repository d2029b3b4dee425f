package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopkart/backend/internal/domain/cart"
	"github.com/shopkart/backend/internal/domain/catalog"
	"github.com/shopkart/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CartService handles cart operations for a user
type CartService struct {
	cartRepo    cart.CartRepository
	productRepo catalog.ProductRepository
	logger      *zap.Logger
}

// NewCartService creates a new CartService
func NewCartService(cartRepo cart.CartRepository, productRepo catalog.ProductRepository, logger *zap.Logger) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

// Get returns the user's cart
func (s *CartService) Get(ctx context.Context, userID uuid.UUID) (*CartResponse, error) {
	items, err := s.cartRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := ToCartResponse(items)
	return &resp, nil
}

// AddItem puts a product in the cart. Adding a product already in the
// cart merges quantities; the merged quantity must stay within bounds.
// The availability check here is advisory, the placement transaction
// re-checks stock authoritatively at checkout.
func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartResponse, error) {
	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, shared.NewDomainError("PRODUCT_UNAVAILABLE", "Product is not available for sale")
	}

	existing, err := s.cartRepo.FindByUserAndProduct(ctx, userID, req.ProductID)
	if err != nil && err != shared.ErrNotFound {
		return nil, err
	}

	quantity := req.Quantity
	if existing != nil {
		quantity += existing.Quantity
	}

	if product.StockQuantity < quantity {
		return nil, catalog.NewInsufficientStockError(product.ID, product.Name, quantity, product.StockQuantity)
	}

	if existing != nil {
		if err := existing.UpdateQuantity(quantity); err != nil {
			return nil, err
		}
		if err := s.cartRepo.Save(ctx, existing); err != nil {
			return nil, err
		}
	} else {
		item, err := cart.NewCartItem(userID, product.ID, product.Name, quantity, product.GetPriceMoney())
		if err != nil {
			return nil, err
		}
		if err := s.cartRepo.Save(ctx, item); err != nil {
			return nil, err
		}
	}

	s.logger.Debug("Cart item added",
		zap.String("user_id", userID.String()),
		zap.String("product_id", req.ProductID.String()),
		zap.Int("quantity", quantity))

	return s.Get(ctx, userID)
}

// UpdateItem sets the quantity of a cart line
func (s *CartService) UpdateItem(ctx context.Context, userID, productID uuid.UUID, req UpdateItemRequest) (*CartResponse, error) {
	item, err := s.cartRepo.FindByUserAndProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.StockQuantity < req.Quantity {
		return nil, catalog.NewInsufficientStockError(product.ID, product.Name, req.Quantity, product.StockQuantity)
	}

	if err := item.UpdateQuantity(req.Quantity); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, item); err != nil {
		return nil, err
	}

	return s.Get(ctx, userID)
}

// RemoveItem deletes a cart line
func (s *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartResponse, error) {
	item, err := s.cartRepo.FindByUserAndProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.Delete(ctx, item.ID); err != nil {
		return nil, err
	}

	return s.Get(ctx, userID)
}

// Clear empties the user's cart
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.cartRepo.DeleteByUser(ctx, userID)
}
