package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopkart/backend/internal/domain/cart"
	"github.com/shopkart/backend/internal/domain/catalog"
	"github.com/shopkart/backend/internal/domain/order"
	"github.com/shopkart/backend/internal/domain/shared"
	"github.com/shopkart/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CheckoutService turns a cart into a placed order
type CheckoutService struct {
	cartRepo     cart.CartRepository
	productRepo  catalog.ProductRepository
	orderRepo    order.OrderRepository
	checkoutRepo order.CheckoutRepository
	gateway      order.PaymentGateway
	pricing      order.PricingPolicy
	currency     string
	logger       *zap.Logger
}

// CheckoutServiceConfig contains the dependencies of CheckoutService
type CheckoutServiceConfig struct {
	CartRepo     cart.CartRepository
	ProductRepo  catalog.ProductRepository
	OrderRepo    order.OrderRepository
	CheckoutRepo order.CheckoutRepository
	Gateway      order.PaymentGateway
	Pricing      order.PricingPolicy
	Currency     string
	Logger       *zap.Logger
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(cfg CheckoutServiceConfig) *CheckoutService {
	return &CheckoutService{
		cartRepo:     cfg.CartRepo,
		productRepo:  cfg.ProductRepo,
		orderRepo:    cfg.OrderRepo,
		checkoutRepo: cfg.CheckoutRepo,
		gateway:      cfg.Gateway,
		pricing:      cfg.Pricing,
		currency:     cfg.Currency,
		logger:       cfg.Logger,
	}
}

// PlaceOrder places an order from the user's cart. Stock reservation,
// order persistence and cart clearing happen in one transaction; when
// any line cannot be reserved the whole placement rolls back and stock
// and cart are left exactly as they were. Card orders additionally get
// a payment intent; if the provider call fails the freshly placed order
// is cancelled, which restores the reserved stock.
func (s *CheckoutService) PlaceOrder(ctx context.Context, userID uuid.UUID, req PlaceOrderRequest) (*PlaceOrderResponse, error) {
	if order.PaymentMethod(req.PaymentMethod) == order.MethodCard && s.gateway == nil {
		return nil, fmt.Errorf("%w: card payments are not configured", shared.ErrPaymentProvider)
	}

	cartItems, err := s.cartRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cartItems) == 0 {
		return nil, shared.NewDomainError("EMPTY_CART", "Cannot place an order with an empty cart")
	}

	productIDs := make([]uuid.UUID, len(cartItems))
	for i := range cartItems {
		productIDs[i] = cartItems[i].ProductID
	}

	products, err := s.productRepo.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	productsByID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		productsByID[products[i].ID] = &products[i]
	}

	orderItems := make([]order.OrderItem, 0, len(cartItems))
	stockLines := make([]order.StockLine, 0, len(cartItems))
	for i := range cartItems {
		product, ok := productsByID[cartItems[i].ProductID]
		if !ok || !product.Active {
			return nil, shared.NewDomainError("PRODUCT_UNAVAILABLE",
				fmt.Sprintf("Product %q is no longer available", cartItems[i].ProductName))
		}

		// the cart price snapshot is what the customer saw, so the
		// order freezes that price, not the current catalog price
		item, err := order.NewOrderItem(product.ID, product.Name, product.SKU,
			valueobject.NewMoneyINR(cartItems[i].Price), cartItems[i].Quantity)
		if err != nil {
			return nil, err
		}
		orderItems = append(orderItems, *item)
		stockLines = append(stockLines, order.StockLine{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    cartItems[i].Quantity,
		})
	}

	summary, err := s.pricing.Compute(orderItems, decimal.Zero)
	if err != nil {
		return nil, err
	}

	o, err := s.placeWithFreshNumber(ctx, userID, req, orderItems, summary, stockLines)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order placed",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("user_id", userID.String()),
		zap.String("total", o.Total.String()))

	resp := &PlaceOrderResponse{}

	if o.Payment.Method == order.MethodCard {
		intent, err := s.gateway.CreateIntent(ctx, o, s.currency)
		if err != nil {
			s.compensatePlacement(ctx, o, stockLines, "Payment intent creation failed")
			return nil, err
		}

		if err := s.recordPaymentIntent(ctx, o, intent.ID); err != nil {
			// without the intent id on the order the webhook could never
			// reconcile the payment, so the order must not stay placed
			s.compensatePlacement(ctx, o, stockLines, "Payment intent could not be recorded")
			return nil, err
		}
		resp.ClientSecret = intent.ClientSecret
	}

	resp.Order = ToOrderResponse(o)
	return resp, nil
}

// placeWithFreshNumber builds the order and runs the transactional
// placement. Losing the order-number race to a concurrent checkout
// rolls the placement back, so it is retried once with a regenerated
// number.
func (s *CheckoutService) placeWithFreshNumber(ctx context.Context, userID uuid.UUID, req PlaceOrderRequest, items []order.OrderItem, summary order.Summary, lines []order.StockLine) (*order.Order, error) {
	for attempt := 0; attempt < 2; attempt++ {
		orderNumber, err := s.orderRepo.GenerateOrderNumber(ctx)
		if err != nil {
			return nil, err
		}

		o, err := order.NewOrder(userID, orderNumber, items, summary,
			toShippingAddress(req.ShippingAddress), order.PaymentMethod(req.PaymentMethod), "customer")
		if err != nil {
			return nil, err
		}

		err = s.checkoutRepo.PlaceOrder(ctx, o, lines)
		if err == nil {
			return o, nil
		}
		if err != order.ErrDuplicateOrderNumber {
			return nil, err
		}

		s.logger.Warn("Order number taken by a concurrent checkout, retrying",
			zap.String("order_number", orderNumber))
	}

	return nil, order.ErrDuplicateOrderNumber
}

// recordPaymentIntent persists the provider intent id on the placed
// order, retrying once when a concurrent writer bumped the version in
// the window between placement and this save.
func (s *CheckoutService) recordPaymentIntent(ctx context.Context, o *order.Order, intentID string) error {
	o.SetPaymentIntent(intentID)
	err := s.orderRepo.SaveWithLock(ctx, o)
	if err != shared.ErrConcurrencyConflict {
		return err
	}

	fresh, err := s.orderRepo.FindByID(ctx, o.ID)
	if err != nil {
		return err
	}
	fresh.SetPaymentIntent(intentID)
	if err := s.orderRepo.SaveWithLock(ctx, fresh); err != nil {
		return err
	}

	*o = *fresh
	return nil
}

// compensatePlacement cancels a freshly placed order whose payment
// setup failed, restoring the reserved stock. The order is still
// pending so cancellation is always legal here.
func (s *CheckoutService) compensatePlacement(ctx context.Context, o *order.Order, lines []order.StockLine, reason string) {
	if err := o.Cancel("system", reason); err != nil {
		s.logger.Error("Failed to cancel order after payment setup error",
			zap.String("order_id", o.ID.String()),
			zap.Error(err))
		return
	}
	if err := s.checkoutRepo.RestockOrder(ctx, o, lines); err != nil {
		s.logger.Error("Failed to persist compensating cancellation",
			zap.String("order_id", o.ID.String()),
			zap.Error(err))
	}
}
