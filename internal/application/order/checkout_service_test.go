package order

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopkart/backend/internal/domain/cart"
	"github.com/shopkart/backend/internal/domain/catalog"
	"github.com/shopkart/backend/internal/domain/order"
	"github.com/shopkart/backend/internal/domain/shared"
	"github.com/shopkart/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testUserID = uuid.New()

type checkoutMocks struct {
	cartRepo     *MockCartRepository
	productRepo  *MockProductRepository
	orderRepo    *MockOrderRepository
	checkoutRepo *MockCheckoutRepository
	gateway      *MockPaymentGateway
}

func newCheckoutService(t *testing.T) (*CheckoutService, *checkoutMocks) {
	t.Helper()
	m := &checkoutMocks{
		cartRepo:     new(MockCartRepository),
		productRepo:  new(MockProductRepository),
		orderRepo:    new(MockOrderRepository),
		checkoutRepo: new(MockCheckoutRepository),
		gateway:      new(MockPaymentGateway),
	}
	svc := NewCheckoutService(CheckoutServiceConfig{
		CartRepo:     m.cartRepo,
		ProductRepo:  m.productRepo,
		OrderRepo:    m.orderRepo,
		CheckoutRepo: m.checkoutRepo,
		Gateway:      m.gateway,
		Pricing:      order.DefaultPricingPolicy(),
		Currency:     "inr",
		Logger:       zap.NewNop(),
	})
	return svc, m
}

func testProduct(t *testing.T, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct("Wireless Mouse", "WM-001", "2.4GHz wireless mouse",
		valueobject.NewMoneyINR(decimal.NewFromInt(1000)), stock)
	require.NoError(t, err)
	return p
}

func testCartItems(t *testing.T, p *catalog.Product, quantity int) []cart.CartItem {
	t.Helper()
	item, err := cart.NewCartItem(testUserID, p.ID, p.Name, quantity,
		valueobject.NewMoneyINR(decimal.NewFromInt(1000)))
	require.NoError(t, err)
	return []cart.CartItem{*item}
}

func placeOrderRequest(method string) PlaceOrderRequest {
	return PlaceOrderRequest{
		ShippingAddress: ShippingAddressRequest{
			FullName:   "Asha Verma",
			Phone:      "+91 98765 43210",
			Line1:      "42 MG Road",
			City:       "Bengaluru",
			State:      "Karnataka",
			PostalCode: "560001",
			Country:    "India",
		},
		PaymentMethod: method,
	}
}

func TestCheckoutService_PlaceOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("cash on delivery happy path", func(t *testing.T) {
		svc, m := newCheckoutService(t)
		product := testProduct(t, 10)

		m.cartRepo.On("FindByUser", ctx, testUserID).Return(testCartItems(t, product, 2), nil)
		m.productRepo.On("FindByIDs", ctx, []uuid.UUID{product.ID}).Return([]catalog.Product{*product}, nil)
		m.orderRepo.On("GenerateOrderNumber", ctx).Return("ORD-2026-00042", nil)
		m.checkoutRepo.On("PlaceOrder", ctx, mock.AnythingOfType("*order.Order"),
			mock.MatchedBy(func(lines []order.StockLine) bool {
				return len(lines) == 1 && lines[0].ProductID == product.ID && lines[0].Quantity == 2
			})).Return(nil)

		resp, err := svc.PlaceOrder(ctx, testUserID, placeOrderRequest("cash_on_delivery"))

		require.NoError(t, err)
		assert.Equal(t, "ORD-2026-00042", resp.Order.OrderNumber)
		assert.Equal(t, "pending", resp.Order.Status)
		assert.True(t, resp.Order.Subtotal.Equal(decimal.NewFromInt(2000)))
		assert.True(t, resp.Order.Tax.Equal(decimal.NewFromInt(360)))
		assert.True(t, resp.Order.Shipping.IsZero())
		assert.True(t, resp.Order.Total.Equal(decimal.NewFromInt(2360)))
		assert.Empty(t, resp.ClientSecret)
		m.gateway.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything, mock.Anything)
		m.checkoutRepo.AssertExpectations(t)
	})

	t.Run("card checkout returns the client secret", func(t *testing.T) {
		svc, m := newCheckoutService(t)
		product := testProduct(t, 10)

		m.cartRepo.On("FindByUser", ctx, testUserID).Return(testCartItems(t, product, 2), nil)
		m.productRepo.On("FindByIDs", ctx, []uuid.UUID{product.ID}).Return([]catalog.Product{*product}, nil)
		m.orderRepo.On("GenerateOrderNumber", ctx).Return("ORD-2026-00043", nil)
		m.checkoutRepo.On("PlaceOrder", ctx, mock.AnythingOfType("*order.Order"), mock.Anything).Return(nil)
		m.gateway.On("CreateIntent", ctx, mock.AnythingOfType("*order.Order"), "inr").
			Return(&order.PaymentIntent{ID: "pi_123", ClientSecret: "pi_123_secret"}, nil)
		m.orderRepo.On("SaveWithLock", ctx, mock.MatchedBy(func(o *order.Order) bool {
			return o.Payment.IntentID == "pi_123"
		})).Return(nil)

		resp, err := svc.PlaceOrder(ctx, testUserID, placeOrderRequest("card"))

		require.NoError(t, err)
		assert.Equal(t, "pi_123_secret", resp.ClientSecret)
		assert.Equal(t, "pi_123", resp.Order.Payment.IntentID)
		m.orderRepo.AssertExpectations(t)
	})

	t.Run("empty cart is rejected", func(t *testing.T) {
		svc, m := newCheckoutService(t)

		m.cartRepo.On("FindByUser", ctx, testUserID).Return([]cart.CartItem{}, nil)

		_, err := svc.PlaceOrder(ctx, testUserID, placeOrderRequest("cash_on_delivery"))

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "EMPTY_CART", domainErr.Code)
		m.checkoutRepo.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("deactivated product blocks the checkout", func(t *testing.T) {
		svc, m := newCheckoutService(t)
		product := testProduct(t, 10)
		product.Deactivate()

		m.cartRepo.On("FindByUser", ctx, testUserID).Return(testCartItems(t, product, 2), nil)
		m.productRepo.On("FindByIDs", ctx, []uuid.UUID{product.ID}).Return([]catalog.Product{*product}, nil)

		_, err := svc.PlaceOrder(ctx, testUserID, placeOrderRequest("cash_on_delivery"))

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "PRODUCT_UNAVAILABLE", domainErr.Code)
	})

	t.Run("failed placement leaves nothing behind", func(t *testing.T) {
		svc, m := newCheckoutService(t)
		product := testProduct(t, 1)

		m.cartRepo.On("FindByUser", ctx, testUserID).Return(testCartItems(t, product, 2), nil)
		m.productRepo.On("FindByIDs", ctx, []uuid.UUID{product.ID}).Return([]catalog.Product{*product}, nil)
		m.orderRepo.On("GenerateOrderNumber", ctx).Return("ORD-2026-00044", nil)
		m.checkoutRepo.On("PlaceOrder", ctx, mock.Anything, mock.Anything).
			Return(catalog.NewInsufficientStockError(product.ID, product.Name, 2, 1))

		_, err := svc.PlaceOrder(ctx, testUserID, placeOrderRequest("card"))

		var stockErr *catalog.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, 2, stockErr.Requested)
		assert.Equal(t, 1, stockErr.Available)
		m.gateway.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything, mock.Anything)
		m.orderRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("provider failure cancels the placed order", func(t *testing.T) {
		svc, m := newCheckoutService(t)
		product := testProduct(t, 10)
		providerErr := shared.ErrPaymentProvider

		m.cartRepo.On("FindByUser", ctx, testUserID).Return(testCartItems(t, product, 2), nil)
		m.productRepo.On("FindByIDs", ctx, []uuid.UUID{product.ID}).Return([]catalog.Product{*product}, nil)
		m.orderRepo.On("GenerateOrderNumber", ctx).Return("ORD-2026-00045", nil)
		m.checkoutRepo.On("PlaceOrder", ctx, mock.Anything, mock.Anything).Return(nil)
		m.gateway.On("CreateIntent", ctx, mock.Anything, "inr").Return(nil, providerErr)
		m.checkoutRepo.On("RestockOrder", ctx, mock.MatchedBy(func(o *order.Order) bool {
			return o.Status == order.StatusCancelled
		}), mock.Anything).Return(nil)

		_, err := svc.PlaceOrder(ctx, testUserID, placeOrderRequest("card"))

		require.ErrorIs(t, err, shared.ErrPaymentProvider)
		m.checkoutRepo.AssertExpectations(t)
		m.orderRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("lost order number race is retried with a fresh number", func(t *testing.T) {
		svc, m := newCheckoutService(t)
		product := testProduct(t, 10)

		m.cartRepo.On("FindByUser", ctx, testUserID).Return(testCartItems(t, product, 2), nil)
		m.productRepo.On("FindByIDs", ctx, []uuid.UUID{product.ID}).Return([]catalog.Product{*product}, nil)
		m.orderRepo.On("GenerateOrderNumber", ctx).Return("ORD-2026-00050", nil).Once()
		m.checkoutRepo.On("PlaceOrder", ctx, mock.MatchedBy(func(o *order.Order) bool {
			return o.OrderNumber == "ORD-2026-00050"
		}), mock.Anything).Return(order.ErrDuplicateOrderNumber).Once()
		m.orderRepo.On("GenerateOrderNumber", ctx).Return("ORD-2026-00051", nil).Once()
		m.checkoutRepo.On("PlaceOrder", ctx, mock.MatchedBy(func(o *order.Order) bool {
			return o.OrderNumber == "ORD-2026-00051"
		}), mock.Anything).Return(nil).Once()

		resp, err := svc.PlaceOrder(ctx, testUserID, placeOrderRequest("cash_on_delivery"))

		require.NoError(t, err)
		assert.Equal(t, "ORD-2026-00051", resp.Order.OrderNumber)
		m.checkoutRepo.AssertExpectations(t)
		m.orderRepo.AssertExpectations(t)
	})

	t.Run("second lost number race surfaces", func(t *testing.T) {
		svc, m := newCheckoutService(t)
		product := testProduct(t, 10)

		m.cartRepo.On("FindByUser", ctx, testUserID).Return(testCartItems(t, product, 2), nil)
		m.productRepo.On("FindByIDs", ctx, []uuid.UUID{product.ID}).Return([]catalog.Product{*product}, nil)
		m.orderRepo.On("GenerateOrderNumber", ctx).Return("ORD-2026-00052", nil)
		m.checkoutRepo.On("PlaceOrder", ctx, mock.Anything, mock.Anything).
			Return(order.ErrDuplicateOrderNumber)

		_, err := svc.PlaceOrder(ctx, testUserID, placeOrderRequest("cash_on_delivery"))

		assert.ErrorIs(t, err, order.ErrDuplicateOrderNumber)
		m.checkoutRepo.AssertNumberOfCalls(t, "PlaceOrder", 2)
	})

	t.Run("unrecordable payment intent cancels the placed order", func(t *testing.T) {
		svc, m := newCheckoutService(t)
		product := testProduct(t, 10)
		saveErr := shared.NewDomainError("DB_ERROR", "connection lost")

		m.cartRepo.On("FindByUser", ctx, testUserID).Return(testCartItems(t, product, 2), nil)
		m.productRepo.On("FindByIDs", ctx, []uuid.UUID{product.ID}).Return([]catalog.Product{*product}, nil)
		m.orderRepo.On("GenerateOrderNumber", ctx).Return("ORD-2026-00053", nil)
		m.checkoutRepo.On("PlaceOrder", ctx, mock.Anything, mock.Anything).Return(nil)
		m.gateway.On("CreateIntent", ctx, mock.Anything, "inr").
			Return(&order.PaymentIntent{ID: "pi_456", ClientSecret: "pi_456_secret"}, nil)
		m.orderRepo.On("SaveWithLock", ctx, mock.Anything).Return(saveErr)
		m.checkoutRepo.On("RestockOrder", ctx, mock.MatchedBy(func(o *order.Order) bool {
			return o.Status == order.StatusCancelled
		}), mock.Anything).Return(nil)

		_, err := svc.PlaceOrder(ctx, testUserID, placeOrderRequest("card"))

		assert.ErrorIs(t, err, saveErr)
		m.checkoutRepo.AssertExpectations(t)
	})

	t.Run("intent save retries after a version conflict", func(t *testing.T) {
		svc, m := newCheckoutService(t)
		product := testProduct(t, 10)

		m.cartRepo.On("FindByUser", ctx, testUserID).Return(testCartItems(t, product, 2), nil)
		m.productRepo.On("FindByIDs", ctx, []uuid.UUID{product.ID}).Return([]catalog.Product{*product}, nil)
		m.orderRepo.On("GenerateOrderNumber", ctx).Return("ORD-2026-00054", nil)
		m.checkoutRepo.On("PlaceOrder", ctx, mock.Anything, mock.Anything).Return(nil)
		m.gateway.On("CreateIntent", ctx, mock.Anything, "inr").
			Return(&order.PaymentIntent{ID: "pi_789", ClientSecret: "pi_789_secret"}, nil)
		m.orderRepo.On("SaveWithLock", ctx, mock.Anything).Return(shared.ErrConcurrencyConflict).Once()
		m.orderRepo.On("FindByID", ctx, mock.Anything).Return(placedOrder(t), nil).Once()
		m.orderRepo.On("SaveWithLock", ctx, mock.MatchedBy(func(o *order.Order) bool {
			return o.Payment.IntentID == "pi_789"
		})).Return(nil).Once()

		resp, err := svc.PlaceOrder(ctx, testUserID, placeOrderRequest("card"))

		require.NoError(t, err)
		assert.Equal(t, "pi_789_secret", resp.ClientSecret)
		assert.Equal(t, "pi_789", resp.Order.Payment.IntentID)
		m.orderRepo.AssertExpectations(t)
		m.checkoutRepo.AssertNotCalled(t, "RestockOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("card checkout without a configured gateway", func(t *testing.T) {
		m := &checkoutMocks{cartRepo: new(MockCartRepository)}
		svc := NewCheckoutService(CheckoutServiceConfig{
			CartRepo: m.cartRepo,
			Pricing:  order.DefaultPricingPolicy(),
			Currency: "inr",
			Logger:   zap.NewNop(),
		})

		_, err := svc.PlaceOrder(ctx, testUserID, placeOrderRequest("card"))

		require.ErrorIs(t, err, shared.ErrPaymentProvider)
		m.cartRepo.AssertNotCalled(t, "FindByUser", mock.Anything, mock.Anything)
	})
}
