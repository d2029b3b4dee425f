package order

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopkart/backend/internal/domain/order"
	"github.com/shopkart/backend/internal/domain/shared"
	"github.com/shopkart/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newOrderService(t *testing.T) (*OrderService, *MockOrderRepository, *MockCheckoutRepository) {
	t.Helper()
	orderRepo := new(MockOrderRepository)
	checkoutRepo := new(MockCheckoutRepository)
	return NewOrderService(orderRepo, checkoutRepo, zap.NewNop()), orderRepo, checkoutRepo
}

func placedOrder(t *testing.T) *order.Order {
	t.Helper()
	item, err := order.NewOrderItem(uuid.New(), "Wireless Mouse", "WM-001",
		valueobject.NewMoneyINR(decimal.NewFromInt(1000)), 2)
	require.NoError(t, err)
	items := []order.OrderItem{*item}

	summary, err := order.DefaultPricingPolicy().Compute(items, decimal.Zero)
	require.NoError(t, err)

	o, err := order.NewOrder(testUserID, "ORD-2026-00042", items, summary, order.ShippingAddress{
		FullName:   "Asha Verma",
		Phone:      "+91 98765 43210",
		Line1:      "42 MG Road",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
		Country:    "India",
	}, order.MethodCashOnDelivery, "customer")
	require.NoError(t, err)
	return o
}

func TestOrderService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("restores the exact reserved quantities", func(t *testing.T) {
		svc, orderRepo, checkoutRepo := newOrderService(t)
		o := placedOrder(t)

		orderRepo.On("FindByIDForUser", ctx, testUserID, o.ID).Return(o, nil)
		checkoutRepo.On("RestockOrder", ctx, o, mock.MatchedBy(func(lines []order.StockLine) bool {
			return len(lines) == 1 &&
				lines[0].ProductID == o.Items[0].ProductID &&
				lines[0].Quantity == o.Items[0].Quantity
		})).Return(nil)

		resp, err := svc.Cancel(ctx, testUserID, o.ID, CancelOrderRequest{Reason: "changed my mind"})

		require.NoError(t, err)
		assert.Equal(t, "cancelled", resp.Status)
		assert.Equal(t, "changed my mind", resp.CancelReason)
		checkoutRepo.AssertExpectations(t)
	})

	t.Run("second cancel fails without touching stock", func(t *testing.T) {
		svc, orderRepo, checkoutRepo := newOrderService(t)
		o := placedOrder(t)
		require.NoError(t, o.Cancel("customer", ""))

		orderRepo.On("FindByIDForUser", ctx, testUserID, o.ID).Return(o, nil)

		_, err := svc.Cancel(ctx, testUserID, o.ID, CancelOrderRequest{})

		var transitionErr *order.InvalidTransitionError
		require.ErrorAs(t, err, &transitionErr)
		assert.Equal(t, order.StatusCancelled, transitionErr.Current)
		checkoutRepo.AssertNotCalled(t, "RestockOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown order propagates not found", func(t *testing.T) {
		svc, orderRepo, _ := newOrderService(t)
		orderID := uuid.New()

		orderRepo.On("FindByIDForUser", ctx, testUserID, orderID).Return(nil, shared.ErrNotFound)

		_, err := svc.Cancel(ctx, testUserID, orderID, CancelOrderRequest{})

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestOrderService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("moves the order forward", func(t *testing.T) {
		svc, orderRepo, _ := newOrderService(t)
		o := placedOrder(t)

		orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
		orderRepo.On("SaveWithLock", ctx, o).Return(nil)

		resp, err := svc.UpdateStatus(ctx, o.ID, UpdateStatusRequest{Status: "confirmed"})

		require.NoError(t, err)
		assert.Equal(t, "confirmed", resp.Status)
		orderRepo.AssertExpectations(t)
	})

	t.Run("rejects an unknown status", func(t *testing.T) {
		svc, orderRepo, _ := newOrderService(t)

		_, err := svc.UpdateStatus(ctx, uuid.New(), UpdateStatusRequest{Status: "misplaced"})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATUS", domainErr.Code)
		orderRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("rejects a backward move", func(t *testing.T) {
		svc, orderRepo, _ := newOrderService(t)
		o := placedOrder(t)
		require.NoError(t, o.TransitionTo(order.StatusConfirmed, "admin", ""))
		require.NoError(t, o.TransitionTo(order.StatusProcessing, "admin", ""))
		require.NoError(t, o.TransitionTo(order.StatusShipped, "admin", ""))

		orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)

		_, err := svc.UpdateStatus(ctx, o.ID, UpdateStatusRequest{Status: "processing"})

		var transitionErr *order.InvalidTransitionError
		require.ErrorAs(t, err, &transitionErr)
		assert.Equal(t, order.StatusShipped, transitionErr.Current)
		assert.Equal(t, order.StatusProcessing, transitionErr.Requested)
		orderRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("cancelling via status update restores stock", func(t *testing.T) {
		svc, orderRepo, checkoutRepo := newOrderService(t)
		o := placedOrder(t)

		orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
		checkoutRepo.On("RestockOrder", ctx, o, mock.Anything).Return(nil)

		resp, err := svc.UpdateStatus(ctx, o.ID, UpdateStatusRequest{Status: "cancelled", Message: "out of stock"})

		require.NoError(t, err)
		assert.Equal(t, "cancelled", resp.Status)
		checkoutRepo.AssertExpectations(t)
		orderRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("returning a delivered order restores stock", func(t *testing.T) {
		svc, orderRepo, checkoutRepo := newOrderService(t)
		o := placedOrder(t)
		require.NoError(t, o.TransitionTo(order.StatusConfirmed, "admin", ""))
		require.NoError(t, o.TransitionTo(order.StatusProcessing, "admin", ""))
		require.NoError(t, o.TransitionTo(order.StatusShipped, "admin", ""))
		require.NoError(t, o.TransitionTo(order.StatusDelivered, "admin", ""))

		orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
		checkoutRepo.On("RestockOrder", ctx, o, mock.MatchedBy(func(lines []order.StockLine) bool {
			return len(lines) == 1 &&
				lines[0].ProductID == o.Items[0].ProductID &&
				lines[0].Quantity == o.Items[0].Quantity
		})).Return(nil)

		resp, err := svc.UpdateStatus(ctx, o.ID, UpdateStatusRequest{Status: "returned", Message: "damaged in transit"})

		require.NoError(t, err)
		assert.Equal(t, "returned", resp.Status)
		checkoutRepo.AssertExpectations(t)
		orderRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("returning an undelivered order fails without touching stock", func(t *testing.T) {
		svc, orderRepo, checkoutRepo := newOrderService(t)
		o := placedOrder(t)
		require.NoError(t, o.TransitionTo(order.StatusConfirmed, "admin", ""))

		orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)

		_, err := svc.UpdateStatus(ctx, o.ID, UpdateStatusRequest{Status: "returned"})

		var transitionErr *order.InvalidTransitionError
		require.ErrorAs(t, err, &transitionErr)
		assert.Equal(t, order.StatusConfirmed, transitionErr.Current)
		assert.Equal(t, order.StatusReturned, transitionErr.Requested)
		checkoutRepo.AssertNotCalled(t, "RestockOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("retries once after a version conflict", func(t *testing.T) {
		svc, orderRepo, _ := newOrderService(t)
		stale := placedOrder(t)
		fresh := placedOrder(t)
		fresh.ID = stale.ID

		orderRepo.On("FindByID", ctx, stale.ID).Return(stale, nil).Once()
		orderRepo.On("SaveWithLock", ctx, stale).Return(shared.ErrConcurrencyConflict).Once()
		orderRepo.On("FindByID", ctx, stale.ID).Return(fresh, nil).Once()
		orderRepo.On("SaveWithLock", ctx, fresh).Return(nil).Once()

		resp, err := svc.UpdateStatus(ctx, stale.ID, UpdateStatusRequest{Status: "confirmed"})

		require.NoError(t, err)
		assert.Equal(t, "confirmed", resp.Status)
		orderRepo.AssertExpectations(t)
	})

	t.Run("second conflict surfaces", func(t *testing.T) {
		svc, orderRepo, _ := newOrderService(t)
		o := placedOrder(t)

		orderRepo.On("FindByID", ctx, o.ID).Return(o, nil).Once()
		orderRepo.On("SaveWithLock", ctx, o).Return(shared.ErrConcurrencyConflict).Once()
		orderRepo.On("FindByID", ctx, o.ID).Return(placedOrder(t), nil).Once()
		orderRepo.On("SaveWithLock", ctx, mock.Anything).Return(shared.ErrConcurrencyConflict).Once()

		_, err := svc.UpdateStatus(ctx, o.ID, UpdateStatusRequest{Status: "confirmed"})

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestOrderService_ListForUser(t *testing.T) {
	ctx := context.Background()
	svc, orderRepo, _ := newOrderService(t)
	o := placedOrder(t)

	// empty filter falls back to page 1, size 20
	expected := mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 1 && f.PageSize == 20
	})
	orderRepo.On("FindAllByUser", ctx, testUserID, expected).Return([]order.Order{*o}, nil)
	orderRepo.On("CountByUser", ctx, testUserID, expected).Return(int64(1), nil)

	items, total, err := svc.ListForUser(ctx, testUserID, OrderListFilter{})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, o.OrderNumber, items[0].OrderNumber)
	assert.Equal(t, 1, items[0].ItemCount)
}

func TestOrderService_Summary(t *testing.T) {
	ctx := context.Background()
	svc, orderRepo, _ := newOrderService(t)

	for _, status := range order.AllStatuses() {
		count := int64(0)
		if status == order.StatusPending {
			count = 3
		}
		if status == order.StatusDelivered {
			count = 7
		}
		orderRepo.On("CountByStatus", ctx, status).Return(count, nil)
	}

	summary, err := svc.Summary(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(10), summary.Total)
	assert.Equal(t, int64(3), summary.Counts["pending"])
	assert.Equal(t, int64(7), summary.Counts["delivered"])
	assert.Equal(t, int64(0), summary.Counts["shipped"])
}
