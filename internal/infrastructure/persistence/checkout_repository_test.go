package persistence

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
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCheckoutTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&catalog.Product{},
		&cart.CartItem{},
		&order.Order{},
		&order.OrderItem{},
		&order.TimelineEntry{},
	)
	require.NoError(t, err)

	return db
}

func seedProduct(t *testing.T, db *gorm.DB, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct("Wireless Mouse", "WM-001", "",
		valueobject.NewMoneyINR(decimal.NewFromInt(1000)), stock)
	require.NoError(t, err)
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedCartItem(t *testing.T, db *gorm.DB, userID uuid.UUID, p *catalog.Product, quantity int) {
	t.Helper()
	item, err := cart.NewCartItem(userID, p.ID, p.Name, quantity, p.GetPriceMoney())
	require.NoError(t, err)
	require.NoError(t, db.Create(item).Error)
}

func buildOrder(t *testing.T, userID uuid.UUID, p *catalog.Product, quantity int) (*order.Order, []order.StockLine) {
	t.Helper()
	item, err := order.NewOrderItem(p.ID, p.Name, p.SKU, p.GetPriceMoney(), quantity)
	require.NoError(t, err)
	items := []order.OrderItem{*item}

	summary, err := order.DefaultPricingPolicy().Compute(items, decimal.Zero)
	require.NoError(t, err)

	o, err := order.NewOrder(userID, "ORD-2026-00042", items, summary, order.ShippingAddress{
		FullName:   "Asha Verma",
		Phone:      "+91 98765 43210",
		Line1:      "42 MG Road",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
		Country:    "India",
	}, order.MethodCashOnDelivery, "customer")
	require.NoError(t, err)

	lines := []order.StockLine{{ProductID: p.ID, ProductName: p.Name, Quantity: quantity}}
	return o, lines
}

func productStock(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var p catalog.Product
	require.NoError(t, db.First(&p, "id = ?", id).Error)
	return p.StockQuantity
}

func cartCount(t *testing.T, db *gorm.DB, userID uuid.UUID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&cart.CartItem{}).Where("user_id = ?", userID).Count(&count).Error)
	return count
}

func TestGormCheckoutRepository_PlaceOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("reserves stock, persists the order and clears the cart", func(t *testing.T) {
		db := setupCheckoutTestDB(t)
		repo := NewGormCheckoutRepository(db)
		orderRepo := NewGormOrderRepository(db)
		userID := uuid.New()

		p := seedProduct(t, db, 10)
		seedCartItem(t, db, userID, p, 2)
		o, lines := buildOrder(t, userID, p, 2)

		require.NoError(t, repo.PlaceOrder(ctx, o, lines))

		assert.Equal(t, 8, productStock(t, db, p.ID))
		assert.Equal(t, int64(0), cartCount(t, db, userID))

		found, err := orderRepo.FindByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusPending, found.Status)
		require.Len(t, found.Items, 1)
		assert.Equal(t, 2, found.Items[0].Quantity)
		require.Len(t, found.Timeline, 1)
	})

	t.Run("a failed stock guard rolls everything back", func(t *testing.T) {
		db := setupCheckoutTestDB(t)
		repo := NewGormCheckoutRepository(db)
		userID := uuid.New()

		mouse := seedProduct(t, db, 10)
		cable, err := catalog.NewProduct("USB Cable", "UC-001", "",
			valueobject.NewMoneyINR(decimal.NewFromInt(300)), 1)
		require.NoError(t, err)
		require.NoError(t, db.Create(cable).Error)

		seedCartItem(t, db, userID, mouse, 2)

		o, _ := buildOrder(t, userID, mouse, 2)
		lines := []order.StockLine{
			{ProductID: mouse.ID, ProductName: mouse.Name, Quantity: 2},
			{ProductID: cable.ID, ProductName: cable.Name, Quantity: 3},
		}

		err = repo.PlaceOrder(ctx, o, lines)

		var stockErr *catalog.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, cable.ID, stockErr.ProductID)
		assert.Equal(t, 1, stockErr.Available)

		// the first decrement was rolled back with the rest
		assert.Equal(t, 10, productStock(t, db, mouse.ID))
		assert.Equal(t, 1, productStock(t, db, cable.ID))
		assert.Equal(t, int64(1), cartCount(t, db, userID))

		var count int64
		require.NoError(t, db.Model(&order.Order{}).Count(&count).Error)
		assert.Equal(t, int64(0), count)
	})

	t.Run("a taken order number rolls back and surfaces as a duplicate", func(t *testing.T) {
		db := setupCheckoutTestDB(t)
		repo := NewGormCheckoutRepository(db)
		userID := uuid.New()
		otherUserID := uuid.New()

		p := seedProduct(t, db, 10)
		seedCartItem(t, db, userID, p, 2)
		first, firstLines := buildOrder(t, userID, p, 2)
		require.NoError(t, repo.PlaceOrder(ctx, first, firstLines))
		require.Equal(t, 8, productStock(t, db, p.ID))

		seedCartItem(t, db, otherUserID, p, 3)
		second, secondLines := buildOrder(t, otherUserID, p, 3)
		second.OrderNumber = first.OrderNumber

		err := repo.PlaceOrder(ctx, second, secondLines)

		require.ErrorIs(t, err, order.ErrDuplicateOrderNumber)

		// the loser's stock decrement and cart clear were rolled back
		assert.Equal(t, 8, productStock(t, db, p.ID))
		assert.Equal(t, int64(1), cartCount(t, db, otherUserID))

		var count int64
		require.NoError(t, db.Model(&order.Order{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}

func TestGormCheckoutRepository_RestockOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("restores the reserved quantities", func(t *testing.T) {
		db := setupCheckoutTestDB(t)
		repo := NewGormCheckoutRepository(db)
		orderRepo := NewGormOrderRepository(db)
		userID := uuid.New()

		p := seedProduct(t, db, 10)
		seedCartItem(t, db, userID, p, 2)
		o, lines := buildOrder(t, userID, p, 2)
		require.NoError(t, repo.PlaceOrder(ctx, o, lines))
		require.Equal(t, 8, productStock(t, db, p.ID))

		require.NoError(t, o.Cancel("customer", "changed my mind"))
		require.NoError(t, repo.RestockOrder(ctx, o, lines))

		assert.Equal(t, 10, productStock(t, db, p.ID))

		found, err := orderRepo.FindByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusCancelled, found.Status)
		assert.Equal(t, "changed my mind", found.CancelReason)
		require.Len(t, found.Timeline, 2)
	})

	t.Run("a version conflict restores no stock", func(t *testing.T) {
		db := setupCheckoutTestDB(t)
		repo := NewGormCheckoutRepository(db)
		userID := uuid.New()

		p := seedProduct(t, db, 10)
		o, lines := buildOrder(t, userID, p, 2)
		require.NoError(t, repo.PlaceOrder(ctx, o, lines))

		require.NoError(t, o.Cancel("customer", ""))
		o.Version = 99

		err := repo.RestockOrder(ctx, o, lines)

		assert.Equal(t, shared.ErrConcurrencyConflict, err)
		assert.Equal(t, 8, productStock(t, db, p.ID))
	})
}
