package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopkart/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pricingItems(t *testing.T, price int64, quantity int) []OrderItem {
	t.Helper()
	item, err := NewOrderItem(uuid.New(), "Wireless Mouse", "WM-001",
		valueobject.NewMoneyINR(decimal.NewFromInt(price)), quantity)
	require.NoError(t, err)
	return []OrderItem{*item}
}

func TestPricingPolicy_Compute(t *testing.T) {
	policy := DefaultPricingPolicy()

	t.Run("free shipping at the threshold", func(t *testing.T) {
		// 2 x 1000: subtotal 2000, 18% tax 360, free shipping, total 2360
		summary, err := policy.Compute(pricingItems(t, 1000, 2), decimal.Zero)

		require.NoError(t, err)
		assert.True(t, summary.Subtotal.Equal(decimal.NewFromInt(2000)), "subtotal %s", summary.Subtotal)
		assert.True(t, summary.Tax.Equal(decimal.NewFromInt(360)), "tax %s", summary.Tax)
		assert.True(t, summary.Shipping.IsZero(), "shipping %s", summary.Shipping)
		assert.True(t, summary.Total.Equal(decimal.NewFromInt(2360)), "total %s", summary.Total)
	})

	t.Run("flat fee below the threshold", func(t *testing.T) {
		// 1 x 1000: subtotal 1000, tax 180, shipping 200, total 1380
		summary, err := policy.Compute(pricingItems(t, 1000, 1), decimal.Zero)

		require.NoError(t, err)
		assert.True(t, summary.Shipping.Equal(decimal.NewFromInt(200)))
		assert.True(t, summary.Total.Equal(decimal.NewFromInt(1380)), "total %s", summary.Total)
	})

	t.Run("tax is rounded to two decimals", func(t *testing.T) {
		// 3 x 33.33: subtotal 99.99, raw tax 17.9982 -> 18.00
		item, err := NewOrderItem(uuid.New(), "USB Cable", "UC-001",
			valueobject.NewMoneyINR(decimal.RequireFromString("33.33")), 3)
		require.NoError(t, err)

		summary, err := policy.Compute([]OrderItem{*item}, decimal.Zero)

		require.NoError(t, err)
		assert.True(t, summary.Tax.Equal(decimal.RequireFromString("18.00")), "tax %s", summary.Tax)
	})

	t.Run("discount reduces the total", func(t *testing.T) {
		summary, err := policy.Compute(pricingItems(t, 1000, 2), decimal.NewFromInt(100))

		require.NoError(t, err)
		assert.True(t, summary.Discount.Equal(decimal.NewFromInt(100)))
		assert.True(t, summary.Total.Equal(decimal.NewFromInt(2260)))
	})

	t.Run("rejects negative discount", func(t *testing.T) {
		_, err := policy.Compute(pricingItems(t, 1000, 1), decimal.NewFromInt(-1))
		assert.Error(t, err)
	})

	t.Run("rejects discount above subtotal", func(t *testing.T) {
		_, err := policy.Compute(pricingItems(t, 1000, 1), decimal.NewFromInt(1001))
		assert.Error(t, err)
	})
}

func TestPricingPolicy_Validate(t *testing.T) {
	assert.NoError(t, DefaultPricingPolicy().Validate())

	bad := DefaultPricingPolicy()
	bad.TaxRate = decimal.NewFromInt(1)
	assert.Error(t, bad.Validate())

	bad = DefaultPricingPolicy()
	bad.FlatShippingFee = decimal.NewFromInt(-1)
	assert.Error(t, bad.Validate())
}
