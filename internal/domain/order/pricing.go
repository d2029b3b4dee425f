package order

import (
	"github.com/shopkart/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PricingPolicy holds the configurable pricing knobs. The tax rate is
// deliberately not a constant: the original storefront hard-coded 18%
// GST, here it comes from configuration.
type PricingPolicy struct {
	TaxRate               decimal.Decimal // fraction, e.g. 0.18
	FreeShippingThreshold decimal.Decimal // subtotal at or above which shipping is free
	FlatShippingFee       decimal.Decimal // charged below the threshold
}

// DefaultPricingPolicy returns the storefront defaults: 18% tax, free
// shipping at a 2000 subtotal, 200 flat fee below it.
func DefaultPricingPolicy() PricingPolicy {
	return PricingPolicy{
		TaxRate:               decimal.NewFromFloat(0.18),
		FreeShippingThreshold: decimal.NewFromInt(2000),
		FlatShippingFee:       decimal.NewFromInt(200),
	}
}

// Validate checks the policy values are sane
func (p PricingPolicy) Validate() error {
	if p.TaxRate.IsNegative() || p.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return shared.NewDomainError("INVALID_TAX_RATE", "Tax rate must be in [0, 1)")
	}
	if p.FreeShippingThreshold.IsNegative() {
		return shared.NewDomainError("INVALID_THRESHOLD", "Free shipping threshold cannot be negative")
	}
	if p.FlatShippingFee.IsNegative() {
		return shared.NewDomainError("INVALID_SHIPPING_FEE", "Flat shipping fee cannot be negative")
	}
	return nil
}

// Summary holds the computed order totals
type Summary struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Compute calculates the order summary from frozen line items:
// subtotal is the sum of line totals, tax = round(subtotal * rate),
// shipping is zero at or above the free-shipping threshold and the flat
// fee below it, total = subtotal + tax + shipping - discount.
func (p PricingPolicy) Compute(items []OrderItem, discount decimal.Decimal) (Summary, error) {
	if discount.IsNegative() {
		return Summary{}, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal)
	}

	if discount.GreaterThan(subtotal) {
		return Summary{}, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot exceed subtotal")
	}

	tax := subtotal.Mul(p.TaxRate).Round(2)

	shipping := p.FlatShippingFee
	if subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	total := subtotal.Add(tax).Add(shipping).Sub(discount)

	return Summary{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Discount: discount,
		Total:    total,
	}, nil
}
