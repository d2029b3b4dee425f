package order

import (
	"context"

	"github.com/shopspring/decimal"
)

// PaymentIntent is the provider-agnostic view of a payment intent
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       decimal.Decimal
	Currency     string
}

// PaymentGateway is the port to the external payment provider. Card
// checkouts create an intent at placement; webhooks reconcile the
// outcome later. Failures surface as shared.ErrPaymentProvider wrapped
// errors.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, o *Order, currency string) (*PaymentIntent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*PaymentIntent, error)
}
