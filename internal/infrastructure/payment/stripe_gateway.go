package payment

import (
	"context"
	"fmt"

	"github.com/shopkart/backend/internal/domain/order"
	"github.com/shopkart/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"go.uber.org/zap"
)

// StripeGateway implements the payment gateway port on Stripe payment
// intents. Amounts cross the wire in the currency's smallest unit
// (paise for INR).
type StripeGateway struct {
	config *StripeConfig
	logger *zap.Logger
}

// NewStripeGateway creates a new Stripe gateway
func NewStripeGateway(config *StripeConfig, logger *zap.Logger) (*StripeGateway, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	config.InitStripeClient()

	return &StripeGateway{
		config: config,
		logger: logger,
	}, nil
}

// CreateIntent creates a payment intent for the order total
func (g *StripeGateway) CreateIntent(ctx context.Context, o *order.Order, currency string) (*order.PaymentIntent, error) {
	if currency == "" {
		currency = g.config.Currency
	}

	g.logger.Debug("Creating Stripe payment intent",
		zap.String("order_number", o.OrderNumber),
		zap.String("amount", o.Total.String()),
		zap.String("currency", currency))

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinorUnits(o.Total)),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"order_id":     o.ID.String(),
			"order_number": o.OrderNumber,
		},
	}
	params.Context = ctx

	intent, err := paymentintent.New(params)
	if err != nil {
		g.logger.Error("Failed to create Stripe payment intent",
			zap.String("order_number", o.OrderNumber),
			zap.Error(err))
		return nil, fmt.Errorf("%w: failed to create payment intent: %v", shared.ErrPaymentProvider, err)
	}

	g.logger.Info("Created Stripe payment intent",
		zap.String("order_number", o.OrderNumber),
		zap.String("intent_id", intent.ID),
		zap.String("status", string(intent.Status)))

	return mapIntent(intent), nil
}

// RetrieveIntent fetches the current state of a payment intent
func (g *StripeGateway) RetrieveIntent(ctx context.Context, intentID string) (*order.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := paymentintent.Get(intentID, params)
	if err != nil {
		g.logger.Error("Failed to retrieve Stripe payment intent",
			zap.String("intent_id", intentID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: failed to retrieve payment intent: %v", shared.ErrPaymentProvider, err)
	}

	return mapIntent(intent), nil
}

func mapIntent(intent *stripe.PaymentIntent) *order.PaymentIntent {
	return &order.PaymentIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
		Amount:       fromMinorUnits(intent.Amount),
		Currency:     string(intent.Currency),
	}
}

// toMinorUnits converts a decimal amount to the currency's smallest unit
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// fromMinorUnits converts smallest-unit amounts back to a decimal
func fromMinorUnits(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Div(decimal.NewFromInt(100))
}

// Ensure StripeGateway implements PaymentGateway
var _ order.PaymentGateway = (*StripeGateway)(nil)
