package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopkart/backend/internal/domain/order"
	"github.com/shopkart/backend/internal/domain/shared"
	"github.com/shopkart/backend/internal/infrastructure/payment"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

// WebhookService reconciles Stripe webhook events against orders
type WebhookService struct {
	config      *payment.StripeConfig
	orderRepo   order.OrderRepository
	idempotency shared.IdempotencyStore
	ttl         time.Duration
	logger      *zap.Logger
}

// WebhookServiceConfig contains the dependencies of WebhookService
type WebhookServiceConfig struct {
	Config      *payment.StripeConfig
	OrderRepo   order.OrderRepository
	Idempotency shared.IdempotencyStore
	TTL         time.Duration
	Logger      *zap.Logger
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(cfg WebhookServiceConfig) *WebhookService {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = shared.DefaultIdempotencyConfig().TTL
	}
	return &WebhookService{
		config:      cfg.Config,
		orderRepo:   cfg.OrderRepo,
		idempotency: cfg.Idempotency,
		ttl:         ttl,
		logger:      cfg.Logger,
	}
}

// WebhookResult contains the result of processing a webhook
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Processed bool   `json:"processed"`
	Message   string `json:"message,omitempty"`
}

// ProcessWebhook verifies, deduplicates and applies a Stripe webhook
// event. A redelivered event ID is acknowledged without touching the
// order again, so a duplicate notification can never confirm an order
// twice or append a second timeline entry.
func (s *WebhookService) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.config.WebhookSecret)
	if err != nil {
		s.logger.Error("Failed to verify webhook signature", zap.Error(err))
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	s.logger.Info("Processing Stripe webhook event",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))

	result := &WebhookResult{
		EventID:   event.ID,
		EventType: string(event.Type),
		Processed: true,
	}

	processed, err := s.idempotency.IsProcessed(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("idempotency check failed: %w", err)
	}
	if processed {
		s.logger.Info("Duplicate webhook event, skipping",
			zap.String("event_id", event.ID))
		result.Processed = false
		result.Message = "Event already processed"
		return result, nil
	}

	switch event.Type {
	case "payment_intent.succeeded":
		err = s.handlePaymentSucceeded(ctx, event)
	case "payment_intent.payment_failed", "payment_intent.canceled":
		err = s.handlePaymentFailed(ctx, event)
	case "charge.refunded":
		err = s.handleChargeRefunded(ctx, event)
	default:
		s.logger.Debug("Unhandled webhook event type",
			zap.String("event_type", string(event.Type)))
		result.Message = "Event type not handled"
	}

	if err != nil {
		s.logger.Error("Failed to process webhook event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		result.Processed = false
		result.Message = err.Error()
		return result, err
	}

	// the event is recorded only after its effects are applied, so a
	// transient failure above leaves it unclaimed and Stripe's
	// redelivery gets a fresh attempt. Racing duplicate deliveries are
	// harmless: reconciliation is a state-level no-op the second time.
	if _, err := s.idempotency.MarkProcessed(ctx, event.ID, s.ttl); err != nil {
		s.logger.Warn("Failed to record processed webhook event",
			zap.String("event_id", event.ID),
			zap.Error(err))
	}

	return result, nil
}

// handlePaymentSucceeded marks the payment completed and confirms the
// order when it is still pending
func (s *WebhookService) handlePaymentSucceeded(ctx context.Context, event stripe.Event) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return fmt.Errorf("failed to unmarshal payment intent: %w", err)
	}

	return s.reconcile(ctx, intent.ID, func(o *order.Order) error {
		changed := o.MarkPaymentCompleted()
		if o.Status == order.StatusPending {
			if err := o.TransitionTo(order.StatusConfirmed, "payment provider", "Payment received"); err != nil {
				return err
			}
			changed = true
		}
		if !changed {
			return errNothingToApply
		}
		return nil
	})
}

// handlePaymentFailed records the failure. The order stays pending so
// the customer can retry or cancel.
func (s *WebhookService) handlePaymentFailed(ctx context.Context, event stripe.Event) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return fmt.Errorf("failed to unmarshal payment intent: %w", err)
	}

	return s.reconcile(ctx, intent.ID, func(o *order.Order) error {
		if !o.MarkPaymentFailed() {
			return errNothingToApply
		}
		return nil
	})
}

// handleChargeRefunded records a full or partial refund
func (s *WebhookService) handleChargeRefunded(ctx context.Context, event stripe.Event) error {
	var charge stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		return fmt.Errorf("failed to unmarshal charge: %w", err)
	}

	intentID := ""
	if charge.PaymentIntent != nil {
		intentID = charge.PaymentIntent.ID
	}
	if intentID == "" {
		s.logger.Warn("Charge has no payment intent, skipping",
			zap.String("charge_id", charge.ID))
		return nil
	}

	return s.reconcile(ctx, intentID, func(o *order.Order) error {
		o.MarkPaymentRefunded(!charge.Refunded)
		return nil
	})
}

// errNothingToApply signals that reconciliation found the order already
// in the target state, so no save is needed
var errNothingToApply = fmt.Errorf("nothing to apply")

// reconcile loads the order for a payment intent, applies the mutation
// and saves with the optimistic version check, retrying once when a
// concurrent writer wins the first attempt. An unknown intent ID is
// acknowledged without error: the notification may belong to a payment
// created outside this system and Stripe should not keep retrying it.
func (s *WebhookService) reconcile(ctx context.Context, intentID string, apply func(*order.Order) error) error {
	for attempt := 0; attempt < 2; attempt++ {
		o, err := s.orderRepo.FindByPaymentIntentID(ctx, intentID)
		if err != nil {
			if err == shared.ErrNotFound {
				s.logger.Warn("No order for payment intent, skipping",
					zap.String("intent_id", intentID))
				return nil
			}
			return fmt.Errorf("failed to find order: %w", err)
		}

		if err := apply(o); err != nil {
			if err == errNothingToApply {
				s.logger.Info("Order already reconciled",
					zap.String("order_id", o.ID.String()),
					zap.String("intent_id", intentID))
				return nil
			}
			return err
		}

		err = s.orderRepo.SaveWithLock(ctx, o)
		if err == nil {
			s.logger.Info("Payment reconciled",
				zap.String("order_id", o.ID.String()),
				zap.String("order_number", o.OrderNumber),
				zap.String("intent_id", intentID),
				zap.String("payment_status", string(o.Payment.Status)))
			return nil
		}
		if err != shared.ErrConcurrencyConflict {
			return fmt.Errorf("failed to save order: %w", err)
		}

		s.logger.Warn("Concurrent order update during reconciliation, retrying",
			zap.String("order_id", o.ID.String()))
	}

	return shared.ErrConcurrencyConflict
}
