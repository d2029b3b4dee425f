package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	paymentapp "github.com/shopkart/backend/internal/application/payment"
	"github.com/shopkart/backend/internal/interfaces/http/dto"
)

// maxWebhookBodyBytes caps the webhook payload size
const maxWebhookBodyBytes = 1 << 16

// WebhookHandler receives payment provider notifications
type WebhookHandler struct {
	BaseHandler
	webhookService *paymentapp.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(webhookService *paymentapp.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService}
}

// RegisterRoutes registers the webhook endpoint. It lives outside the
// versioned API group because the provider URL is configured once.
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/stripe", h.HandleStripe)
}

// HandleStripe verifies and processes a Stripe event. Signature
// failures get 400 so a forged payload is never retried; processing
// failures get 500 so Stripe redelivers.
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		h.BadRequest(c, "Missing Stripe-Signature header")
		return
	}

	result, err := h.webhookService.ProcessWebhook(c.Request.Context(), payload, signature)
	if err != nil {
		if result == nil {
			h.BadRequest(c, "Webhook signature verification failed")
			return
		}
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(result.Message))
		return
	}

	h.Success(c, result)
}
