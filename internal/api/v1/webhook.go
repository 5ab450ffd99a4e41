package v1

import (
	"net/http"

	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/integration/stripe/webhook"
	"github.com/clubroll/clubroll/internal/logger"
	"github.com/gin-gonic/gin"
)

// WebhookHandler receives external processor webhook deliveries
type WebhookHandler struct {
	handler *webhook.Handler
	log     *logger.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(handler *webhook.Handler, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		handler: handler,
		log:     log,
	}
}

// HandleStripeWebhook verifies and processes one Stripe delivery. A non-2xx
// response makes Stripe redeliver, so processing failures are returned as
// errors and duplicate deliveries are absorbed downstream.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Failed to read webhook payload").
			Mark(ierr.ErrValidation))
		return
	}

	event, accountKey, err := h.handler.VerifyAndParse(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.log.Warnw("rejected webhook delivery", "error", err)
		c.Error(err)
		return
	}

	if err := h.handler.HandleEvent(c.Request.Context(), event, accountKey); err != nil {
		h.log.Errorw("failed to process webhook event",
			"error", err,
			"event_id", event.ID,
			"event_type", event.Type,
		)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
