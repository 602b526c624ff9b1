package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/cyphera/payment-alerts/internal/constants"
	"github.com/cyphera/payment-alerts/internal/middleware"
	"github.com/cyphera/payment-alerts/internal/payments"
	"github.com/cyphera/payment-alerts/internal/webhook"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebhookHandler receives Stripe webhooks and dispatches failed payments.
type WebhookHandler struct {
	verifier        *webhook.Verifier
	allowUnverified bool
	normalizer      *payments.Normalizer
	fanout          *payments.Fanout
	activity        *ActivityTracker
}

// NewWebhookHandler creates a WebhookHandler. When verifier has no secret,
// webhooks are accepted only if allowUnverified is set.
func NewWebhookHandler(verifier *webhook.Verifier, allowUnverified bool, normalizer *payments.Normalizer, fanout *payments.Fanout, activity *ActivityTracker) *WebhookHandler {
	return &WebhookHandler{
		verifier:        verifier,
		allowUnverified: allowUnverified,
		normalizer:      normalizer,
		fanout:          fanout,
		activity:        activity,
	}
}

// VerificationMode describes how webhook signatures are handled.
func VerificationMode(verifier *webhook.Verifier, allowUnverified bool) string {
	switch {
	case verifier.Enabled():
		return "enabled"
	case allowUnverified:
		return "insecure"
	default:
		return "disabled"
	}
}

// HandleStripeWebhook godoc
// @Summary      Receive a Stripe webhook
// @Description  Verifies, decodes and dispatches one webhook delivery.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature  header    string  false  "v1=<hex> or t=<unix>,v1=<hex>"
// @Success      200               {object}  map[string]bool
// @Failure      400               {object}  ErrorResponse
// @Router       /webhook/stripe [post]
//
// Signature and payload failures return 400; every accepted delivery is
// acknowledged with 200 whatever the outcome of its side effects.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	ctx := c.Request.Context()
	log := middleware.LogWithCorrelationID(ctx)

	body, ok := middleware.GetRawBody(c)
	if !ok {
		var err error
		if body, err = io.ReadAll(c.Request.Body); err != nil {
			sendError(c, http.StatusBadRequest, "Unable to read webhook body", err)
			return
		}
	}

	switch {
	case h.verifier.Enabled():
		if err := h.verifier.Verify(body, c.GetHeader(constants.StripeSignatureHeader)); err != nil {
			sendError(c, http.StatusBadRequest, "Webhook signature verification failed", err)
			return
		}
	case h.allowUnverified:
		log.Warn("Accepting unverified webhook, no signing secret configured",
			zap.String("client_ip", c.ClientIP()))
	default:
		sendError(c, http.StatusBadRequest, "Webhook signing secret not configured", webhook.ErrSecretNotConfigured)
		return
	}

	event, err := webhook.Decode(body)
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid webhook payload", err)
		return
	}

	log.Info("Webhook received",
		zap.String("event_id", event.EventID()),
		zap.String("event_type", event.Type()))
	h.activity.Touch(time.Now())

	payment, ok := h.normalizer.Normalize(ctx, event)
	if ok {
		outcome := h.fanout.Dispatch(ctx, payment)
		log.Info("Failed payment processed",
			zap.String("event_id", event.EventID()),
			zap.String("payment_id", payment.PaymentID),
			zap.String("event_type", payment.EventType),
			zap.Bool("alert_sent", outcome.NotifierErr == nil),
			zap.Bool("recorded", outcome.RecorderErr == nil),
			zap.String("record_id", outcome.RecordID))
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
