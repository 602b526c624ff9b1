package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cyphera/payment-alerts/internal/webhook"

	"go.uber.org/zap"
)

// Normalizer maps decoded webhook events to FailedPayment records.
type Normalizer struct {
	customers     CustomerLookup
	lookupTimeout time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithClock overrides the clock used for FailureDate.
func WithClock(now func() time.Time) NormalizerOption {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// WithLookupTimeout bounds each customer lookup. A lookup that runs past it
// resolves to UnknownEmail.
func WithLookupTimeout(timeout time.Duration) NormalizerOption {
	return func(n *Normalizer) {
		if timeout > 0 {
			n.lookupTimeout = timeout
		}
	}
}

// NewNormalizer creates a Normalizer. customers may be nil, in which case
// every email resolves to UnknownEmail.
func NewNormalizer(customers CustomerLookup, logger *zap.Logger, opts ...NormalizerOption) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &Normalizer{
		customers:     customers,
		lookupTimeout: DefaultDispatchTimeout,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize returns the FailedPayment for a failure event. The boolean is
// false for events the relay does not act on.
func (n *Normalizer) Normalize(ctx context.Context, event webhook.Event) (FailedPayment, bool) {
	var (
		paymentID  string
		customerID string
		amount     int64
		currency   string
		reason     string
	)

	switch e := event.(type) {
	case webhook.PaymentIntentFailed:
		paymentID = e.IntentID
		customerID = e.CustomerID
		amount = e.Amount
		currency = e.Currency
		reason = orDefault(e.LastPaymentError, ReasonPaymentIntentFallback)
	case webhook.InvoicePaymentFailed:
		paymentID = InvoicePaymentIDPrefix + e.InvoiceID
		customerID = e.CustomerID
		amount = e.AmountDue
		currency = e.Currency
		reason = orDefault(e.LastFinalizationError, ReasonInvoiceFallback)
	case webhook.ChargeFailed:
		paymentID = e.ChargeID
		customerID = e.CustomerID
		amount = e.Amount
		currency = e.Currency
		reason = orDefault(e.FailureMessage, ReasonChargeFallback)
	default:
		eventType := "<nil>"
		if event != nil {
			eventType = event.Type()
		}
		n.logger.Warn("ignoring webhook event",
			zap.String("event_type", eventType),
			zap.Error(webhook.ErrUnrecognizedEventType))
		return FailedPayment{}, false
	}

	if amount < 0 {
		amount = 0
	}

	return FailedPayment{
		PaymentID:        paymentID,
		CustomerID:       customerID,
		CustomerEmail:    n.resolveEmail(ctx, customerID),
		AmountMinorUnits: amount,
		Currency:         strings.ToUpper(currency),
		FailureReason:    reason,
		FailureDate:      n.now(),
		Status:           StatusNew,
		EventType:        event.Type(),
	}, true
}

func (n *Normalizer) resolveEmail(ctx context.Context, customerID string) string {
	if customerID == "" || n.customers == nil {
		return UnknownEmail
	}

	ctx, cancel := context.WithTimeout(ctx, n.lookupTimeout)
	defer cancel()

	email, err := n.lookup(ctx, customerID)
	if err == nil && strings.TrimSpace(email) == "" {
		err = fmt.Errorf("customer %s has no email", customerID)
	}
	if err != nil {
		n.logger.Warn("customer email unavailable",
			zap.String("customer_id", customerID),
			zap.Error(fmt.Errorf("%w: %w", ErrLookupFailed, err)))
		return UnknownEmail
	}
	return email
}

// lookup returns when ctx expires even if the CustomerLookup ignores it.
func (n *Normalizer) lookup(ctx context.Context, customerID string) (string, error) {
	type result struct {
		email string
		err   error
	}
	done := make(chan result, 1)
	go func() {
		email, err := n.customers.RetrieveCustomerEmail(ctx, customerID)
		done <- result{email: email, err: err}
	}()

	select {
	case res := <-done:
		return res.email, res.err
	case <-ctx.Done():
		return "", fmt.Errorf("customer lookup timed out after %s: %w", n.lookupTimeout, ctx.Err())
	}
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
