package payments

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/cyphera/payment-alerts/internal/client/email"
	"github.com/cyphera/payment-alerts/internal/helpers"

	"go.uber.org/zap"
)

const alertTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2 style="color: #c0392b;">Payment failed</h2>
  <table cellpadding="6" style="border-collapse: collapse;">
    <tr><td><strong>Payment ID</strong></td><td>{{.PaymentID}}</td></tr>
    <tr><td><strong>Event</strong></td><td>{{.EventType}}</td></tr>
    <tr><td><strong>Customer</strong></td><td>{{.CustomerEmail}}{{if .CustomerID}} ({{.CustomerID}}){{end}}</td></tr>
    <tr><td><strong>Amount</strong></td><td>{{.Amount}}</td></tr>
    <tr><td><strong>Reason</strong></td><td>{{.FailureReason}}</td></tr>
    <tr><td><strong>Date</strong></td><td>{{.FailureDate}}</td></tr>
    <tr><td><strong>Status</strong></td><td>{{.Status}}</td></tr>
  </table>
</body>
</html>`

var alertHTML = template.Must(template.New("failed_payment_alert").Parse(alertTemplate))

type alertData struct {
	PaymentID     string
	EventType     string
	CustomerID    string
	CustomerEmail string
	Amount        string
	FailureReason string
	FailureDate   string
	Status        string
}

// AlertNotifier emails an alert for every failed payment.
type AlertNotifier struct {
	sender EmailSender
	from   string
	to     []string
	logger *zap.Logger
}

// NewAlertNotifier creates an AlertNotifier sending from one address to the given recipients.
func NewAlertNotifier(sender EmailSender, from string, to []string, logger *zap.Logger) *AlertNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertNotifier{
		sender: sender,
		from:   from,
		to:     to,
		logger: logger,
	}
}

// Notify renders and sends the alert email.
func (n *AlertNotifier) Notify(ctx context.Context, payment FailedPayment) error {
	html, err := renderAlert(payment)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotifierFailed, err)
	}

	msg := email.Message{
		From:    n.from,
		To:      n.to,
		Subject: AlertSubject(payment),
		HTML:    html,
		Tags: map[string]string{
			"category":   "payment_failed",
			"event_type": payment.EventType,
		},
	}

	id, err := n.sender.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotifierFailed, err)
	}

	n.logger.Info("failure alert sent",
		zap.String("payment_id", payment.PaymentID),
		zap.String("email_id", id),
		zap.Strings("to", n.to))
	return nil
}

// AlertSubject is the subject line used for a failed payment alert.
func AlertSubject(payment FailedPayment) string {
	subject := fmt.Sprintf("Payment failed: %s", helpers.FormatAmount(payment.AmountMinorUnits, payment.Currency))
	if payment.EventType != "" {
		subject += " (" + payment.EventType + ")"
	}
	return subject
}

func renderAlert(payment FailedPayment) (string, error) {
	data := alertData{
		PaymentID:     payment.PaymentID,
		EventType:     payment.EventType,
		CustomerID:    payment.CustomerID,
		CustomerEmail: payment.CustomerEmail,
		Amount:        helpers.FormatAmount(payment.AmountMinorUnits, payment.Currency),
		FailureReason: payment.FailureReason,
		FailureDate:   payment.FailureDate.UTC().Format(time.RFC1123),
		Status:        payment.Status,
	}

	var buf bytes.Buffer
	if err := alertHTML.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render alert template: %w", err)
	}
	return buf.String(), nil
}
