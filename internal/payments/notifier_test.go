package payments_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cyphera/payment-alerts/internal/client/email"
	"github.com/cyphera/payment-alerts/internal/mocks"
	"github.com/cyphera/payment-alerts/internal/payments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func samplePayment() payments.FailedPayment {
	return payments.FailedPayment{
		PaymentID:        "ch_123",
		CustomerID:       "cus_1",
		CustomerEmail:    "jane@example.com",
		AmountMinorUnits: 2000,
		Currency:         "USD",
		FailureReason:    "Your card was declined.",
		FailureDate:      fixedNow,
		Status:           payments.StatusNew,
		EventType:        "charge.failed",
	}
}

func TestAlertNotifier_Notify(t *testing.T) {
	sender := mocks.NewMockEmailSenderForTest(t)

	var sent email.Message
	sender.EXPECT().
		Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg email.Message) (string, error) {
			sent = msg
			return "email_1", nil
		}).
		Times(1)

	n := payments.NewAlertNotifier(sender, "Alerts <alerts@example.com>", []string{"ops@example.com"}, nil)
	require.NoError(t, n.Notify(context.Background(), samplePayment()))

	assert.Equal(t, "Alerts <alerts@example.com>", sent.From)
	assert.Equal(t, []string{"ops@example.com"}, sent.To)
	assert.Equal(t, "Payment failed: 20.00 USD (charge.failed)", sent.Subject)
	assert.Contains(t, sent.HTML, "ch_123")
	assert.Contains(t, sent.HTML, "jane@example.com")
	assert.Contains(t, sent.HTML, "Your card was declined.")
	assert.Equal(t, "charge.failed", sent.Tags["event_type"])
}

func TestAlertNotifier_EscapesHTML(t *testing.T) {
	sender := mocks.NewMockEmailSenderForTest(t)

	var sent email.Message
	sender.EXPECT().
		Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg email.Message) (string, error) {
			sent = msg
			return "email_2", nil
		})

	p := samplePayment()
	p.FailureReason = "<script>alert(1)</script>"

	n := payments.NewAlertNotifier(sender, "alerts@example.com", []string{"ops@example.com"}, nil)
	require.NoError(t, n.Notify(context.Background(), p))
	assert.NotContains(t, sent.HTML, "<script>")
}

func TestAlertNotifier_SendError(t *testing.T) {
	sender := mocks.NewMockEmailSenderForTest(t)
	sender.EXPECT().
		Send(gomock.Any(), gomock.Any()).
		Return("", errors.New("resend: 401"))

	n := payments.NewAlertNotifier(sender, "alerts@example.com", []string{"ops@example.com"}, nil)
	err := n.Notify(context.Background(), samplePayment())
	require.Error(t, err)
	assert.True(t, errors.Is(err, payments.ErrNotifierFailed))
}

func TestAlertSubject(t *testing.T) {
	p := samplePayment()
	p.EventType = ""
	p.AmountMinorUnits = 500
	p.Currency = "JPY"
	assert.Equal(t, "Payment failed: 500 JPY", payments.AlertSubject(p))
}
