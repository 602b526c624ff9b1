package payments

import (
	"context"

	"github.com/cyphera/payment-alerts/internal/client/email"
)

//go:generate mockgen -destination=../mocks/mock_payments.go -package=mocks github.com/cyphera/payment-alerts/internal/payments CustomerLookup,EmailSender,RecordCreator,Notifier,Recorder

// CustomerLookup resolves a processor customer id to an email address.
type CustomerLookup interface {
	RetrieveCustomerEmail(ctx context.Context, customerID string) (string, error)
}

// EmailSender delivers a single email and returns the provider message id.
type EmailSender interface {
	Send(ctx context.Context, msg email.Message) (string, error)
}

// RecordCreator inserts one row into a named table and returns its id.
type RecordCreator interface {
	CreateRecord(ctx context.Context, table string, fields map[string]interface{}) (string, error)
}

// Notifier emits a human-facing alert for a failed payment.
type Notifier interface {
	Notify(ctx context.Context, payment FailedPayment) error
}

// Recorder persists a failed payment and returns the created record id.
type Recorder interface {
	Record(ctx context.Context, payment FailedPayment) (string, error)
}
