package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/cyphera/payment-alerts/internal/helpers"

	"go.uber.org/zap"
)

// Airtable column names.
const (
	FieldPaymentID     = "Payment ID"
	FieldCustomerID    = "Customer ID"
	FieldCustomerEmail = "Customer Email"
	FieldAmount        = "Amount"
	FieldCurrency      = "Currency"
	FieldFailureReason = "Failure Reason"
	FieldFailureDate   = "Failure Date"
	FieldStatus        = "Status"
	FieldEventType     = "Event Type"
)

// TableRecorder writes failed payments as rows of a single table.
type TableRecorder struct {
	store  RecordCreator
	table  string
	logger *zap.Logger
}

// NewTableRecorder creates a TableRecorder writing into table.
func NewTableRecorder(store RecordCreator, table string, logger *zap.Logger) *TableRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TableRecorder{store: store, table: table, logger: logger}
}

// Record creates the row and returns the new record id.
func (r *TableRecorder) Record(ctx context.Context, payment FailedPayment) (string, error) {
	id, err := r.store.CreateRecord(ctx, r.table, RecordFields(payment))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRecorderFailed, err)
	}

	r.logger.Info("failure recorded",
		zap.String("payment_id", payment.PaymentID),
		zap.String("record_id", id),
		zap.String("table", r.table))
	return id, nil
}

// RecordFields maps a FailedPayment to table columns. Amount is in major units.
func RecordFields(payment FailedPayment) map[string]interface{} {
	return map[string]interface{}{
		FieldPaymentID:     payment.PaymentID,
		FieldCustomerID:    payment.CustomerID,
		FieldCustomerEmail: payment.CustomerEmail,
		FieldAmount:        helpers.MinorToMajor(payment.AmountMinorUnits, payment.Currency),
		FieldCurrency:      payment.Currency,
		FieldFailureReason: payment.FailureReason,
		FieldFailureDate:   payment.FailureDate.UTC().Format(time.RFC3339),
		FieldStatus:        payment.Status,
		FieldEventType:     payment.EventType,
	}
}
