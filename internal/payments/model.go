// Package payments turns decoded webhook events into FailedPayment records
// and delivers them to the alert and record collaborators.
package payments

import "time"

const (
	// UnknownEmail is used when the customer email cannot be resolved.
	UnknownEmail = "Unknown"
	// StatusNew is the initial status of every recorded failure.
	StatusNew = "New"

	ReasonPaymentIntentFallback = "Unknown error"
	ReasonInvoiceFallback       = "Invoice payment failed"
	ReasonChargeFallback        = "Charge failed"

	// InvoicePaymentIDPrefix distinguishes invoice ids from intent and charge ids.
	InvoicePaymentIDPrefix = "inv_"
)

// FailedPayment is the canonical record produced for every failure event.
type FailedPayment struct {
	PaymentID        string    `json:"paymentId"`
	CustomerID       string    `json:"customerId"`
	CustomerEmail    string    `json:"customerEmail"`
	AmountMinorUnits int64     `json:"amount"`
	Currency         string    `json:"currency"`
	FailureReason    string    `json:"failureReason"`
	FailureDate      time.Time `json:"failureDate"`
	Status           string    `json:"status"`
	EventType        string    `json:"eventType"`
}
