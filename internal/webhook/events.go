package webhook

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v82"
)

// Event is the decoded form of a webhook delivery. It is one of
// PaymentIntentFailed, InvoicePaymentFailed, ChargeFailed or Unrecognized.
type Event interface {
	// EventID is the processor's event identifier.
	EventID() string
	// Type is the processor event type string.
	Type() string

	isEvent()
}

// PaymentIntentFailed is decoded from payment_intent.payment_failed.
type PaymentIntentFailed struct {
	ID       string
	IntentID string
	Amount   int64
	// Currency is the processor's lowercase ISO 4217 code.
	Currency string
	// CustomerID is empty when the intent has no customer.
	CustomerID string
	// LastPaymentError is empty when the processor recorded no error message.
	LastPaymentError string
}

// InvoicePaymentFailed is decoded from invoice.payment_failed.
type InvoicePaymentFailed struct {
	ID                    string
	InvoiceID             string
	AmountDue             int64
	Currency              string
	CustomerID            string
	LastFinalizationError string
}

// ChargeFailed is decoded from charge.failed.
type ChargeFailed struct {
	ID             string
	ChargeID       string
	Amount         int64
	Currency       string
	CustomerID     string
	FailureMessage string
}

// Unrecognized is any event type the relay does not act on.
type Unrecognized struct {
	ID      string
	RawType string
}

func (e PaymentIntentFailed) EventID() string  { return e.ID }
func (e InvoicePaymentFailed) EventID() string { return e.ID }
func (e ChargeFailed) EventID() string         { return e.ID }
func (e Unrecognized) EventID() string         { return e.ID }

func (PaymentIntentFailed) Type() string  { return string(stripe.EventTypePaymentIntentPaymentFailed) }
func (InvoicePaymentFailed) Type() string { return string(stripe.EventTypeInvoicePaymentFailed) }
func (ChargeFailed) Type() string         { return string(stripe.EventTypeChargeFailed) }
func (e Unrecognized) Type() string       { return e.RawType }

func (PaymentIntentFailed) isEvent()  {}
func (InvoicePaymentFailed) isEvent() {}
func (ChargeFailed) isEvent()         {}
func (Unrecognized) isEvent()         {}

// Decode parses a raw webhook body into an Event. The Stripe SDK types are
// used for the envelope and the nested objects, then mapped into the variant
// carrying only what the relay needs.
func Decode(body []byte) (Event, error) {
	var event stripe.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrDecodeFailed)
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentPaymentFailed:
		var intent stripe.PaymentIntent
		if err := decodeObject(event, &intent); err != nil {
			return nil, err
		}
		if intent.ID == "" {
			return nil, fmt.Errorf("%w: %s without payment intent id", ErrDecodeFailed, event.Type)
		}
		out := PaymentIntentFailed{
			ID:         event.ID,
			IntentID:   intent.ID,
			Amount:     intent.Amount,
			Currency:   string(intent.Currency),
			CustomerID: customerID(intent.Customer),
		}
		if intent.LastPaymentError != nil {
			out.LastPaymentError = intent.LastPaymentError.Msg
		}
		return out, nil

	case stripe.EventTypeInvoicePaymentFailed:
		var invoice stripe.Invoice
		if err := decodeObject(event, &invoice); err != nil {
			return nil, err
		}
		if invoice.ID == "" {
			return nil, fmt.Errorf("%w: %s without invoice id", ErrDecodeFailed, event.Type)
		}
		out := InvoicePaymentFailed{
			ID:         event.ID,
			InvoiceID:  invoice.ID,
			AmountDue:  invoice.AmountDue,
			Currency:   string(invoice.Currency),
			CustomerID: customerID(invoice.Customer),
		}
		if invoice.LastFinalizationError != nil {
			out.LastFinalizationError = invoice.LastFinalizationError.Msg
		}
		return out, nil

	case stripe.EventTypeChargeFailed:
		var charge stripe.Charge
		if err := decodeObject(event, &charge); err != nil {
			return nil, err
		}
		if charge.ID == "" {
			return nil, fmt.Errorf("%w: %s without charge id", ErrDecodeFailed, event.Type)
		}
		return ChargeFailed{
			ID:             event.ID,
			ChargeID:       charge.ID,
			Amount:         charge.Amount,
			Currency:       string(charge.Currency),
			CustomerID:     customerID(charge.Customer),
			FailureMessage: charge.FailureMessage,
		}, nil

	default:
		return Unrecognized{ID: event.ID, RawType: string(event.Type)}, nil
	}
}

func decodeObject(event stripe.Event, target interface{}) error {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return fmt.Errorf("%w: %s has no data object", ErrDecodeFailed, event.Type)
	}
	if err := json.Unmarshal(event.Data.Raw, target); err != nil {
		return fmt.Errorf("%w: failed to unmarshal %s data: %v", ErrDecodeFailed, event.Type, err)
	}
	return nil
}

func customerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}
