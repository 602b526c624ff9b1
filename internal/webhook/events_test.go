package webhook

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Variants(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Event
	}{
		{
			name: "payment intent failed with error and customer",
			body: `{
				"id": "evt_pi",
				"object": "event",
				"type": "payment_intent.payment_failed",
				"data": {"object": {
					"id": "pi_123",
					"object": "payment_intent",
					"amount": 2000,
					"currency": "usd",
					"customer": "cus_abc",
					"last_payment_error": {"message": "Your card was declined."}
				}}
			}`,
			want: PaymentIntentFailed{
				ID:               "evt_pi",
				IntentID:         "pi_123",
				Amount:           2000,
				Currency:         "usd",
				CustomerID:       "cus_abc",
				LastPaymentError: "Your card was declined.",
			},
		},
		{
			name: "payment intent failed without optional fields",
			body: `{"id":"evt_pi2","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_456","amount":500,"currency":"eur","customer":null}}}`,
			want: PaymentIntentFailed{ID: "evt_pi2", IntentID: "pi_456", Amount: 500, Currency: "eur"},
		},
		{
			name: "invoice payment failed",
			body: `{
				"id": "evt_in",
				"type": "invoice.payment_failed",
				"data": {"object": {
					"id": "in_123",
					"object": "invoice",
					"amount_due": 4999,
					"currency": "gbp",
					"customer": "cus_inv",
					"last_finalization_error": {"message": "Tax location invalid"}
				}}
			}`,
			want: InvoicePaymentFailed{
				ID:                    "evt_in",
				InvoiceID:             "in_123",
				AmountDue:             4999,
				Currency:              "gbp",
				CustomerID:            "cus_inv",
				LastFinalizationError: "Tax location invalid",
			},
		},
		{
			name: "charge failed",
			body: `{
				"id": "evt_ch",
				"type": "charge.failed",
				"data": {"object": {
					"id": "ch_123",
					"object": "charge",
					"amount": 1500,
					"currency": "usd",
					"customer": "cus_ch",
					"failure_message": "Insufficient funds"
				}}
			}`,
			want: ChargeFailed{
				ID:             "evt_ch",
				ChargeID:       "ch_123",
				Amount:         1500,
				Currency:       "usd",
				CustomerID:     "cus_ch",
				FailureMessage: "Insufficient funds",
			},
		},
		{
			name: "unrecognized type",
			body: `{"id":"evt_cu","type":"customer.updated","data":{"object":{"id":"cus_1","object":"customer"}}}`,
			want: Unrecognized{ID: "evt_cu", RawType: "customer.updated"},
		},
		{
			name: "unrecognized type without data",
			body: `{"id":"evt_x","type":"ping"}`,
			want: Unrecognized{ID: "evt_x", RawType: "ping"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Type(), got.Type())
			assert.Equal(t, tt.want.EventID(), got.EventID())
		})
	}
}

func TestDecode_Failures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ``},
		{name: "not json", body: `<xml/>`},
		{name: "json array", body: `[1,2,3]`},
		{name: "missing type", body: `{"id":"evt_1","data":{"object":{}}}`},
		{name: "known type without data", body: `{"id":"evt_1","type":"charge.failed"}`},
		{name: "known type with null object", body: `{"id":"evt_1","type":"charge.failed","data":{"object":null}}`},
		{name: "known type without object id", body: `{"id":"evt_1","type":"invoice.payment_failed","data":{"object":{"amount_due":10}}}`},
		{name: "amount has wrong type", body: `{"id":"evt_1","type":"charge.failed","data":{"object":{"id":"ch_1","amount":"lots"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.body))
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, ErrDecodeFailed))
		})
	}
}

func TestEventTypes(t *testing.T) {
	assert.Equal(t, "payment_intent.payment_failed", PaymentIntentFailed{}.Type())
	assert.Equal(t, "invoice.payment_failed", InvoicePaymentFailed{}.Type())
	assert.Equal(t, "charge.failed", ChargeFailed{}.Type())
	assert.Equal(t, "customer.updated", Unrecognized{RawType: "customer.updated"}.Type())
}
