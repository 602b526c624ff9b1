package payments_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cyphera/payment-alerts/internal/mocks"
	"github.com/cyphera/payment-alerts/internal/payments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestTableRecorder_Record(t *testing.T) {
	store := mocks.NewMockRecordCreatorForTest(t)

	var fields map[string]interface{}
	store.EXPECT().
		CreateRecord(gomock.Any(), "Failed Payments", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, f map[string]interface{}) (string, error) {
			fields = f
			return "rec_1", nil
		}).
		Times(1)

	r := payments.NewTableRecorder(store, "Failed Payments", nil)
	id, err := r.Record(context.Background(), samplePayment())
	require.NoError(t, err)

	assert.Equal(t, "rec_1", id)
	assert.Equal(t, "ch_123", fields[payments.FieldPaymentID])
	assert.Equal(t, "cus_1", fields[payments.FieldCustomerID])
	assert.Equal(t, "jane@example.com", fields[payments.FieldCustomerEmail])
	assert.InDelta(t, 20.0, fields[payments.FieldAmount], 0.0001)
	assert.Equal(t, "USD", fields[payments.FieldCurrency])
	assert.Equal(t, "2026-03-14T09:26:53Z", fields[payments.FieldFailureDate])
	assert.Equal(t, "New", fields[payments.FieldStatus])
	assert.Equal(t, "charge.failed", fields[payments.FieldEventType])
}

func TestTableRecorder_Error(t *testing.T) {
	store := mocks.NewMockRecordCreatorForTest(t)
	store.EXPECT().
		CreateRecord(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", errors.New("422 INVALID_VALUE_FOR_COLUMN"))

	r := payments.NewTableRecorder(store, "Failed Payments", nil)
	_, err := r.Record(context.Background(), samplePayment())
	require.Error(t, err)
	assert.True(t, errors.Is(err, payments.ErrRecorderFailed))
}

func TestRecordFields_ZeroDecimalCurrency(t *testing.T) {
	p := samplePayment()
	p.AmountMinorUnits = 500
	p.Currency = "JPY"

	fields := payments.RecordFields(p)
	assert.InDelta(t, 500.0, fields[payments.FieldAmount], 0.0001)
}
