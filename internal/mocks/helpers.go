package mocks

import (
	"testing"

	"go.uber.org/mock/gomock"
)

// NewMockCustomerLookupForTest creates a new mock CustomerLookup for testing
func NewMockCustomerLookupForTest(t *testing.T) *MockCustomerLookup {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockCustomerLookup(ctrl)
}

// NewMockEmailSenderForTest creates a new mock EmailSender for testing
func NewMockEmailSenderForTest(t *testing.T) *MockEmailSender {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockEmailSender(ctrl)
}

// NewMockRecordCreatorForTest creates a new mock RecordCreator for testing
func NewMockRecordCreatorForTest(t *testing.T) *MockRecordCreator {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockRecordCreator(ctrl)
}

// NewMockNotifierForTest creates a new mock Notifier for testing
func NewMockNotifierForTest(t *testing.T) *MockNotifier {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockNotifier(ctrl)
}

// NewMockRecorderForTest creates a new mock Recorder for testing
func NewMockRecorderForTest(t *testing.T) *MockRecorder {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockRecorder(ctrl)
}
