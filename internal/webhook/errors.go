package webhook

import "errors"

var (
	// ErrSignatureInvalid is returned when a webhook cannot be authenticated.
	// A mismatch is an expected outcome and maps to HTTP 400.
	ErrSignatureInvalid = errors.New("webhook signature invalid")

	// ErrSecretNotConfigured is returned by Verify when no signing secret is set.
	ErrSecretNotConfigured = errors.New("webhook signing secret not configured")

	// ErrDecodeFailed is returned when the body is not a usable event envelope.
	ErrDecodeFailed = errors.New("webhook event decode failed")

	// ErrUnrecognizedEventType marks events the relay does not handle. It is
	// only ever logged.
	ErrUnrecognizedEventType = errors.New("unrecognized webhook event type")
)
