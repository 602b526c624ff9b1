package payments

import "errors"

var (
	ErrLookupFailed   = errors.New("customer lookup failed")
	ErrNotifierFailed = errors.New("failure alert not delivered")
	ErrRecorderFailed = errors.New("failure record not created")
)
