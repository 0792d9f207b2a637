package billing

import "errors"

var (
	ErrMissingAPIKey      = errors.New("billing: provider API key is required")
	ErrInvalidEnvironment = errors.New("billing: invalid provider environment")
	ErrMissingPriceID     = errors.New("billing: price ID is required")
	ErrMissingCustomerID  = errors.New("billing: customer ID is required")
	ErrRequestFailed      = errors.New("billing: provider request failed")
	ErrNoTransactionID    = errors.New("billing: no transaction ID returned from provider")
)
