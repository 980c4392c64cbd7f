package model

import "github.com/m-mizutani/goerr/v2"

// Error taxonomy. Callers classify with errors.Is; concrete failures wrap one of these with goerr.Wrap.
var (
	// ErrValidation is bad caller input. Never retried.
	ErrValidation = goerr.New("validation error")

	// ErrGatewayTransient is a retryable AI backend failure (timeout, unavailable, 5xx).
	ErrGatewayTransient = goerr.New("transient gateway error")

	// ErrGatewayPermanent is a non-retryable AI backend failure (malformed response, quota exceeded).
	ErrGatewayPermanent = goerr.New("permanent gateway error")

	// ErrPersistence is a remote document store failure.
	ErrPersistence = goerr.New("persistence error")

	ErrNotFound     = goerr.New("not found")
	ErrAccessDenied = goerr.New("access denied")
)

// Context keys for error values
const (
	UserIDKey        = "user_id"
	FingerprintKey   = "fingerprint"
	RecordIDKey      = "record_id"
	AttributeNameKey = "attribute"
	ProductIDKey     = "product_id"
)
