package types

import "errors"

// Error taxonomy. Every fault in the core maps onto exactly one of these
// classes, and nothing here is ever fatal for the whole process.
var (
	// ErrAuth covers missing, malformed, expired or otherwise invalid
	// credentials. A session hitting it is closed immediately.
	ErrAuth = errors.New("authentication failed")

	// ErrValidation covers rejected requests with no side effect, such as an
	// empty message body or malformed pagination parameters.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound covers unknown room or identity references. Callers report
	// it as a null/empty result, never as a fatal close.
	ErrNotFound = errors.New("not found")

	// ErrResponderUnavailable covers responder timeouts and upstream
	// failures. It is always recovered into a canned bot reply.
	ErrResponderUnavailable = errors.New("responder unavailable")
)
