package assistant

import "errors"

var (
	// ErrRateLimited maps a 429 from the upstream model endpoint. Surfaced
	// to the user, never retried automatically.
	ErrRateLimited = errors.New("assistant is rate limited")

	// ErrQuotaExceeded maps a 402 carrying the limit_reached flag.
	ErrQuotaExceeded = errors.New("assistant quota exceeded")

	// ErrServiceUnavailable maps a 402 without the limit_reached flag.
	ErrServiceUnavailable = errors.New("assistant service unavailable")

	// ErrTransport is a network-level failure while reading the stream.
	ErrTransport = errors.New("assistant stream transport failure")
)
