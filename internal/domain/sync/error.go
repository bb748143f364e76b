package sync

import "errors"

var (
	ErrNotProvisioned    = errors.New("endpoint, terminal id or auth key is empty")
	ErrUnexpectedStatus  = errors.New("unexpected response status")
	ErrMalformedResponse = errors.New("malformed response body")
	ErrResponseTooLarge  = errors.New("response body too large")
	ErrUpdatePending     = errors.New("server still reports a pending update")
)
