package envelopes

import "errors"

var (
	// ErrEnvelopesNotFound is returned when no envelopes are cached for a key
	ErrEnvelopesNotFound = errors.New("envelopes not found")

	// ErrInvalidKey is returned when a cache key is empty
	ErrInvalidKey = errors.New("invalid cache key")

	// ErrInvalidEnvelopeData is returned when an envelope set has no data
	ErrInvalidEnvelopeData = errors.New("invalid envelope data")
)
