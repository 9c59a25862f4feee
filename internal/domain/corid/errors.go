package corid

import "errors"

var (
	// ErrMalformedIdentifier is returned when an identifier cannot be parsed.
	ErrMalformedIdentifier = errors.New("malformed identifier")

	// ErrSequenceExhausted is returned when the per-facility daily sequence
	// would overflow its bit field.
	ErrSequenceExhausted = errors.New("daily sequence exhausted")
)
