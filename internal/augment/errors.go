package augment

import "errors"

var (
	// ErrUnknownAlgorithm is returned for an algorithm name with no implementation.
	ErrUnknownAlgorithm = errors.New("augment: unknown algorithm")
	// ErrInvalidParams is returned when a request or algorithm parameter is out of range.
	ErrInvalidParams = errors.New("augment: invalid parameters")
	// ErrDimension is returned when parallel inputs disagree in length.
	ErrDimension = errors.New("augment: dimension mismatch")
	// ErrNoKnownSamples is returned when the known subset is empty.
	ErrNoKnownSamples = errors.New("augment: no known samples")
)
