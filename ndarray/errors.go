package ndarray

import "errors"

var (
	// ErrShape indicates that an array shape does not fit the operation.
	ErrShape = errors.New("ndarray: shape mismatch")
	// ErrDType indicates an unknown or mismatched element type.
	ErrDType = errors.New("ndarray: unsupported dtype")
	// ErrUnsupported is returned when a Go value cannot be converted into an Array.
	ErrUnsupported = errors.New("ndarray: unsupported value")
	// ErrSelection indicates a selection that does not fit the array shape.
	ErrSelection = errors.New("ndarray: invalid selection")
)
