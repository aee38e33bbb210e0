package meta

import "errors"

var (
	// ErrUnsupported is returned for Go values with no Value variant.
	ErrUnsupported = errors.New("meta: unsupported value type")
	// ErrMalformed indicates a recognized prefix followed by an unparsable payload.
	ErrMalformed = errors.New("meta: malformed value")
)
