package tax

import "errors"

var (
	// ErrInvalidInput is returned for negative, non-finite or unparsable amounts.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedCategory is returned for unknown tax kinds, service types or taxpayer statuses.
	ErrUnsupportedCategory = errors.New("unsupported category")
)
