package trade

import "errors"

var (
	// ErrForbidden is returned when the path secret does not match.
	ErrForbidden = errors.New("forbidden")

	// ErrMalformedRequest is returned when the body is not a JSON document.
	ErrMalformedRequest = errors.New("bad request")

	// ErrStorageUnavailable is returned while there is no live storage connection.
	ErrStorageUnavailable = errors.New("service unavailable")

	// ErrStorageWrite is returned when an insert was attempted and failed.
	ErrStorageWrite = errors.New("internal error")
)
