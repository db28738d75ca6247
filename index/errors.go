package index

import "errors"

var (
	// ErrIndexUnavailable is returned when the index has not been built.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrQueryFailed is returned when a query could not be scored.
	ErrQueryFailed = errors.New("vector query failed")

	// ErrNoProducts is returned when Build is called with an empty catalog.
	ErrNoProducts = errors.New("no products to index")
)
