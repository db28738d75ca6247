package ingestion

import "errors"

var (
	// ErrCatalogRequired is returned when a catalog is not provided.
	ErrCatalogRequired = errors.New("catalog required")

	// ErrIndexRequired is returned when an index is not provided.
	ErrIndexRequired = errors.New("index required")

	// ErrEmptyCatalog is returned when there is nothing to index.
	ErrEmptyCatalog = errors.New("catalog is empty")

	// ErrInvalidMaxAttempts is returned when the retry count is not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than 0")
)
