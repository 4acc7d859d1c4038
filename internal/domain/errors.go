package domain

import "errors"

var (
	// ErrInvalidSearchType signals an unknown search type discriminator.
	ErrInvalidSearchType = errors.New("invalid search type")
	// ErrMissingQuery signals a search request without a query where one is required.
	ErrMissingQuery = errors.New("query is required")
	// ErrMissingImage signals an image search request without an image payload.
	ErrMissingImage = errors.New("image is required")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrModelProviderError signals a failure of the external embedding/completion API.
	ErrModelProviderError = errors.New("model provider error")
)
