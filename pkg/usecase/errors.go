package usecase

import "errors"

// Sentinel errors for the use case layer
var (
	ErrContactNotFound  = errors.New("contact not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidRequest   = errors.New("invalid request")
)
