package types

import (
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// DocumentID identifies a source document. It is stable across all chunks of
// one source file and is never reused, even after the document is forgotten.
type DocumentID string

// NewDocumentID generates a new UUID v4 DocumentID
func NewDocumentID() DocumentID {
	return DocumentID(uuid.New().String())
}

// Validate checks if the DocumentID is non-empty
func (d DocumentID) Validate() error {
	if d == "" {
		return goerr.New("document ID cannot be empty")
	}
	return nil
}

// String returns the string representation of DocumentID
func (d DocumentID) String() string {
	return string(d)
}

// ChunkID identifies a single chunk within a document
type ChunkID string

// NewChunkID generates a new UUID v4 ChunkID
func NewChunkID() ChunkID {
	return ChunkID(uuid.New().String())
}

// String returns the string representation of ChunkID
func (c ChunkID) String() string {
	return string(c)
}

// DocumentStatus represents the registry lifecycle state of a document
type DocumentStatus string

const (
	DocumentStatusActive DocumentStatus = "active"
	// DocumentStatusDeleted marks a forgotten document. The registry row is
	// kept for audit continuity; only vectors and references are removed.
	DocumentStatusDeleted DocumentStatus = "deleted"
)

// IsValid checks if the document status is valid
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusActive, DocumentStatusDeleted:
		return true
	default:
		return false
	}
}

// String returns the string representation of the document status
func (s DocumentStatus) String() string {
	return string(s)
}
