package model

import (
	"time"

	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
)

// Document is the registry row for one ingested source file. It is the source
// of truth for existence and status: forgetting a document removes its vectors
// and references but keeps this row with status=deleted so the ID can never be
// reused and the audit trail stays coherent.
type Document struct {
	ID         types.DocumentID
	SourceType types.SourceType
	Filename   string
	Sender     string
	ChunkCount int
	IsPinned   bool
	IsApproved bool
	Date       *time.Time
	Status     types.DocumentStatus
	IndexedAt  time.Time
	UpdatedAt  time.Time
}

// Clone returns a deep copy of the document
func (d *Document) Clone() *Document {
	copied := *d
	if d.Date != nil {
		t := *d.Date
		copied.Date = &t
	}
	return &copied
}

// IndexFilter selects chunks in the similarity index by metadata. All set
// fields must match; it is pushed down to the index backend, never evaluated
// client-side.
type IndexFilter struct {
	DocumentID types.DocumentID
	Sender     string
	SourceType types.SourceType
	Since      *time.Time
	Until      *time.Time
}

// IsZero reports whether the filter matches everything
func (f *IndexFilter) IsZero() bool {
	return f == nil || (f.DocumentID == "" && f.Sender == "" && f.SourceType == "" && f.Since == nil && f.Until == nil)
}

// Matches evaluates the filter against a chunk. Backends with server-side
// filtering do not use this; the in-memory index does.
func (f *IndexFilter) Matches(c *DocumentChunk) bool {
	if f == nil {
		return true
	}
	if f.DocumentID != "" && c.DocumentID != f.DocumentID {
		return false
	}
	if f.Sender != "" && c.Sender != f.Sender {
		return false
	}
	if f.SourceType != "" && c.SourceType != f.SourceType {
		return false
	}
	if f.Since != nil && (c.Date == nil || c.Date.Before(*f.Since)) {
		return false
	}
	if f.Until != nil && (c.Date == nil || c.Date.After(*f.Until)) {
		return false
	}
	return true
}
