package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
)

// DocumentChunk is one indexed fragment of a source document. All chunks of
// one source file share the same DocumentID; ChunkID is unique per chunk.
type DocumentChunk struct {
	DocumentID types.DocumentID
	ChunkID    types.ChunkID
	SourceType types.SourceType
	Text       string
	// Date is the content date from the source itself (message sent, note
	// written). Nil when the source carries no usable date; undated content
	// never receives a recency boost.
	Date       *time.Time
	IsPinned   bool
	IsApproved bool
	Sender     string
	Filename   string
	CreatedAt  time.Time
}

// Validate checks the invariants required before a chunk enters the registry
func (c *DocumentChunk) Validate() error {
	if err := c.DocumentID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid chunk")
	}
	if c.ChunkID == "" {
		return goerr.New("chunk ID cannot be empty", goerr.V("documentID", c.DocumentID))
	}
	if c.Text == "" {
		return goerr.New("chunk text cannot be empty", goerr.V("chunkID", c.ChunkID))
	}
	return nil
}

// Clone returns a deep copy of the chunk
func (c *DocumentChunk) Clone() *DocumentChunk {
	copied := *c
	if c.Date != nil {
		d := *c.Date
		copied.Date = &d
	}
	return &copied
}
