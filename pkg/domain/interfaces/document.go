package interfaces

import (
	"context"

	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
)

// DocumentFilter selects registry rows. Zero fields match everything.
type DocumentFilter struct {
	Status     types.DocumentStatus
	SourceType types.SourceType
	Sender     string
	Limit      int
}

// DocumentRepository is the durable registry of ingested documents
type DocumentRepository interface {
	// Register creates or refreshes a registry row. Re-registering an ID
	// that was forgotten is refused: deleted IDs are never reused.
	Register(ctx context.Context, doc *model.Document) (*model.Document, error)

	// Get retrieves a registry row by ID
	Get(ctx context.Context, id types.DocumentID) (*model.Document, error)

	// List retrieves registry rows matching the filter, newest first
	List(ctx context.Context, filter *DocumentFilter) ([]*model.Document, error)

	// MarkDeleted transitions the given documents to status=deleted and
	// returns how many rows actually changed state. Rows already deleted
	// are counted as zero; rows are never removed.
	MarkDeleted(ctx context.Context, ids []types.DocumentID) (int, error)

	// SetFlags updates the pinned/approved flags. Nil leaves a flag unchanged.
	SetFlags(ctx context.Context, id types.DocumentID, pinned, approved *bool) (*model.Document, error)
}
