package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/interfaces"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
	"github.com/flatplanetpl/poc-digital-twin/pkg/utils/errutil"
)

type IngestInput struct {
	Document   *model.Document
	Chunks     []*model.DocumentChunk
	Embeddings [][]float32
}

// Ingest registers a document and stores its chunk vectors. When the
// document carries a sender, the interaction history with that contact is
// updated as a side effect of indexing.
func (uc *UseCases) Ingest(ctx context.Context, in *IngestInput) (*model.Document, error) {
	if in == nil || in.Document == nil {
		return nil, goerr.Wrap(ErrInvalidRequest, "document is required")
	}
	if len(in.Chunks) == 0 {
		return nil, goerr.Wrap(ErrInvalidRequest, "at least one chunk is required")
	}
	if len(in.Chunks) != len(in.Embeddings) {
		return nil, goerr.Wrap(ErrInvalidRequest, "chunks and embeddings length mismatch",
			goerr.V("chunks", len(in.Chunks)), goerr.V("embeddings", len(in.Embeddings)))
	}

	doc := in.Document.Clone()
	doc.ChunkCount = len(in.Chunks)

	registered, err := uc.repo.Document().Register(ctx, doc)
	if err != nil {
		return nil, errutil.Handle(ctx, err, "failed to register document")
	}

	if err := uc.index.Upsert(ctx, in.Chunks, in.Embeddings); err != nil {
		return nil, errutil.Handle(ctx, err, "failed to store chunk vectors")
	}

	if registered.Sender != "" {
		at := time.Now()
		if registered.Date != nil {
			at = *registered.Date
		}
		if _, err := uc.RecordInteraction(ctx, registered.Sender, registered.SourceType.String(), at, 1); err != nil {
			errutil.Handle(ctx, err, "failed to update contact interaction")
		}
	}

	if _, err := uc.repo.Audit().Append(ctx, &model.AuditEntry{
		Operation:  types.OperationIndex,
		EntityType: types.EntityTypeDocument,
		EntityID:   registered.ID.String(),
		Details: map[string]any{
			"source_type": registered.SourceType.String(),
			"chunk_count": registered.ChunkCount,
		},
	}); err != nil {
		errutil.Handle(ctx, err, "failed to audit indexing")
	}

	return registered, nil
}

// ListDocuments returns registry rows matching the filter
func (uc *UseCases) ListDocuments(ctx context.Context, filter *interfaces.DocumentFilter) ([]*model.Document, error) {
	docs, err := uc.repo.Document().List(ctx, filter)
	if err != nil {
		return nil, errutil.Handle(ctx, err, "failed to list documents")
	}
	return docs, nil
}

// SetDocumentFlags updates the pinned and approved flags, which feed the
// approval component of priority scoring. Nil leaves a flag unchanged.
func (uc *UseCases) SetDocumentFlags(ctx context.Context, id types.DocumentID, pinned, approved *bool) (*model.Document, error) {
	if pinned == nil && approved == nil {
		return nil, goerr.Wrap(ErrInvalidRequest, "at least one flag must be set")
	}

	updated, err := uc.repo.Document().SetFlags(ctx, id, pinned, approved)
	if err != nil {
		return nil, goerr.Wrap(ErrDocumentNotFound, "failed to update document flags", goerr.V("id", id))
	}

	// The index stores its own chunk copies; without this rewrite the
	// approval component would keep scoring the ingest-time flags.
	if _, err := uc.index.UpdateFlags(ctx, id, updated.IsPinned, updated.IsApproved); err != nil {
		return nil, errutil.Handle(ctx, err, "failed to propagate flags to the index")
	}

	details := map[string]any{}
	if pinned != nil {
		details["is_pinned"] = *pinned
	}
	if approved != nil {
		details["is_approved"] = *approved
	}
	if _, err := uc.repo.Audit().Append(ctx, &model.AuditEntry{
		Operation:  types.OperationUpdate,
		EntityType: types.EntityTypeDocument,
		EntityID:   id.String(),
		Details:    details,
	}); err != nil {
		errutil.Handle(ctx, err, "failed to audit flag update")
	}

	return updated, nil
}
