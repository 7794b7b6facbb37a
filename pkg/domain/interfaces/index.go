package interfaces

import (
	"context"

	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
)

// SimilarityIndex is the external vector index. Search and Delete take the
// same metadata filter so erasure reaches exactly what retrieval could reach.
type SimilarityIndex interface {
	// Upsert stores chunks with their embeddings. chunks and embeddings
	// must have equal length.
	Upsert(ctx context.Context, chunks []*model.DocumentChunk, embeddings [][]float32) error

	// Search returns up to limit candidates most similar to the vector,
	// restricted by the filter server-side. Similarity is in [0,1].
	Search(ctx context.Context, vector []float32, limit int, filter *model.IndexFilter) ([]*model.RetrievalCandidate, error)

	// Delete removes all chunks matching the filter and returns the number
	// of chunks removed. Deleting an absent target returns zero, not an
	// error.
	Delete(ctx context.Context, filter *model.IndexFilter) (int, error)

	// UpdateFlags rewrites the pin and approval flags on every stored chunk
	// of the document so later searches score the current flags, and
	// returns the number of chunks updated.
	UpdateFlags(ctx context.Context, id types.DocumentID, pinned, approved bool) (int, error)

	Close() error
}
