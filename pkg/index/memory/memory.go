package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/interfaces"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
)

type record struct {
	chunk     *model.DocumentChunk
	embedding []float32
}

// Index is an in-memory similarity index for development and tests.
// Similarity is cosine, shifted into [0,1].
type Index struct {
	mu      sync.RWMutex
	records map[types.ChunkID]*record
}

var _ interfaces.SimilarityIndex = &Index{}

// New creates an empty index
func New() *Index {
	return &Index{
		records: make(map[types.ChunkID]*record),
	}
}

func (x *Index) Upsert(ctx context.Context, chunks []*model.DocumentChunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return goerr.New("chunks and embeddings length mismatch",
			goerr.V("chunks", len(chunks)), goerr.V("embeddings", len(embeddings)))
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	for i, chunk := range chunks {
		if err := chunk.Validate(); err != nil {
			return goerr.Wrap(err, "invalid chunk for upsert")
		}
		embedding := make([]float32, len(embeddings[i]))
		copy(embedding, embeddings[i])
		x.records[chunk.ChunkID] = &record{
			chunk:     chunk.Clone(),
			embedding: embedding,
		}
	}
	return nil
}

func (x *Index) Search(ctx context.Context, vector []float32, limit int, filter *model.IndexFilter) ([]*model.RetrievalCandidate, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	candidates := make([]*model.RetrievalCandidate, 0, len(x.records))
	for _, rec := range x.records {
		if !filter.Matches(rec.chunk) {
			continue
		}
		candidates = append(candidates, &model.RetrievalCandidate{
			Chunk:      rec.chunk.Clone(),
			Similarity: similarity(vector, rec.embedding),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		return candidates[i].Chunk.ChunkID < candidates[j].Chunk.ChunkID
	})

	if limit < len(candidates) {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func (x *Index) Delete(ctx context.Context, filter *model.IndexFilter) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	deleted := 0
	for id, rec := range x.records {
		if filter.Matches(rec.chunk) {
			delete(x.records, id)
			deleted++
		}
	}
	return deleted, nil
}

func (x *Index) UpdateFlags(ctx context.Context, id types.DocumentID, pinned, approved bool) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	updated := 0
	for _, rec := range x.records {
		if rec.chunk.DocumentID != id {
			continue
		}
		rec.chunk.IsPinned = pinned
		rec.chunk.IsApproved = approved
		updated++
	}
	return updated, nil
}

func (x *Index) Close() error {
	return nil
}

// similarity is cosine similarity mapped from [-1,1] into [0,1]
func similarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}

	return (dot/denom + 1) / 2
}
