package ranker

import (
	"context"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/interfaces"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model/config"
	"github.com/flatplanetpl/poc-digital-twin/pkg/service/priority"
)

// Outcome is the result of one ranking pass. NoCandidates distinguishes "the
// index had nothing for this query" from an empty-but-ambiguous list.
type Outcome struct {
	Results      []*model.RankedResult
	NoCandidates bool
}

// Ranker merges similarity search with priority scoring. It fetches a wider
// candidate pool than requested and re-ranks it, which is what lets a pinned
// decision with modest similarity surface above a pile of near-duplicate
// low-value matches.
type Ranker struct {
	llm    gollem.LLMClient
	index  interfaces.SimilarityIndex
	scorer *priority.Scorer
	cfg    *config.Ranking
}

// New creates a Ranker. The configuration is captured at construction;
// callers needing different weights construct their own Ranker.
func New(llm gollem.LLMClient, index interfaces.SimilarityIndex, cfg *config.Ranking) *Ranker {
	return &Ranker{
		llm:    llm,
		index:  index,
		scorer: priority.New(cfg),
		cfg:    cfg,
	}
}

// Embed converts the query text to a vector
func (r *Ranker) Embed(ctx context.Context, query string) ([]float32, error) {
	embeddings, err := r.llm.GenerateEmbedding(ctx, model.EmbeddingDimension, []string{query})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate query embedding")
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, goerr.New("embedding service returned empty result")
	}

	vector := make([]float32, len(embeddings[0]))
	for i, v := range embeddings[0] {
		vector[i] = float32(v)
	}
	return vector, nil
}

// Rank embeds the query, fetches fetch_k candidates under the given filter,
// scores and re-ranks them, and returns the top results. A positive topK
// overrides the configured default, capped at fetch_k.
func (r *Ranker) Rank(ctx context.Context, query string, filter *model.IndexFilter, topK int) (*Outcome, error) {
	vector, err := r.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.RankVector(ctx, vector, filter, topK)
}

// RankVector ranks candidates for an already-embedded query
func (r *Ranker) RankVector(ctx context.Context, vector []float32, filter *model.IndexFilter, topK int) (*Outcome, error) {
	candidates, err := r.index.Search(ctx, vector, r.cfg.FetchK, filter)
	if err != nil {
		return nil, goerr.Wrap(err, "similarity search failed")
	}
	if len(candidates) == 0 {
		return &Outcome{NoCandidates: true}, nil
	}

	now := time.Now()
	results := make([]*model.RankedResult, 0, len(candidates))
	for _, c := range candidates {
		breakdown := r.scorer.Score(ctx, c.Chunk, now)
		results = append(results, &model.RankedResult{
			Chunk:      c.Chunk,
			Similarity: c.Similarity,
			Priority:   breakdown,
			FinalScore: r.cfg.SimilarityWeight*c.Similarity + r.cfg.PriorityWeight*breakdown.Total,
		})
	}

	sortResults(results)

	limit := r.cfg.EffectiveTopK(topK)
	if len(results) > limit {
		results = results[:limit]
	}
	for i, res := range results {
		res.Rank = i + 1
	}

	return &Outcome{Results: results}, nil
}

// sortResults orders by final score descending with deterministic tie
// breaking: similarity desc, then date desc, then document ID asc.
func sortResults(results []*model.RankedResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.FinalScore != b.FinalScore {
			return a.FinalScore > b.FinalScore
		}
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		ad, bd := a.Chunk.Date, b.Chunk.Date
		switch {
		case ad != nil && bd != nil && !ad.Equal(*bd):
			return ad.After(*bd)
		case ad != nil && bd == nil:
			return true
		case ad == nil && bd != nil:
			return false
		}
		return a.Chunk.DocumentID < b.Chunk.DocumentID
	})
}
