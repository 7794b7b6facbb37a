package priority

import (
	"context"
	"time"

	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model/config"
	"github.com/flatplanetpl/poc-digital-twin/pkg/utils/logging"
)

// Scorer computes document priority from metadata and the current time.
// It is a pure function over its inputs; the configuration is injected at
// construction so concurrent callers with different weight tables never
// interfere.
type Scorer struct {
	weights   map[string]int
	maxWeight int
	maxDays   int
}

// New creates a Scorer from the ranking configuration
func New(cfg *config.Ranking) *Scorer {
	table := cfg.EffectiveTypeWeights()
	weights := make(map[string]int, len(table))
	for st, w := range table {
		weights[st.String()] = w
	}
	return &Scorer{
		weights:   weights,
		maxWeight: cfg.MaxTypeWeight(),
		maxDays:   cfg.MaxDays,
	}
}

// Score computes the priority breakdown of a chunk at the given time.
//
// Each component is normalized to [0,1] and the total is their mean:
//   - type: raw source type weight over the largest weight in the table;
//     unknown types score 0, they are not an error
//   - approval: pinned > approved > automatic, over the pinned bonus
//   - recency: linear decay from 1 (today) to 0 (maxDays or older);
//     undated content scores 0 and never gets a recency boost
func (s *Scorer) Score(ctx context.Context, chunk *model.DocumentChunk, now time.Time) model.PriorityBreakdown {
	var breakdown model.PriorityBreakdown

	if s.maxWeight > 0 {
		breakdown.TypeComponent = float64(s.weights[chunk.SourceType.String()]) / float64(s.maxWeight)
	}

	bonus := 0
	switch {
	case chunk.IsPinned:
		bonus = config.PinnedBonus
	case chunk.IsApproved:
		bonus = config.ApprovedBonus
	}
	breakdown.ApprovalComponent = float64(bonus) / float64(config.PinnedBonus)

	if chunk.Date == nil {
		logging.From(ctx).Debug("chunk has no date, recency scored as zero",
			"document_id", chunk.DocumentID, "chunk_id", chunk.ChunkID)
	} else {
		daysOld := now.Sub(*chunk.Date).Hours() / 24
		if daysOld < 0 {
			// Future-dated content counts as today.
			daysOld = 0
		}
		recency := 1 - daysOld/float64(s.maxDays)
		if recency < 0 {
			recency = 0
		}
		breakdown.RecencyComponent = recency
	}

	breakdown.Total = (breakdown.TypeComponent + breakdown.ApprovalComponent + breakdown.RecencyComponent) / 3

	return breakdown
}
