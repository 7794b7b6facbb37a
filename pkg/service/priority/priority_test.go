package priority_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model/config"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
	"github.com/flatplanetpl/poc-digital-twin/pkg/service/priority"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func newChunk(st types.SourceType, date *time.Time) *model.DocumentChunk {
	return &model.DocumentChunk{
		DocumentID: types.NewDocumentID(),
		ChunkID:    types.NewChunkID(),
		SourceType: st,
		Text:       "some text",
		Date:       date,
	}
}

func daysAgo(now time.Time, days int) *time.Time {
	t := now.AddDate(0, 0, -days)
	return &t
}

func TestScore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	scorer := priority.New(config.DefaultRanking())

	t.Run("type component normalizes against the largest weight", func(t *testing.T) {
		chunk := newChunk(types.SourceTypeDecision, nil)
		breakdown := scorer.Score(ctx, chunk, now)

		// decision=100 against profile=120
		gt.B(t, almostEqual(breakdown.TypeComponent, 100.0/120.0)).True()
	})

	t.Run("unknown source type scores zero instead of failing", func(t *testing.T) {
		chunk := newChunk(types.SourceType("telepathy"), daysAgo(now, 0))
		breakdown := scorer.Score(ctx, chunk, now)

		gt.V(t, breakdown.TypeComponent).Equal(0.0)
		gt.B(t, breakdown.Total > 0).True() // recency still contributes
	})

	t.Run("missing date scores zero recency", func(t *testing.T) {
		chunk := newChunk(types.SourceTypeNote, nil)
		breakdown := scorer.Score(ctx, chunk, now)

		gt.V(t, breakdown.RecencyComponent).Equal(0.0)
	})

	t.Run("recency decays linearly to zero at max days", func(t *testing.T) {
		fresh := scorer.Score(ctx, newChunk(types.SourceTypeNote, daysAgo(now, 0)), now)
		gt.B(t, almostEqual(fresh.RecencyComponent, 1.0)).True()

		half := scorer.Score(ctx, newChunk(types.SourceTypeNote, daysAgo(now, 182)), now)
		gt.B(t, half.RecencyComponent > 0.49 && half.RecencyComponent < 0.51).True()

		stale := scorer.Score(ctx, newChunk(types.SourceTypeNote, daysAgo(now, 365)), now)
		gt.V(t, stale.RecencyComponent).Equal(0.0)

		ancient := scorer.Score(ctx, newChunk(types.SourceTypeNote, daysAgo(now, 3650)), now)
		gt.V(t, ancient.RecencyComponent).Equal(0.0)
	})

	t.Run("future date counts as today", func(t *testing.T) {
		future := now.AddDate(0, 0, 7)
		breakdown := scorer.Score(ctx, newChunk(types.SourceTypeNote, &future), now)

		gt.B(t, almostEqual(breakdown.RecencyComponent, 1.0)).True()
	})

	t.Run("pinned outranks approved outranks automatic", func(t *testing.T) {
		pinned := newChunk(types.SourceTypeNote, nil)
		pinned.IsPinned = true
		pinned.IsApproved = true
		approved := newChunk(types.SourceTypeNote, nil)
		approved.IsApproved = true
		plain := newChunk(types.SourceTypeNote, nil)

		p := scorer.Score(ctx, pinned, now)
		a := scorer.Score(ctx, approved, now)
		n := scorer.Score(ctx, plain, now)

		gt.B(t, almostEqual(p.ApprovalComponent, 1.0)).True()
		gt.B(t, almostEqual(a.ApprovalComponent, 30.0/50.0)).True()
		gt.V(t, n.ApprovalComponent).Equal(0.0)
		gt.B(t, p.ApprovalComponent > a.ApprovalComponent).True()
		gt.B(t, a.ApprovalComponent > n.ApprovalComponent).True()
	})

	t.Run("total is the mean of the three components", func(t *testing.T) {
		chunk := newChunk(types.SourceTypeEmail, daysAgo(now, 30))
		chunk.IsApproved = true
		breakdown := scorer.Score(ctx, chunk, now)

		want := (breakdown.TypeComponent + breakdown.RecencyComponent + breakdown.ApprovalComponent) / 3
		gt.B(t, almostEqual(breakdown.Total, want)).True()
	})

	t.Run("custom weight table changes normalization", func(t *testing.T) {
		cfg := config.DefaultRanking()
		cfg.TypeWeights = map[types.SourceType]int{
			types.SourceTypeNote:  10,
			types.SourceTypeEmail: 5,
		}
		custom := priority.New(cfg)

		note := custom.Score(ctx, newChunk(types.SourceTypeNote, nil), now)
		email := custom.Score(ctx, newChunk(types.SourceTypeEmail, nil), now)
		decision := custom.Score(ctx, newChunk(types.SourceTypeDecision, nil), now)

		gt.B(t, almostEqual(note.TypeComponent, 1.0)).True()
		gt.B(t, almostEqual(email.TypeComponent, 0.5)).True()
		// decision is absent from the override table
		gt.V(t, decision.TypeComponent).Equal(0.0)
	})
}
