package explain

import (
	"time"

	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
)

// Input carries everything the recorder needs. All score data comes from the
// ranking pass itself; the recorder performs no scoring of its own, so the
// explanation can never disagree with the answer.
type Input struct {
	Results     []*model.RankedResult
	Window      *model.ContextWindow
	Timings     model.Timings
	Filters     map[string]string
	LLMProvider string
	LLMModel    string
	FetchK      int
	TopK        int
}

// Record builds the explanation trace of one query. It is purely additive and
// never affects the answer.
func Record(in Input) *model.Explanation {
	retrieved := make([]model.RetrievalExplanation, 0, len(in.Results))
	for _, r := range in.Results {
		retrieved = append(retrieved, model.RetrievalExplanation{
			DocumentID:           r.Chunk.DocumentID,
			Filename:             r.Chunk.Filename,
			SourceType:           r.Chunk.SourceType,
			Similarity:           r.Similarity,
			PriorityScore:        r.Priority.Total,
			FinalScore:           r.FinalScore,
			TypeContribution:     r.Priority.TypeComponent,
			RecencyContribution:  r.Priority.RecencyComponent,
			ApprovalContribution: r.Priority.ApprovalComponent,
			Rank:                 r.Rank,
		})
	}

	explanation := &model.Explanation{
		Retrieved:   retrieved,
		Timings:     in.Timings,
		Filters:     in.Filters,
		LLMProvider: in.LLMProvider,
		LLMModel:    in.LLMModel,
		FetchK:      in.FetchK,
		TopK:        in.TopK,
		Timestamp:   time.Now(),
	}

	if in.Window != nil {
		explanation.Context = model.ContextExplanation{
			TokensUsed:        in.Window.TokensUsed,
			MaxTokens:         in.Window.MaxTokens,
			Utilization:       in.Window.Utilization(),
			FragmentCount:     len(in.Window.Fragments),
			OverflowDocuments: in.Window.OverflowDocuments,
			OverflowTokens:    in.Window.OverflowTokens,
		}
	}

	return explanation
}
