package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
	"github.com/flatplanetpl/poc-digital-twin/pkg/service/explain"
	"github.com/flatplanetpl/poc-digital-twin/pkg/utils/errutil"
)

type SearchOutput struct {
	Results     []*model.RankedResult
	Explanation *model.Explanation
}

// Search runs the retrieval and re-ranking pass without answer generation.
// The full score breakdown of every result is returned, which makes it the
// tool for inspecting why documents rank the way they do.
func (uc *UseCases) Search(ctx context.Context, query string, filter *model.IndexFilter, topK int) (*SearchOutput, error) {
	if query == "" {
		return nil, goerr.Wrap(ErrInvalidRequest, "query text is required")
	}
	if uc.ground == nil {
		return nil, goerr.New("LLM client is not configured")
	}

	start := time.Now()

	retrievalCtx, cancel := context.WithTimeout(ctx, uc.cfg.RetrievalTimeout)
	defer cancel()

	outcome, err := uc.ranker.Rank(retrievalCtx, query, filter, topK)
	if err != nil {
		return nil, errutil.Handle(ctx, err, "search failed")
	}
	elapsed := time.Since(start)

	uc.auditQuery(ctx, types.OperationSearch, "", &QueryInput{Query: query, Filter: filter}, nil, len(outcome.Results))

	return &SearchOutput{
		Results: outcome.Results,
		Explanation: explain.Record(explain.Input{
			Results: outcome.Results,
			Timings: model.Timings{
				Retrieval: elapsed,
				Total:     elapsed,
			},
			Filters:     filterLabels(filter),
			LLMProvider: uc.llmProvider,
			LLMModel:    uc.llmModel,
			FetchK:      uc.cfg.FetchK,
			TopK:        uc.cfg.EffectiveTopK(topK),
		}),
	}, nil
}
