package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
	"github.com/flatplanetpl/poc-digital-twin/pkg/service/explain"
	"github.com/flatplanetpl/poc-digital-twin/pkg/service/grounding"
	"github.com/flatplanetpl/poc-digital-twin/pkg/utils/async"
	"github.com/flatplanetpl/poc-digital-twin/pkg/utils/errutil"
	"github.com/flatplanetpl/poc-digital-twin/pkg/utils/logging"
)

type QueryInput struct {
	Query  string
	Filter *model.IndexFilter

	// TopK overrides the configured result count when positive.
	TopK int
}

type QueryOutput struct {
	Response     *model.GroundedResponse
	Results      []*model.RankedResult
	Explanation  *model.Explanation
	TranscriptID model.TranscriptID
}

// Query answers a question from indexed personal data: retrieve and re-rank,
// build the context window, generate a grounded answer, persist the
// transcript, and audit the operation without recording any content.
func (uc *UseCases) Query(ctx context.Context, in *QueryInput) (*QueryOutput, error) {
	if in == nil || in.Query == "" {
		return nil, goerr.Wrap(ErrInvalidRequest, "query text is required")
	}
	if uc.ground == nil {
		return nil, goerr.New("LLM client is not configured")
	}

	totalStart := time.Now()

	retrievalCtx, cancelRetrieval := context.WithTimeout(ctx, uc.cfg.RetrievalTimeout)
	defer cancelRetrieval()

	outcome, err := uc.ranker.Rank(retrievalCtx, in.Query, in.Filter, in.TopK)
	if err != nil {
		return nil, errutil.Handle(ctx, err, "retrieval failed")
	}
	retrievalDur := time.Since(totalStart)

	var (
		response *model.GroundedResponse
		window   *model.ContextWindow
		genDur   time.Duration
	)

	if outcome.NoCandidates {
		response = grounding.NoContextResponse()
	} else {
		window = grounding.BuildContext(outcome.Results, uc.cfg.MaxContextTokens)

		genStart := time.Now()
		genCtx, cancelGen := context.WithTimeout(ctx, uc.cfg.GenerationTimeout)
		response, err = uc.ground.Generate(genCtx, window, in.Query)
		cancelGen()
		genDur = time.Since(genStart)

		if err != nil {
			// Retrieval already succeeded; the caller still gets the ranked
			// sources and the explanation, just no generated answer.
			errutil.Handle(ctx, err, "answer generation failed")
			response = &model.GroundedResponse{
				AnswerText: model.GenerationFailedAnswer,
				Citations:  []model.Citation{},
				IsGrounded: false,
			}
		}
	}

	out := &QueryOutput{
		Response: response,
		Results:  outcome.Results,
		Explanation: explain.Record(explain.Input{
			Results: outcome.Results,
			Window:  window,
			Timings: model.Timings{
				Retrieval:  retrievalDur,
				Generation: genDur,
				Total:      time.Since(totalStart),
			},
			Filters:     filterLabels(in.Filter),
			LLMProvider: uc.llmProvider,
			LLMModel:    uc.llmModel,
			FetchK:      uc.cfg.FetchK,
			TopK:        uc.cfg.EffectiveTopK(in.TopK),
		}),
	}

	if response.AnswerText != model.GenerationFailedAnswer {
		transcript, err := uc.repo.Transcript().Save(ctx, &model.Transcript{
			Question:  in.Query,
			Answer:    response.AnswerText,
			Citations: response.Citations,
		})
		if err != nil {
			errutil.Handle(ctx, err, "failed to save transcript")
		} else {
			out.TranscriptID = transcript.ID
		}
	}

	uc.auditQuery(ctx, types.OperationQuery, out.TranscriptID, in, response, len(outcome.Results))

	return out, nil
}

// auditQuery records that a query or search happened. Details carry counts
// only; the audit log never stores query or answer text.
func (uc *UseCases) auditQuery(ctx context.Context, op types.Operation, transcriptID model.TranscriptID, in *QueryInput, response *model.GroundedResponse, resultCount int) {
	details := map[string]any{
		"query_chars":  len(in.Query),
		"result_count": resultCount,
	}
	for k, v := range filterLabels(in.Filter) {
		details["filter_"+k] = v
	}
	if response != nil {
		details["grounded"] = response.IsGrounded
		details["no_context"] = response.NoContextFound
	}

	entry := &model.AuditEntry{
		Operation:  op,
		EntityType: types.EntityTypeTranscript,
		EntityID:   string(transcriptID),
		Details:    details,
	}

	write := func(ctx context.Context) error {
		if _, err := uc.repo.Audit().Append(ctx, entry); err != nil {
			return goerr.Wrap(err, "failed to audit query", goerr.V("operation", op))
		}
		return nil
	}

	if uc.asyncAudit {
		async.Dispatch(ctx, write)
		return
	}
	if err := write(ctx); err != nil {
		errutil.Handle(ctx, err, "audit write failed")
	}
	logging.From(ctx).Debug("query audited", "operation", op, "result_count", resultCount)
}

func filterLabels(filter *model.IndexFilter) map[string]string {
	if filter.IsZero() {
		return nil
	}
	labels := map[string]string{}
	if filter.DocumentID != "" {
		labels["document_id"] = filter.DocumentID.String()
	}
	if filter.Sender != "" {
		labels["sender"] = filter.Sender
	}
	if filter.SourceType != "" {
		labels["source_type"] = filter.SourceType.String()
	}
	if filter.Since != nil {
		labels["since"] = filter.Since.Format(time.RFC3339)
	}
	if filter.Until != nil {
		labels["until"] = filter.Until.Format(time.RFC3339)
	}
	return labels
}
