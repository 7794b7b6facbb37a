package grounding

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
)

// Service builds the generation context, invokes the language model, and
// turns the raw answer into a citation-validated GroundedResponse.
type Service struct {
	llm gollem.LLMClient
}

// New creates a grounding service with the provided LLM client
func New(llm gollem.LLMClient) (*Service, error) {
	if llm == nil {
		return nil, goerr.New("LLM client is required")
	}
	return &Service{llm: llm}, nil
}

// BuildContext greedily admits ranked results in rank order until the next
// fragment would exceed maxTokens. Results that do not fit are counted as
// overflow, never silently dropped.
func BuildContext(results []*model.RankedResult, maxTokens int) *model.ContextWindow {
	window := &model.ContextWindow{MaxTokens: maxTokens}

	for _, r := range results {
		tokens := model.EstimateTokens(r.Chunk.Text)
		if window.TokensUsed+tokens > maxTokens {
			window.OverflowDocuments++
			window.OverflowTokens += tokens
			continue
		}
		window.Fragments = append(window.Fragments, model.ContextFragment{
			Result: r,
			Tokens: tokens,
		})
		window.TokensUsed += tokens
	}

	return window
}

// NoContextResponse is the fixed response when nothing entered the context.
// Stating absence is itself grounded behavior.
func NoContextResponse() *model.GroundedResponse {
	return &model.GroundedResponse{
		AnswerText:     model.NoContextAnswer,
		Citations:      []model.Citation{},
		IsGrounded:     true,
		NoContextFound: true,
	}
}

// Generate sends the context and query to the model and validates the
// answer's citations against what was actually transmitted.
func (s *Service) Generate(ctx context.Context, window *model.ContextWindow, query string) (*model.GroundedResponse, error) {
	if window.Empty() {
		return NoContextResponse(), nil
	}

	session, err := s.llm.NewSession(ctx,
		gollem.WithSessionSystemPrompt(systemPrompt),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(buildUserPrompt(window, query)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate answer")
	}
	if len(resp.Texts) == 0 {
		return nil, goerr.New("generation returned no text")
	}
	answer := resp.Texts[0]

	citations := ExtractCitations(answer, window)

	return &model.GroundedResponse{
		AnswerText: answer,
		Citations:  citations,
		IsGrounded: ValidateGrounding(answer, citations),
	}, nil
}
