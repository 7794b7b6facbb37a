package grounding_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
	"github.com/flatplanetpl/poc-digital-twin/pkg/service/grounding"
)

type mockSession struct {
	generateContentFn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
}

func (s *mockSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	if s.generateContentFn != nil {
		return s.generateContentFn(ctx, input...)
	}
	return &gollem.Response{Texts: []string{"ok"}}, nil
}

func (s *mockSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockSession) Generate(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
	return s.GenerateContent(ctx, input...)
}

func (s *mockSession) Stream(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (<-chan *gollem.Response, error) {
	return s.GenerateStream(ctx, input...)
}

func (s *mockSession) History() (*gollem.History, error) { return nil, nil }

func (s *mockSession) AppendHistory(*gollem.History) error { return nil }

func (s *mockSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

type mockLLM struct {
	newSessionFn func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error)
}

func (c *mockLLM) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	if c.newSessionFn != nil {
		return c.newSessionFn(ctx, options...)
	}
	return &mockSession{}, nil
}

func (c *mockLLM) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return nil, nil
}

func rankedResult(rank int, text string) *model.RankedResult {
	date := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	return &model.RankedResult{
		Chunk: &model.DocumentChunk{
			DocumentID: types.NewDocumentID(),
			ChunkID:    types.NewChunkID(),
			SourceType: types.SourceTypeNote,
			Text:       text,
			Date:       &date,
			Filename:   "note.md",
		},
		Similarity: 0.9,
		FinalScore: 0.8,
		Rank:       rank,
	}
}

func TestBuildContext(t *testing.T) {
	t.Run("admits fragments in rank order until the budget runs out", func(t *testing.T) {
		results := []*model.RankedResult{
			rankedResult(1, strings.Repeat("a", 400)), // 100 tokens
			rankedResult(2, strings.Repeat("b", 400)), // 100 tokens
			rankedResult(3, strings.Repeat("c", 400)), // 100 tokens
		}

		window := grounding.BuildContext(results, 250)

		gt.A(t, window.Fragments).Length(2)
		gt.V(t, window.TokensUsed).Equal(200)
		gt.V(t, window.OverflowDocuments).Equal(1)
		gt.V(t, window.OverflowTokens).Equal(100)
	})

	t.Run("a smaller later fragment can fill remaining budget", func(t *testing.T) {
		results := []*model.RankedResult{
			rankedResult(1, strings.Repeat("a", 400)), // 100 tokens
			rankedResult(2, strings.Repeat("b", 800)), // 200 tokens, does not fit
			rankedResult(3, strings.Repeat("c", 200)), // 50 tokens, fits
		}

		window := grounding.BuildContext(results, 160)

		gt.A(t, window.Fragments).Length(2)
		gt.V(t, window.Fragments[0].Result.Rank).Equal(1)
		gt.V(t, window.Fragments[1].Result.Rank).Equal(3)
		gt.V(t, window.OverflowDocuments).Equal(1)
	})

	t.Run("empty results build an empty window", func(t *testing.T) {
		window := grounding.BuildContext(nil, 1000)
		gt.B(t, window.Empty()).True()
	})
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("empty context returns the fixed absence answer without an LLM call", func(t *testing.T) {
		called := false
		svc, err := grounding.New(&mockLLM{
			newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
				called = true
				return &mockSession{}, nil
			},
		})
		gt.NoError(t, err).Required()

		resp, err := svc.Generate(ctx, &model.ContextWindow{MaxTokens: 100}, "anything")
		gt.NoError(t, err).Required()

		gt.B(t, called).False()
		gt.V(t, resp.AnswerText).Equal(model.NoContextAnswer)
		gt.B(t, resp.IsGrounded).True()
		gt.B(t, resp.NoContextFound).True()
		gt.A(t, resp.Citations).Length(0)
	})

	t.Run("citations are validated against the transmitted context", func(t *testing.T) {
		results := []*model.RankedResult{
			rankedResult(1, "The project deadline was moved to March 15"),
		}
		window := grounding.BuildContext(results, 1000)

		svc, err := grounding.New(&mockLLM{
			newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
				return &mockSession{
					generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
						return &gollem.Response{Texts: []string{
							`The deadline is March 15 [Source: note, 2025-05-01, "deadline was moved to March 15"]`,
						}}, nil
					},
				}, nil
			},
		})
		gt.NoError(t, err).Required()

		resp, err := svc.Generate(ctx, window, "when is the deadline?")
		gt.NoError(t, err).Required()

		gt.B(t, resp.IsGrounded).True()
		gt.A(t, resp.Citations).Length(1)
		gt.V(t, resp.Citations[0].DocumentID).Equal(results[0].Chunk.DocumentID)
	})

	t.Run("an answer citing nothing in context is not grounded", func(t *testing.T) {
		window := grounding.BuildContext([]*model.RankedResult{
			rankedResult(1, "Lunch options near the office"),
		}, 1000)

		svc, err := grounding.New(&mockLLM{
			newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
				return &mockSession{
					generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
						return &gollem.Response{Texts: []string{
							`Einstein was born in 1879 [Source: note, 2025-05-01, "Einstein was born in 1879"]`,
						}}, nil
					},
				}, nil
			},
		})
		gt.NoError(t, err).Required()

		resp, err := svc.Generate(ctx, window, "when was Einstein born?")
		gt.NoError(t, err).Required()

		gt.B(t, resp.IsGrounded).False()
		gt.A(t, resp.Citations).Length(0)
	})
}
