package usecase

import (
	"github.com/m-mizutani/gollem"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/interfaces"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model/config"
	"github.com/flatplanetpl/poc-digital-twin/pkg/service/grounding"
	"github.com/flatplanetpl/poc-digital-twin/pkg/service/ranker"
	"github.com/flatplanetpl/poc-digital-twin/pkg/utils/lock"
)

type UseCases struct {
	repo   interfaces.Repository
	index  interfaces.SimilarityIndex
	ranker *ranker.Ranker
	ground *grounding.Service
	cfg    *config.Ranking

	// forgetLocks serializes forget operations per target so overlapping
	// requests on the same target cannot interleave their deletion steps.
	forgetLocks *lock.KeyedMutex

	llmProvider string
	llmModel    string
	asyncAudit  bool
}

type Option func(*UseCases)

// WithLLMInfo records which provider and model answer queries. The values
// only appear in explanations, never in ranking.
func WithLLMInfo(provider, model string) Option {
	return func(uc *UseCases) {
		uc.llmProvider = provider
		uc.llmModel = model
	}
}

// WithAsyncAudit moves query and search audit writes off the request path.
// Forget audits are always synchronous.
func WithAsyncAudit() Option {
	return func(uc *UseCases) {
		uc.asyncAudit = true
	}
}

func New(repo interfaces.Repository, index interfaces.SimilarityIndex, llm gollem.LLMClient, cfg *config.Ranking, opts ...Option) (*UseCases, error) {
	if cfg == nil {
		cfg = config.DefaultRanking()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// A nil LLM client leaves query and search unavailable but keeps the
	// erasure and audit paths fully functional.
	var ground *grounding.Service
	if llm != nil {
		var err error
		if ground, err = grounding.New(llm); err != nil {
			return nil, err
		}
	}

	uc := &UseCases{
		repo:        repo,
		index:       index,
		ranker:      ranker.New(llm, index, cfg),
		ground:      ground,
		cfg:         cfg,
		forgetLocks: lock.NewKeyedMutex(),
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc, nil
}
