package config

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
)

// DefaultTypeWeights is the built-in source type weight table.
// Higher raw weight means a more authoritative source.
func DefaultTypeWeights() map[types.SourceType]int {
	return map[types.SourceType]int{
		types.SourceTypeProfile:       120,
		types.SourceTypeDecision:      100,
		types.SourceTypeNote:          70,
		types.SourceTypeEmail:         50,
		types.SourceTypeContact:       40,
		types.SourceTypeConversation:  30,
		types.SourceTypeInterest:      25,
		types.SourceTypeLocation:      20,
		types.SourceTypeSearchHistory: 10,
	}
}

// Approval bonuses. Pinned outranks approved outranks automatic.
const (
	PinnedBonus   = 50
	ApprovedBonus = 30
)

// Ranking carries all tunables of the ranking path. It is injected at
// construction (or passed per call) so concurrent queries with different
// overrides never interfere; there is no ambient weight state.
type Ranking struct {
	// SimilarityWeight and PriorityWeight combine the two scores. Their sum
	// is not forced to 1.0; callers may overweight both.
	SimilarityWeight float64
	PriorityWeight   float64

	// MaxDays bounds the linear recency decay: content older than MaxDays
	// scores exactly 0 on recency.
	MaxDays int

	// FetchK candidates are requested from the similarity index, then
	// re-ranked and truncated to TopK.
	FetchK int
	TopK   int

	MaxContextTokens int

	RetrievalTimeout  time.Duration
	GenerationTimeout time.Duration

	// TypeWeights overrides DefaultTypeWeights when non-nil.
	TypeWeights map[types.SourceType]int
}

// DefaultRanking returns the standard configuration
func DefaultRanking() *Ranking {
	return &Ranking{
		SimilarityWeight:  0.7,
		PriorityWeight:    0.3,
		MaxDays:           365,
		FetchK:            50,
		TopK:              5,
		MaxContextTokens:  4000,
		RetrievalTimeout:  15 * time.Second,
		GenerationTimeout: 60 * time.Second,
	}
}

// Validate rejects invalid configuration eagerly, at startup rather than at
// query time.
func (c *Ranking) Validate() error {
	if c.SimilarityWeight < 0 || c.SimilarityWeight > 1 {
		return goerr.New("similarity weight must be in [0,1]", goerr.V("w_sim", c.SimilarityWeight))
	}
	if c.PriorityWeight < 0 || c.PriorityWeight > 1 {
		return goerr.New("priority weight must be in [0,1]", goerr.V("w_pri", c.PriorityWeight))
	}
	if c.MaxDays <= 0 {
		return goerr.New("max days must be positive", goerr.V("max_days", c.MaxDays))
	}
	if c.TopK <= 0 {
		return goerr.New("top_k must be positive", goerr.V("top_k", c.TopK))
	}
	if c.FetchK < c.TopK {
		return goerr.New("fetch_k must be at least top_k",
			goerr.V("fetch_k", c.FetchK), goerr.V("top_k", c.TopK))
	}
	if c.MaxContextTokens <= 0 {
		return goerr.New("max context tokens must be positive", goerr.V("max_context_tokens", c.MaxContextTokens))
	}
	for st, w := range c.TypeWeights {
		if w < 0 {
			return goerr.New("type weight must not be negative",
				goerr.V("source_type", st), goerr.V("weight", w))
		}
	}
	return nil
}

// EffectiveTopK resolves a per-call top_k override. Non-positive values fall
// back to the configured default; overrides never exceed fetch_k.
func (c *Ranking) EffectiveTopK(override int) int {
	if override <= 0 {
		return c.TopK
	}
	if override > c.FetchK {
		return c.FetchK
	}
	return override
}

// EffectiveTypeWeights returns the active weight table
func (c *Ranking) EffectiveTypeWeights() map[types.SourceType]int {
	if c.TypeWeights != nil {
		return c.TypeWeights
	}
	return DefaultTypeWeights()
}

// MaxTypeWeight is the normalization divisor of the active table
func (c *Ranking) MaxTypeWeight() int {
	max := 0
	for _, w := range c.EffectiveTypeWeights() {
		if w > max {
			max = w
		}
	}
	return max
}
