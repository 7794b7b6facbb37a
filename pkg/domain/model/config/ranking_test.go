package config_test

import (
	"testing"

	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model/config"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
	"github.com/m-mizutani/gt"
)

func TestRankingValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		gt.NoError(t, config.DefaultRanking().Validate())
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		cases := map[string]func(c *config.Ranking){
			"similarity weight above one":  func(c *config.Ranking) { c.SimilarityWeight = 1.5 },
			"negative similarity weight":   func(c *config.Ranking) { c.SimilarityWeight = -0.1 },
			"priority weight above one":    func(c *config.Ranking) { c.PriorityWeight = 1.1 },
			"zero max days":                func(c *config.Ranking) { c.MaxDays = 0 },
			"zero top_k":                   func(c *config.Ranking) { c.TopK = 0 },
			"fetch_k below top_k":          func(c *config.Ranking) { c.FetchK = 3; c.TopK = 5 },
			"zero context budget":          func(c *config.Ranking) { c.MaxContextTokens = 0 },
			"negative type weight":         func(c *config.Ranking) { c.TypeWeights = map[types.SourceType]int{types.SourceTypeNote: -1} },
		}

		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				cfg := config.DefaultRanking()
				mutate(cfg)
				gt.Error(t, cfg.Validate())
			})
		}
	})

	t.Run("weights need not sum to one", func(t *testing.T) {
		cfg := config.DefaultRanking()
		cfg.SimilarityWeight = 0.9
		cfg.PriorityWeight = 0.9
		gt.NoError(t, cfg.Validate())
	})
}

func TestEffectiveTopK(t *testing.T) {
	cfg := config.DefaultRanking()
	cfg.FetchK = 10
	cfg.TopK = 5

	gt.Value(t, cfg.EffectiveTopK(0)).Equal(5)
	gt.Value(t, cfg.EffectiveTopK(-1)).Equal(5)
	gt.Value(t, cfg.EffectiveTopK(3)).Equal(3)
	gt.Value(t, cfg.EffectiveTopK(8)).Equal(8)
	gt.Value(t, cfg.EffectiveTopK(25)).Equal(10)
}

func TestTypeWeights(t *testing.T) {
	t.Run("override replaces the default table entirely", func(t *testing.T) {
		cfg := config.DefaultRanking()
		cfg.TypeWeights = map[types.SourceType]int{
			types.SourceTypeNote: 10,
		}

		weights := cfg.EffectiveTypeWeights()
		gt.Value(t, weights[types.SourceTypeNote]).Equal(10)
		gt.Value(t, weights[types.SourceTypeEmail]).Equal(0)
		gt.Value(t, cfg.MaxTypeWeight()).Equal(10)
	})

	t.Run("profile carries the highest default weight", func(t *testing.T) {
		cfg := config.DefaultRanking()
		gt.Value(t, cfg.MaxTypeWeight()).Equal(120)
		gt.Value(t, cfg.EffectiveTypeWeights()[types.SourceTypeProfile]).Equal(120)
	})
}
