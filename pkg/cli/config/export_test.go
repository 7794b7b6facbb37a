package config

import (
	domainConfig "github.com/flatplanetpl/poc-digital-twin/pkg/domain/model/config"
)

// NewRankingForTest creates a Ranking config with defaults and the given
// weights file, bypassing CLI flag parsing
func NewRankingForTest(weightsFile string) *Ranking {
	defaults := domainConfig.DefaultRanking()
	return &Ranking{
		similarityWeight:  defaults.SimilarityWeight,
		priorityWeight:    defaults.PriorityWeight,
		maxDays:           defaults.MaxDays,
		fetchK:            defaults.FetchK,
		topK:              defaults.TopK,
		maxContextTokens:  defaults.MaxContextTokens,
		retrievalTimeout:  defaults.RetrievalTimeout,
		generationTimeout: defaults.GenerationTimeout,
		weightsFile:       weightsFile,
	}
}

// NewGeminiForTest creates a Gemini config for testing purposes
func NewGeminiForTest(projectID, location, model string) *Gemini {
	return &Gemini{
		projectID: projectID,
		location:  location,
		model:     model,
	}
}
