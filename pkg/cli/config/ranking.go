package config

import (
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	domainConfig "github.com/flatplanetpl/poc-digital-twin/pkg/domain/model/config"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// Ranking holds CLI flags for the ranking configuration
type Ranking struct {
	similarityWeight  float64
	priorityWeight    float64
	maxDays           int
	fetchK            int
	topK              int
	maxContextTokens  int
	retrievalTimeout  time.Duration
	generationTimeout time.Duration
	weightsFile       string
}

// Flags returns CLI flags for ranking configuration
func (r *Ranking) Flags() []cli.Flag {
	defaults := domainConfig.DefaultRanking()
	return []cli.Flag{
		&cli.FloatFlag{
			Name:        "similarity-weight",
			Usage:       "Weight of vector similarity in the final score",
			Value:       defaults.SimilarityWeight,
			Sources:     cli.EnvVars("TWIN_SIMILARITY_WEIGHT"),
			Destination: &r.similarityWeight,
		},
		&cli.FloatFlag{
			Name:        "priority-weight",
			Usage:       "Weight of priority score in the final score",
			Value:       defaults.PriorityWeight,
			Sources:     cli.EnvVars("TWIN_PRIORITY_WEIGHT"),
			Destination: &r.priorityWeight,
		},
		&cli.IntFlag{
			Name:        "max-days",
			Usage:       "Age in days at which the recency score reaches zero",
			Value:       defaults.MaxDays,
			Sources:     cli.EnvVars("TWIN_MAX_DAYS"),
			Destination: &r.maxDays,
		},
		&cli.IntFlag{
			Name:        "fetch-k",
			Usage:       "Candidate pool size fetched from the similarity index",
			Value:       defaults.FetchK,
			Sources:     cli.EnvVars("TWIN_FETCH_K"),
			Destination: &r.fetchK,
		},
		&cli.IntFlag{
			Name:        "top-k",
			Usage:       "Number of results kept after re-ranking",
			Value:       defaults.TopK,
			Sources:     cli.EnvVars("TWIN_TOP_K"),
			Destination: &r.topK,
		},
		&cli.IntFlag{
			Name:        "max-context-tokens",
			Usage:       "Token budget of the generation context window",
			Value:       defaults.MaxContextTokens,
			Sources:     cli.EnvVars("TWIN_MAX_CONTEXT_TOKENS"),
			Destination: &r.maxContextTokens,
		},
		&cli.DurationFlag{
			Name:        "retrieval-timeout",
			Usage:       "Timeout of the retrieval phase",
			Value:       defaults.RetrievalTimeout,
			Sources:     cli.EnvVars("TWIN_RETRIEVAL_TIMEOUT"),
			Destination: &r.retrievalTimeout,
		},
		&cli.DurationFlag{
			Name:        "generation-timeout",
			Usage:       "Timeout of the answer generation phase",
			Value:       defaults.GenerationTimeout,
			Sources:     cli.EnvVars("TWIN_GENERATION_TIMEOUT"),
			Destination: &r.generationTimeout,
		},
		&cli.StringFlag{
			Name:        "weights-file",
			Usage:       "TOML file with a [weights] source type weight table",
			Sources:     cli.EnvVars("TWIN_WEIGHTS_FILE"),
			Destination: &r.weightsFile,
		},
	}
}

// weightsFileContent is the TOML schema of a weight override file
type weightsFileContent struct {
	Weights map[string]int `toml:"weights"`
}

// Configure builds and validates the ranking configuration
func (r *Ranking) Configure() (*domainConfig.Ranking, error) {
	cfg := &domainConfig.Ranking{
		SimilarityWeight:  r.similarityWeight,
		PriorityWeight:    r.priorityWeight,
		MaxDays:           r.maxDays,
		FetchK:            r.fetchK,
		TopK:              r.topK,
		MaxContextTokens:  r.maxContextTokens,
		RetrievalTimeout:  r.retrievalTimeout,
		GenerationTimeout: r.generationTimeout,
	}

	if r.weightsFile != "" {
		weights, err := loadTypeWeights(r.weightsFile)
		if err != nil {
			return nil, err
		}
		cfg.TypeWeights = weights
	}

	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "ranking configuration is invalid")
	}

	return cfg, nil
}

// loadTypeWeights reads a source type weight table from a TOML file. Source
// types missing from the file keep a weight of zero, which is how operators
// mute a whole source type.
func loadTypeWeights(path string) (map[types.SourceType]int, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read weights file", goerr.V("path", path))
	}

	var content weightsFileContent
	if err := toml.Unmarshal(data, &content); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML weights file", goerr.V("path", path))
	}
	if len(content.Weights) == 0 {
		return nil, goerr.Wrap(ErrInvalidConfig, "weights file has no [weights] table", goerr.V("path", path))
	}

	weights := make(map[types.SourceType]int, len(content.Weights))
	for name, weight := range content.Weights {
		st := types.SourceType(name)
		if !st.IsKnown() {
			return nil, goerr.Wrap(ErrUnknownSourceType, "unknown source type in weights file",
				goerr.V("source_type", name), goerr.V("path", path))
		}
		weights[st] = weight
	}

	return weights, nil
}
