package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/interfaces"
	indexmemory "github.com/flatplanetpl/poc-digital-twin/pkg/index/memory"
	"github.com/flatplanetpl/poc-digital-twin/pkg/index/pgvector"
	"github.com/flatplanetpl/poc-digital-twin/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Index holds CLI flags for the similarity index backend
type Index struct {
	backend string
	dsn     string
}

// Flags returns CLI flags for index configuration
func (x *Index) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "index-backend",
			Usage:       "Similarity index backend (pgvector or memory)",
			Value:       "memory",
			Sources:     cli.EnvVars("TWIN_INDEX_BACKEND"),
			Destination: &x.backend,
		},
		&cli.StringFlag{
			Name:        "index-dsn",
			Usage:       "PostgreSQL DSN (required when using pgvector backend)",
			Sources:     cli.EnvVars("TWIN_INDEX_DSN"),
			Destination: &x.dsn,
		},
	}
}

// Configure initializes the similarity index. The caller is responsible for
// calling Close() on the returned index.
func (x *Index) Configure(ctx context.Context) (interfaces.SimilarityIndex, error) {
	switch x.backend {
	case "pgvector":
		if x.dsn == "" {
			return nil, goerr.Wrap(ErrInvalidConfig, "index-dsn is required when using pgvector backend")
		}
		index, err := pgvector.New(ctx, x.dsn)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize pgvector index")
		}
		logging.Default().Info("Using pgvector similarity index")
		return index, nil

	case "memory":
		logging.Default().Info("Using in-memory similarity index (development mode)")
		return indexmemory.New(), nil

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid index backend", goerr.V("backend", x.backend))
	}
}
