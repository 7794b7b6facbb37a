package pgvector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pgvector/pgvector-go"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/interfaces"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
)

// Index is a PostgreSQL-backed similarity index using the pgvector extension.
// Metadata filters are pushed into SQL so Search and Delete reach exactly the
// same rows.
type Index struct {
	db *sql.DB
}

var _ interfaces.SimilarityIndex = &Index{}

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS chunks (
	chunk_id    TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	source_type TEXT NOT NULL,
	text        TEXT NOT NULL,
	date        TIMESTAMPTZ,
	is_pinned   BOOLEAN NOT NULL DEFAULT FALSE,
	is_approved BOOLEAN NOT NULL DEFAULT FALSE,
	sender      TEXT NOT NULL DEFAULT '',
	filename    TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL,
	embedding   vector(%d) NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON chunks (document_id);
CREATE INDEX IF NOT EXISTS idx_chunks_sender ON chunks (sender);
CREATE INDEX IF NOT EXISTS idx_chunks_source_type ON chunks (source_type);
`

// New opens the database and ensures the chunk table exists
func New(ctx context.Context, dsn string) (*Index, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open postgres connection")
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, goerr.Wrap(err, "failed to ping postgres")
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf(schema, model.EmbeddingDimension)); err != nil {
		return nil, goerr.Wrap(err, "failed to ensure chunk schema")
	}

	return &Index{db: db}, nil
}

func (x *Index) Upsert(ctx context.Context, chunks []*model.DocumentChunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return goerr.New("chunks and embeddings length mismatch",
			goerr.V("chunks", len(chunks)), goerr.V("embeddings", len(embeddings)))
	}

	const stmt = `
		INSERT INTO chunks (
			chunk_id, document_id, source_type, text, date,
			is_pinned, is_approved, sender, filename, created_at, embedding
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (chunk_id) DO UPDATE SET
			text = EXCLUDED.text,
			date = EXCLUDED.date,
			is_pinned = EXCLUDED.is_pinned,
			is_approved = EXCLUDED.is_approved,
			embedding = EXCLUDED.embedding
	`

	for i, chunk := range chunks {
		if err := chunk.Validate(); err != nil {
			return goerr.Wrap(err, "invalid chunk for upsert")
		}

		var date sql.NullTime
		if chunk.Date != nil {
			date = sql.NullTime{Time: *chunk.Date, Valid: true}
		}
		createdAt := chunk.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		if _, err := x.db.ExecContext(ctx, stmt,
			chunk.ChunkID.String(),
			chunk.DocumentID.String(),
			chunk.SourceType.String(),
			chunk.Text,
			date,
			chunk.IsPinned,
			chunk.IsApproved,
			chunk.Sender,
			chunk.Filename,
			createdAt,
			pgvector.NewVector(embeddings[i]),
		); err != nil {
			return goerr.Wrap(err, "failed to upsert chunk", goerr.V("chunk_id", chunk.ChunkID))
		}
	}

	return nil
}

func (x *Index) Search(ctx context.Context, vector []float32, limit int, filter *model.IndexFilter) ([]*model.RetrievalCandidate, error) {
	where, args := filterClauses(filter)
	args = append(args, pgvector.NewVector(vector))
	vectorArg := len(args)
	args = append(args, limit)
	limitArg := len(args)

	// Cosine distance is in [0,2]; 1 - d/2 maps it to [0,1].
	query := fmt.Sprintf(`
		SELECT chunk_id, document_id, source_type, text, date,
			is_pinned, is_approved, sender, filename, created_at,
			1 - (embedding <=> $%d) / 2 AS similarity
		FROM chunks
		WHERE %s
		ORDER BY embedding <=> $%d
		LIMIT $%d
	`, vectorArg, strings.Join(where, " AND "), vectorArg, limitArg)

	rows, err := x.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "similarity search query failed")
	}
	defer rows.Close()

	candidates := []*model.RetrievalCandidate{}
	for rows.Next() {
		var (
			chunk      model.DocumentChunk
			date       sql.NullTime
			similarity float64
		)
		if err := rows.Scan(
			&chunk.ChunkID,
			&chunk.DocumentID,
			&chunk.SourceType,
			&chunk.Text,
			&date,
			&chunk.IsPinned,
			&chunk.IsApproved,
			&chunk.Sender,
			&chunk.Filename,
			&chunk.CreatedAt,
			&similarity,
		); err != nil {
			return nil, goerr.Wrap(err, "failed to scan chunk row")
		}
		if date.Valid {
			d := date.Time
			chunk.Date = &d
		}
		candidates = append(candidates, &model.RetrievalCandidate{
			Chunk:      &chunk,
			Similarity: similarity,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate chunk rows")
	}

	return candidates, nil
}

func (x *Index) Delete(ctx context.Context, filter *model.IndexFilter) (int, error) {
	where, args := filterClauses(filter)

	result, err := x.db.ExecContext(ctx,
		"DELETE FROM chunks WHERE "+strings.Join(where, " AND "), args...)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to delete chunks")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count deleted chunks")
	}
	return int(affected), nil
}

func (x *Index) UpdateFlags(ctx context.Context, id types.DocumentID, pinned, approved bool) (int, error) {
	result, err := x.db.ExecContext(ctx,
		"UPDATE chunks SET is_pinned = $1, is_approved = $2 WHERE document_id = $3",
		pinned, approved, id.String())
	if err != nil {
		return 0, goerr.Wrap(err, "failed to update chunk flags", goerr.V("document_id", id))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count updated chunks")
	}
	return int(affected), nil
}

func (x *Index) Close() error {
	return x.db.Close()
}

func filterClauses(filter *model.IndexFilter) ([]string, []any) {
	where, args := []string{"1 = 1"}, []any{}

	if filter == nil {
		return where, args
	}
	if filter.DocumentID != "" {
		args = append(args, filter.DocumentID.String())
		where = append(where, fmt.Sprintf("document_id = $%d", len(args)))
	}
	if filter.Sender != "" {
		args = append(args, filter.Sender)
		where = append(where, fmt.Sprintf("sender = $%d", len(args)))
	}
	if filter.SourceType != "" {
		args = append(args, filter.SourceType.String())
		where = append(where, fmt.Sprintf("source_type = $%d", len(args)))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		where = append(where, fmt.Sprintf("date >= $%d", len(args)))
	}
	if filter.Until != nil {
		args = append(args, *filter.Until)
		where = append(where, fmt.Sprintf("date <= $%d", len(args)))
	}

	return where, args
}
