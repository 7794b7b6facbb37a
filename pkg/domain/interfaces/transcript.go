package interfaces

import (
	"context"

	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
)

// TranscriptRepository stores answered-query transcripts. Transcripts embed
// citations, which makes them a reference store the forget path must purge.
type TranscriptRepository interface {
	// Save persists a transcript
	Save(ctx context.Context, transcript *model.Transcript) (*model.Transcript, error)

	// Get retrieves a transcript by ID
	Get(ctx context.Context, id model.TranscriptID) (*model.Transcript, error)

	// List retrieves transcripts, newest first, up to limit
	List(ctx context.Context, limit int) ([]*model.Transcript, error)

	// PurgeReferences removes citations pointing at any of the given
	// documents from all stored transcripts and returns the number of
	// citations removed. Transcripts themselves are kept.
	PurgeReferences(ctx context.Context, ids []types.DocumentID) (int, error)
}
