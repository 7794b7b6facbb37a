package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
)

type transcriptRepository struct {
	mu          sync.RWMutex
	transcripts map[model.TranscriptID]*model.Transcript
}

func newTranscriptRepository() *transcriptRepository {
	return &transcriptRepository{
		transcripts: make(map[model.TranscriptID]*model.Transcript),
	}
}

func (r *transcriptRepository) Save(ctx context.Context, transcript *model.Transcript) (*model.Transcript, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	saved := transcript.Clone()
	if saved.ID == "" {
		saved.ID = model.NewTranscriptID()
	}
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now().UTC()
	}

	r.transcripts[saved.ID] = saved
	return saved.Clone(), nil
}

func (r *transcriptRepository) Get(ctx context.Context, id model.TranscriptID) (*model.Transcript, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	transcript, ok := r.transcripts[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "transcript not found", goerr.V("id", id))
	}

	return transcript.Clone(), nil
}

func (r *transcriptRepository) List(ctx context.Context, limit int) ([]*model.Transcript, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	transcripts := make([]*model.Transcript, 0, len(r.transcripts))
	for _, t := range r.transcripts {
		transcripts = append(transcripts, t.Clone())
	}

	sort.Slice(transcripts, func(i, j int) bool {
		if !transcripts[i].CreatedAt.Equal(transcripts[j].CreatedAt) {
			return transcripts[i].CreatedAt.After(transcripts[j].CreatedAt)
		}
		return transcripts[i].ID > transcripts[j].ID
	})

	if limit > 0 && len(transcripts) > limit {
		transcripts = transcripts[:limit]
	}

	return transcripts, nil
}

func (r *transcriptRepository) PurgeReferences(ctx context.Context, ids []types.DocumentID) (int, error) {
	forgotten := make(map[types.DocumentID]bool, len(ids))
	for _, id := range ids {
		forgotten[id] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	purged := 0
	for _, t := range r.transcripts {
		kept := t.Citations[:0]
		for _, c := range t.Citations {
			if forgotten[c.DocumentID] {
				purged++
				continue
			}
			kept = append(kept, c)
		}
		t.Citations = kept
	}

	return purged, nil
}
