package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/interfaces"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
	"github.com/flatplanetpl/poc-digital-twin/pkg/repository/firestore"
	"github.com/flatplanetpl/poc-digital-twin/pkg/repository/memory"
	"github.com/m-mizutani/gt"
)

func citationOf(docID types.DocumentID) model.Citation {
	return model.Citation{
		DocumentID: docID,
		SourceType: types.SourceTypeNote,
		Filename:   "notes.md",
		Fragment:   "quoted fragment",
		Score:      0.8,
	}
}

func runTranscriptRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Save assigns ID and timestamp when absent", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		saved, err := repo.Transcript().Save(ctx, &model.Transcript{
			Question:  "when is the deadline?",
			Answer:    "March 15",
			Citations: []model.Citation{citationOf(types.NewDocumentID())},
		})
		gt.NoError(t, err).Required()

		gt.String(t, string(saved.ID)).NotEqual("")
		gt.Bool(t, saved.CreatedAt.IsZero()).False()

		retrieved, err := repo.Transcript().Get(ctx, saved.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, retrieved.Question).Equal("when is the deadline?")
		gt.Array(t, retrieved.Citations).Length(1)
	})

	t.Run("Get returns not-found for unknown ID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Transcript().Get(ctx, model.NewTranscriptID())
		gt.Error(t, err).Required()
		gt.Bool(t, errors.Is(err, memory.ErrNotFound) || errors.Is(err, firestore.ErrNotFound)).True()
	})

	t.Run("List returns newest first up to limit", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		var last model.TranscriptID
		for i := 0; i < 3; i++ {
			saved, err := repo.Transcript().Save(ctx, &model.Transcript{
				Question: fmt.Sprintf("question %d", i),
				Answer:   "answer",
			})
			gt.NoError(t, err).Required()
			last = saved.ID
			time.Sleep(10 * time.Millisecond)
		}

		listed, err := repo.Transcript().List(ctx, 2)
		gt.NoError(t, err).Required()
		gt.Array(t, listed).Length(2).Required()
		gt.Value(t, listed[0].ID).Equal(last)
	})

	t.Run("PurgeReferences removes citations but keeps transcripts", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		forgotten := types.NewDocumentID()
		kept := types.NewDocumentID()

		first, err := repo.Transcript().Save(ctx, &model.Transcript{
			Question:  "q1",
			Answer:    "a1",
			Citations: []model.Citation{citationOf(forgotten), citationOf(kept)},
		})
		gt.NoError(t, err).Required()

		second, err := repo.Transcript().Save(ctx, &model.Transcript{
			Question:  "q2",
			Answer:    "a2",
			Citations: []model.Citation{citationOf(forgotten)},
		})
		gt.NoError(t, err).Required()

		purged, err := repo.Transcript().PurgeReferences(ctx, []types.DocumentID{forgotten})
		gt.NoError(t, err).Required()
		gt.Value(t, purged).Equal(2)

		r1, err := repo.Transcript().Get(ctx, first.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, r1.Citations).Length(1).Required()
		gt.Value(t, r1.Citations[0].DocumentID).Equal(kept)

		r2, err := repo.Transcript().Get(ctx, second.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, r2.Citations).Length(0)
		gt.Value(t, r2.Answer).Equal("a2")
	})

	t.Run("PurgeReferences of untouched documents counts zero", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Transcript().Save(ctx, &model.Transcript{
			Question:  "q",
			Answer:    "a",
			Citations: []model.Citation{citationOf(types.NewDocumentID())},
		})
		gt.NoError(t, err).Required()

		purged, err := repo.Transcript().PurgeReferences(ctx, []types.DocumentID{types.NewDocumentID()})
		gt.NoError(t, err).Required()
		gt.Value(t, purged).Equal(0)
	})

	t.Run("A transcript citing one document twice purges both citations", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		target := types.NewDocumentID()
		saved, err := repo.Transcript().Save(ctx, &model.Transcript{
			Question:  "q",
			Answer:    "a",
			Citations: []model.Citation{citationOf(target), citationOf(target)},
		})
		gt.NoError(t, err).Required()

		purged, err := repo.Transcript().PurgeReferences(ctx, []types.DocumentID{target})
		gt.NoError(t, err).Required()
		gt.Value(t, purged).Equal(2)

		retrieved, err := repo.Transcript().Get(ctx, saved.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, retrieved.Citations).Length(0)
	})
}

func newFirestoreTranscriptRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	ctx := context.Background()
	prefix := fmt.Sprintf("test_%d", time.Now().UnixNano())
	repo, err := firestore.New(ctx, projectID, firestore.WithCollectionPrefix(prefix))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

func TestMemoryTranscriptRepository(t *testing.T) {
	runTranscriptRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestFirestoreTranscriptRepository(t *testing.T) {
	runTranscriptRepositoryTest(t, newFirestoreTranscriptRepository)
}
