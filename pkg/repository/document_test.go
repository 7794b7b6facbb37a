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

func runDocumentRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Register creates an active row with IndexedAt", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		doc := &model.Document{
			ID:         types.NewDocumentID(),
			SourceType: types.SourceTypeEmail,
			Filename:   "inbox.mbox",
			Sender:     "anna",
			ChunkCount: 4,
		}

		created, err := repo.Document().Register(ctx, doc)
		gt.NoError(t, err).Required()

		gt.Value(t, created.ID).Equal(doc.ID)
		gt.Value(t, created.Status).Equal(types.DocumentStatusActive)
		gt.Value(t, created.ChunkCount).Equal(4)
		gt.Bool(t, created.IndexedAt.IsZero()).False()
		gt.Bool(t, created.UpdatedAt.IsZero()).False()
	})

	t.Run("Register with empty ID is rejected", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Document().Register(ctx, &model.Document{SourceType: types.SourceTypeNote})
		gt.Error(t, err)
	})

	t.Run("Re-registering preserves IndexedAt and refreshes metadata", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		doc := &model.Document{
			ID:         types.NewDocumentID(),
			SourceType: types.SourceTypeNote,
			Filename:   "notes.md",
			ChunkCount: 1,
		}
		created, err := repo.Document().Register(ctx, doc)
		gt.NoError(t, err).Required()

		time.Sleep(10 * time.Millisecond)

		doc.ChunkCount = 3
		updated, err := repo.Document().Register(ctx, doc)
		gt.NoError(t, err).Required()

		gt.Value(t, updated.ChunkCount).Equal(3)
		gt.Bool(t, updated.IndexedAt.Equal(created.IndexedAt)).True()
		gt.Bool(t, updated.UpdatedAt.After(created.UpdatedAt)).True()
	})

	t.Run("Get returns not-found for unknown ID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Document().Get(ctx, types.NewDocumentID())
		gt.Error(t, err).Required()
		gt.Bool(t, errors.Is(err, memory.ErrNotFound) || errors.Is(err, firestore.ErrNotFound)).True()
	})

	t.Run("A forgotten ID can never be registered again", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		doc := &model.Document{
			ID:         types.NewDocumentID(),
			SourceType: types.SourceTypeConversation,
			Filename:   "chat.json",
		}
		_, err := repo.Document().Register(ctx, doc)
		gt.NoError(t, err).Required()

		marked, err := repo.Document().MarkDeleted(ctx, []types.DocumentID{doc.ID})
		gt.NoError(t, err).Required()
		gt.Value(t, marked).Equal(1)

		_, err = repo.Document().Register(ctx, doc)
		gt.Error(t, err)
	})

	t.Run("MarkDeleted counts only rows that changed state", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		id1, id2 := types.NewDocumentID(), types.NewDocumentID()
		for _, id := range []types.DocumentID{id1, id2} {
			_, err := repo.Document().Register(ctx, &model.Document{
				ID:         id,
				SourceType: types.SourceTypeEmail,
			})
			gt.NoError(t, err).Required()
		}

		marked, err := repo.Document().MarkDeleted(ctx, []types.DocumentID{id1, id2, types.NewDocumentID()})
		gt.NoError(t, err).Required()
		gt.Value(t, marked).Equal(2)

		again, err := repo.Document().MarkDeleted(ctx, []types.DocumentID{id1, id2})
		gt.NoError(t, err).Required()
		gt.Value(t, again).Equal(0)

		kept, err := repo.Document().Get(ctx, id1)
		gt.NoError(t, err).Required()
		gt.Value(t, kept.Status).Equal(types.DocumentStatusDeleted)
	})

	t.Run("List filters by status, source type and sender", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		docs := []*model.Document{
			{ID: types.NewDocumentID(), SourceType: types.SourceTypeEmail, Sender: "anna"},
			{ID: types.NewDocumentID(), SourceType: types.SourceTypeEmail, Sender: "bob"},
			{ID: types.NewDocumentID(), SourceType: types.SourceTypeNote},
		}
		for _, doc := range docs {
			_, err := repo.Document().Register(ctx, doc)
			gt.NoError(t, err).Required()
			time.Sleep(5 * time.Millisecond)
		}
		_, err := repo.Document().MarkDeleted(ctx, []types.DocumentID{docs[1].ID})
		gt.NoError(t, err).Required()

		active, err := repo.Document().List(ctx, &interfaces.DocumentFilter{Status: types.DocumentStatusActive})
		gt.NoError(t, err).Required()
		gt.Array(t, active).Length(2)

		emails, err := repo.Document().List(ctx, &interfaces.DocumentFilter{SourceType: types.SourceTypeEmail})
		gt.NoError(t, err).Required()
		gt.Array(t, emails).Length(2)

		fromAnna, err := repo.Document().List(ctx, &interfaces.DocumentFilter{Sender: "anna"})
		gt.NoError(t, err).Required()
		gt.Array(t, fromAnna).Length(1).Required()
		gt.Value(t, fromAnna[0].ID).Equal(docs[0].ID)
	})

	t.Run("List returns newest first and honors the limit", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		ids := make([]types.DocumentID, 3)
		for i := range ids {
			ids[i] = types.NewDocumentID()
			_, err := repo.Document().Register(ctx, &model.Document{
				ID:         ids[i],
				SourceType: types.SourceTypeNote,
			})
			gt.NoError(t, err).Required()
			time.Sleep(10 * time.Millisecond)
		}

		listed, err := repo.Document().List(ctx, &interfaces.DocumentFilter{Limit: 2})
		gt.NoError(t, err).Required()
		gt.Array(t, listed).Length(2).Required()
		gt.Value(t, listed[0].ID).Equal(ids[2])
		gt.Value(t, listed[1].ID).Equal(ids[1])
	})

	t.Run("SetFlags updates only the given flags", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		doc := &model.Document{
			ID:         types.NewDocumentID(),
			SourceType: types.SourceTypeDecision,
			IsApproved: true,
		}
		_, err := repo.Document().Register(ctx, doc)
		gt.NoError(t, err).Required()

		pinned := true
		updated, err := repo.Document().SetFlags(ctx, doc.ID, &pinned, nil)
		gt.NoError(t, err).Required()
		gt.Bool(t, updated.IsPinned).True()
		gt.Bool(t, updated.IsApproved).True()

		approved := false
		updated, err = repo.Document().SetFlags(ctx, doc.ID, nil, &approved)
		gt.NoError(t, err).Required()
		gt.Bool(t, updated.IsPinned).True()
		gt.Bool(t, updated.IsApproved).False()
	})

	t.Run("SetFlags on a deleted document is refused", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		doc := &model.Document{ID: types.NewDocumentID(), SourceType: types.SourceTypeNote}
		_, err := repo.Document().Register(ctx, doc)
		gt.NoError(t, err).Required()
		_, err = repo.Document().MarkDeleted(ctx, []types.DocumentID{doc.ID})
		gt.NoError(t, err).Required()

		pinned := true
		_, err = repo.Document().SetFlags(ctx, doc.ID, &pinned, nil)
		gt.Error(t, err)
	})
}

func newFirestoreDocumentRepository(t *testing.T) interfaces.Repository {
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

func TestMemoryDocumentRepository(t *testing.T) {
	runDocumentRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestFirestoreDocumentRepository(t *testing.T) {
	runDocumentRepositoryTest(t, newFirestoreDocumentRepository)
}
