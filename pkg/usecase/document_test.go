package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/interfaces"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
	"github.com/flatplanetpl/poc-digital-twin/pkg/usecase"
	"github.com/m-mizutani/gt"
)

func TestIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("input validation", func(t *testing.T) {
		env := newTestEnv(t, &mockLLM{})

		_, err := env.uc.Ingest(ctx, nil)
		gt.Error(t, err)

		_, err = env.uc.Ingest(ctx, &usecase.IngestInput{Document: &model.Document{ID: types.NewDocumentID()}})
		gt.Error(t, err)

		id := types.NewDocumentID()
		_, err = env.uc.Ingest(ctx, &usecase.IngestInput{
			Document: &model.Document{ID: id, SourceType: types.SourceTypeNote},
			Chunks: []*model.DocumentChunk{
				{DocumentID: id, ChunkID: "c0", SourceType: types.SourceTypeNote, Text: "text"},
			},
			Embeddings: [][]float32{queryVector(), queryVector()},
		})
		gt.Error(t, err).Required()
		gt.Bool(t, errors.Is(err, usecase.ErrInvalidRequest)).True()
	})

	t.Run("chunk count follows the actual chunks", func(t *testing.T) {
		env := newTestEnv(t, &mockLLM{})

		id := env.ingestDocument(t, types.SourceTypeNote, "", "one", "two", "three")

		doc, err := env.repo.Document().Get(ctx, id)
		gt.NoError(t, err).Required()
		gt.Value(t, doc.ChunkCount).Equal(3)
		gt.Value(t, doc.Status).Equal(types.DocumentStatusActive)
	})

	t.Run("indexing is audited with counts", func(t *testing.T) {
		env := newTestEnv(t, &mockLLM{})

		id := env.ingestDocument(t, types.SourceTypeEmail, "anna", "hello", "world")

		entries, err := env.repo.Audit().List(ctx, &interfaces.AuditFilter{Operation: types.OperationIndex})
		gt.NoError(t, err).Required()
		gt.Array(t, entries).Length(1).Required()
		gt.Value(t, entries[0].EntityID).Equal(id.String())
		gt.Value(t, entries[0].Details["chunk_count"]).Equal(2)
		gt.Value(t, entries[0].Details["source_type"]).Equal("email")
	})

	t.Run("a sender on the document feeds the contact history", func(t *testing.T) {
		env := newTestEnv(t, &mockLLM{})

		env.ingestDocument(t, types.SourceTypeEmail, "Jan Nowak", "message body")

		rel, err := env.repo.Contact().Get(ctx, "jan nowak")
		gt.NoError(t, err).Required()
		gt.Value(t, rel.MessageCount).Equal(1)
		gt.Array(t, rel.Sources).Length(1)
	})

	t.Run("re-ingesting a forgotten document is refused", func(t *testing.T) {
		env := newTestEnv(t, &mockLLM{})

		id := env.ingestDocument(t, types.SourceTypeNote, "", "ephemeral")
		_, err := env.uc.Forget(ctx, &model.ForgetRequest{DocumentID: id, Reason: "erasure"})
		gt.NoError(t, err).Required()

		date := time.Now()
		_, err = env.uc.Ingest(ctx, &usecase.IngestInput{
			Document: &model.Document{ID: id, SourceType: types.SourceTypeNote, Date: &date},
			Chunks: []*model.DocumentChunk{
				{DocumentID: id, ChunkID: "again_0", SourceType: types.SourceTypeNote, Text: "back again"},
			},
			Embeddings: [][]float32{queryVector()},
		})
		gt.Error(t, err)
	})
}

func TestListDocuments(t *testing.T) {
	ctx := context.Background()

	t.Run("filters pass through to the registry", func(t *testing.T) {
		env := newTestEnv(t, &mockLLM{})

		env.ingestDocument(t, types.SourceTypeEmail, "anna", "mail")
		env.ingestDocument(t, types.SourceTypeNote, "", "note")

		docs, err := env.uc.ListDocuments(ctx, &interfaces.DocumentFilter{SourceType: types.SourceTypeEmail})
		gt.NoError(t, err).Required()
		gt.Array(t, docs).Length(1).Required()
		gt.Value(t, docs[0].SourceType).Equal(types.SourceTypeEmail)
	})
}

func TestSetDocumentFlags(t *testing.T) {
	ctx := context.Background()

	t.Run("at least one flag must be provided", func(t *testing.T) {
		env := newTestEnv(t, &mockLLM{})

		_, err := env.uc.SetDocumentFlags(ctx, types.NewDocumentID(), nil, nil)
		gt.Error(t, err).Required()
		gt.Bool(t, errors.Is(err, usecase.ErrInvalidRequest)).True()
	})

	t.Run("unknown document maps to the not-found sentinel", func(t *testing.T) {
		env := newTestEnv(t, &mockLLM{})

		pinned := true
		_, err := env.uc.SetDocumentFlags(ctx, types.NewDocumentID(), &pinned, nil)
		gt.Error(t, err).Required()
		gt.Bool(t, errors.Is(err, usecase.ErrDocumentNotFound)).True()
	})

	t.Run("flag updates are applied and audited", func(t *testing.T) {
		env := newTestEnv(t, &mockLLM{})

		id := env.ingestDocument(t, types.SourceTypeDecision, "", "we will use Go")

		pinned := true
		doc, err := env.uc.SetDocumentFlags(ctx, id, &pinned, nil)
		gt.NoError(t, err).Required()
		gt.Bool(t, doc.IsPinned).True()
		gt.Bool(t, doc.IsApproved).False()

		entries, err := env.repo.Audit().List(ctx, &interfaces.AuditFilter{Operation: types.OperationUpdate})
		gt.NoError(t, err).Required()
		gt.Array(t, entries).Length(1).Required()
		gt.Value(t, entries[0].Details["is_pinned"]).Equal(true)
	})

	t.Run("pinning after ingest reaches the ranked scores", func(t *testing.T) {
		env := newTestEnv(t, &mockLLM{})

		id := env.ingestDocument(t, types.SourceTypeNote, "", "the deployment checklist")

		before, err := env.uc.Search(ctx, "deployment", nil, 0)
		gt.NoError(t, err).Required()
		gt.Array(t, before.Results).Length(1).Required()
		gt.Value(t, before.Results[0].Priority.ApprovalComponent).Equal(0.0)

		pinned := true
		_, err = env.uc.SetDocumentFlags(ctx, id, &pinned, nil)
		gt.NoError(t, err).Required()

		after, err := env.uc.Search(ctx, "deployment", nil, 0)
		gt.NoError(t, err).Required()
		gt.Array(t, after.Results).Length(1).Required()
		gt.Bool(t, after.Results[0].Chunk.IsPinned).True()
		gt.Value(t, after.Results[0].Priority.ApprovalComponent).Equal(1.0)
		gt.Bool(t, after.Results[0].FinalScore > before.Results[0].FinalScore).True()
	})
}
