package model_test

import (
	"strings"
	"testing"

	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
	"github.com/m-mizutani/gt"
)

func TestAuditEntryValidate(t *testing.T) {
	t.Run("counts and labels are fine", func(t *testing.T) {
		entry := &model.AuditEntry{
			Operation:  types.OperationDelete,
			EntityType: types.EntityTypeSender,
			EntityID:   "anna",
			Details: map[string]any{
				"reason":          "user request",
				"vectors_deleted": 3,
			},
		}
		gt.NoError(t, entry.Validate())
	})

	t.Run("content-like keys are refused", func(t *testing.T) {
		for _, key := range []string{"content", "text", "body", "message", "query_text", "answer"} {
			entry := &model.AuditEntry{
				Operation:  types.OperationQuery,
				EntityType: types.EntityTypeTranscript,
				Details:    map[string]any{key: "anything"},
			}
			gt.Error(t, entry.Validate())
		}
	})

	t.Run("oversized string values are refused", func(t *testing.T) {
		entry := &model.AuditEntry{
			Operation:  types.OperationIndex,
			EntityType: types.EntityTypeDocument,
			Details:    map[string]any{"note": strings.Repeat("a", 501)},
		}
		gt.Error(t, entry.Validate())

		entry.Details = map[string]any{"note": strings.Repeat("a", 500)}
		gt.NoError(t, entry.Validate())
	})

	t.Run("unknown operations are refused", func(t *testing.T) {
		entry := &model.AuditEntry{
			Operation:  types.Operation("obliterate"),
			EntityType: types.EntityTypeDocument,
		}
		gt.Error(t, entry.Validate())
	})
}

func TestForgetRequest(t *testing.T) {
	t.Run("exactly one target", func(t *testing.T) {
		gt.NoError(t, (&model.ForgetRequest{Sender: "anna", Reason: "r"}).Validate())
		gt.Error(t, (&model.ForgetRequest{Reason: "r"}).Validate())
		gt.Error(t, (&model.ForgetRequest{Sender: "anna", SourceType: types.SourceTypeEmail, Reason: "r"}).Validate())
		gt.Error(t, (&model.ForgetRequest{Sender: "anna"}).Validate())
	})

	t.Run("target resolution", func(t *testing.T) {
		byDoc := &model.ForgetRequest{DocumentID: "doc1", Reason: "r"}
		gt.Value(t, byDoc.EntityType()).Equal(types.EntityTypeDocument)
		gt.Value(t, byDoc.EntityID()).Equal("doc1")
		gt.Value(t, byDoc.PredicateKey()).Equal("document:doc1")

		bySender := &model.ForgetRequest{Sender: "anna", Reason: "r"}
		gt.Value(t, bySender.EntityType()).Equal(types.EntityTypeSender)
		gt.Value(t, bySender.PredicateKey()).Equal("sender:anna")
	})

	t.Run("finalize sums the three erasure counts", func(t *testing.T) {
		result := &model.ForgetResult{
			VectorsDeleted:         3,
			ReferencesDeleted:      2,
			DocumentsMarkedDeleted: 1,
		}
		result.Finalize()
		gt.Value(t, result.TotalDeleted).Equal(6)
	})
}
