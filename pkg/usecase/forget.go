package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/interfaces"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
	"github.com/flatplanetpl/poc-digital-twin/pkg/utils/errutil"
	"github.com/flatplanetpl/poc-digital-twin/pkg/utils/logging"
)

// Forget erases all data matching the request target: vectors first, then
// transcript references, then the document registry, then the audit record.
// The order means a crash can leave dangling metadata but never a dangling
// vector. Repeating a completed forget is safe and reports zero deletions.
//
// On a failing step the result is returned alongside the error, with every
// count collected so far preserved and Success set to false.
func (uc *UseCases) Forget(ctx context.Context, req *model.ForgetRequest) (*model.ForgetResult, error) {
	if req == nil {
		return nil, goerr.Wrap(ErrInvalidRequest, "forget request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidRequest, err.Error())
	}

	unlock := uc.forgetLocks.Lock(req.PredicateKey())
	defer unlock()

	result := &model.ForgetResult{
		Timestamp:  time.Now().UTC(),
		Reason:     req.Reason,
		EntityType: req.EntityType(),
		EntityID:   req.EntityID(),
	}

	ids, err := uc.resolveTargetDocuments(ctx, req)
	if err != nil {
		result.Finalize()
		return result, errutil.Handle(ctx, err, "failed to resolve forget target")
	}

	vectors, err := uc.index.Delete(ctx, forgetIndexFilter(req))
	result.VectorsDeleted = vectors
	if err != nil {
		result.Finalize()
		return result, errutil.Handle(ctx, err, "vector deletion failed")
	}

	references, err := uc.repo.Transcript().PurgeReferences(ctx, ids)
	result.ReferencesDeleted = references
	if err != nil {
		result.Finalize()
		return result, errutil.Handle(ctx, err, "reference purge failed")
	}

	marked, err := uc.repo.Document().MarkDeleted(ctx, ids)
	result.DocumentsMarkedDeleted = marked
	if err != nil {
		result.Finalize()
		return result, errutil.Handle(ctx, err, "registry update failed")
	}

	// Forgetting a sender also drops the derived relationship. The count is
	// recorded as an audit detail, not in the three erasure counts.
	contactsDeleted := 0
	if req.Sender != "" {
		contactsDeleted, err = uc.repo.Contact().DeleteBySender(ctx, req.Sender)
		if err != nil {
			result.Finalize()
			return result, errutil.Handle(ctx, err, "contact deletion failed")
		}
	}

	result.Finalize()

	entry, err := uc.repo.Audit().Append(ctx, &model.AuditEntry{
		Operation:  types.OperationDelete,
		EntityType: req.EntityType(),
		EntityID:   req.EntityID(),
		Details: map[string]any{
			"reason":                   req.Reason,
			"vectors_deleted":          result.VectorsDeleted,
			"references_deleted":       result.ReferencesDeleted,
			"documents_marked_deleted": result.DocumentsMarkedDeleted,
			"total_deleted":            result.TotalDeleted,
			"contacts_deleted":         contactsDeleted,
		},
	})
	if err != nil {
		return result, errutil.Handle(ctx, err, "forget completed but audit write failed")
	}
	result.AuditID = entry.ID
	result.Success = true

	logging.From(ctx).Info("forget completed",
		"entity_type", result.EntityType,
		"entity_id", result.EntityID,
		"total_deleted", result.TotalDeleted,
		"audit_id", result.AuditID,
	)

	return result, nil
}

// resolveTargetDocuments lists the active registry documents the request
// covers. A document target resolves to itself so that vectors orphaned by
// an incomplete earlier run can still be reached.
func (uc *UseCases) resolveTargetDocuments(ctx context.Context, req *model.ForgetRequest) ([]types.DocumentID, error) {
	if req.DocumentID != "" {
		return []types.DocumentID{req.DocumentID}, nil
	}

	filter := &interfaces.DocumentFilter{Status: types.DocumentStatusActive}
	if req.Sender != "" {
		filter.Sender = req.Sender
	} else {
		filter.SourceType = req.SourceType
	}

	docs, err := uc.repo.Document().List(ctx, filter)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list target documents")
	}

	ids := make([]types.DocumentID, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

func forgetIndexFilter(req *model.ForgetRequest) *model.IndexFilter {
	switch {
	case req.DocumentID != "":
		return &model.IndexFilter{DocumentID: req.DocumentID}
	case req.Sender != "":
		return &model.IndexFilter{Sender: req.Sender}
	default:
		return &model.IndexFilter{SourceType: req.SourceType}
	}
}

// ListDeletions returns the audit trail of forget operations, newest first
func (uc *UseCases) ListDeletions(ctx context.Context, limit int) ([]*model.AuditEntry, error) {
	entries, err := uc.repo.Audit().List(ctx, &interfaces.AuditFilter{
		Operation: types.OperationDelete,
		Limit:     limit,
	})
	if err != nil {
		return nil, errutil.Handle(ctx, err, "failed to list deletion records")
	}
	return entries, nil
}

// DeletionReport is the deletion audit trail with its counts summed.
type DeletionReport struct {
	Entries                []*model.AuditEntry `json:"entries"`
	Operations             int                 `json:"operations"`
	VectorsDeleted         int                 `json:"vectors_deleted"`
	ReferencesDeleted      int                 `json:"references_deleted"`
	DocumentsMarkedDeleted int                 `json:"documents_marked_deleted"`
	TotalDeleted           int                 `json:"total_deleted"`
}

// GetDeletionReport aggregates the forget audit trail. Counts come from the
// audit details of each delete entry.
func (uc *UseCases) GetDeletionReport(ctx context.Context, limit int) (*DeletionReport, error) {
	entries, err := uc.ListDeletions(ctx, limit)
	if err != nil {
		return nil, err
	}

	report := &DeletionReport{Entries: entries, Operations: len(entries)}
	for _, entry := range entries {
		report.VectorsDeleted += detailCount(entry.Details, "vectors_deleted")
		report.ReferencesDeleted += detailCount(entry.Details, "references_deleted")
		report.DocumentsMarkedDeleted += detailCount(entry.Details, "documents_marked_deleted")
		report.TotalDeleted += detailCount(entry.Details, "total_deleted")
	}
	return report, nil
}

// detailCount reads a numeric audit detail. Firestore round-trips numbers as
// int64, the memory backend keeps the original int.
func detailCount(details map[string]any, key string) int {
	switch v := details[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
