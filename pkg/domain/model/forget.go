package model

import (
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
)

// ForgetRequest asks for erasure of all data matching exactly one target:
// a document, a sender, or a whole source type. Reason is mandatory and is
// recorded in the audit log.
type ForgetRequest struct {
	DocumentID types.DocumentID `json:"document_id,omitempty"`
	Sender     string           `json:"sender,omitempty"`
	SourceType types.SourceType `json:"source_type,omitempty"`
	Reason     string           `json:"reason"`
}

// Validate rejects requests without a reason or with other than exactly one target
func (r *ForgetRequest) Validate() error {
	if r.Reason == "" {
		return goerr.New("forget reason is required")
	}
	targets := 0
	if r.DocumentID != "" {
		targets++
	}
	if r.Sender != "" {
		targets++
	}
	if r.SourceType != "" {
		targets++
	}
	if targets != 1 {
		return goerr.New("forget request must target exactly one of document_id, sender, or source_type",
			goerr.V("targets", targets))
	}
	return nil
}

// EntityType returns the audit entity type of the resolved target
func (r *ForgetRequest) EntityType() types.EntityType {
	switch {
	case r.DocumentID != "":
		return types.EntityTypeDocument
	case r.Sender != "":
		return types.EntityTypeSender
	default:
		return types.EntityTypeSourceType
	}
}

// EntityID returns the identifier of the resolved target
func (r *ForgetRequest) EntityID() string {
	switch {
	case r.DocumentID != "":
		return r.DocumentID.String()
	case r.Sender != "":
		return r.Sender
	default:
		return r.SourceType.String()
	}
}

// PredicateKey serializes the resolved target for per-target locking.
// Forget operations on the same key never run concurrently.
func (r *ForgetRequest) PredicateKey() string {
	return fmt.Sprintf("%s:%s", r.EntityType(), r.EntityID())
}

// ForgetResult reports what a forget operation removed from each store.
// TotalDeleted is always the sum of the three counts; counts collected before
// a failing step are preserved.
type ForgetResult struct {
	VectorsDeleted         int              `json:"vectors_deleted"`
	ReferencesDeleted      int              `json:"references_deleted"`
	DocumentsMarkedDeleted int              `json:"documents_marked_deleted"`
	TotalDeleted           int              `json:"total_deleted"`
	Timestamp              time.Time        `json:"timestamp"`
	Reason                 string           `json:"reason"`
	AuditID                int64            `json:"audit_id"`
	Success                bool             `json:"success"`
	EntityType             types.EntityType `json:"entity_type"`
	EntityID               string           `json:"entity_id"`
}

// Finalize computes the aggregate count
func (r *ForgetResult) Finalize() {
	r.TotalDeleted = r.VectorsDeleted + r.ReferencesDeleted + r.DocumentsMarkedDeleted
}
