package interfaces

import (
	"context"
	"time"

	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
)

// AuditFilter selects audit entries. Zero fields match everything.
type AuditFilter struct {
	Operation  types.Operation
	EntityType types.EntityType
	Since      *time.Time
	Limit      int
}

// AuditRepository is the append-only log of privacy-relevant operations.
// Entries are immutable and never deleted.
type AuditRepository interface {
	// Append validates and stores the entry, assigning the next monotonic
	// ID and the timestamp.
	Append(ctx context.Context, entry *model.AuditEntry) (*model.AuditEntry, error)

	// List retrieves entries matching the filter, newest first
	List(ctx context.Context, filter *AuditFilter) ([]*model.AuditEntry, error)
}
