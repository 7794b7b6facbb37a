package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/interfaces"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
)

type auditRepository struct {
	mu      sync.RWMutex
	entries []*model.AuditEntry
	nextID  int64
}

func newAuditRepository() *auditRepository {
	return &auditRepository{nextID: 1}
}

func (r *auditRepository) Append(ctx context.Context, entry *model.AuditEntry) (*model.AuditEntry, error) {
	if err := entry.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid audit entry")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	appended := entry.Clone()
	appended.ID = r.nextID
	appended.Timestamp = time.Now().UTC()
	r.nextID++

	r.entries = append(r.entries, appended)
	return appended.Clone(), nil
}

func (r *auditRepository) List(ctx context.Context, filter *interfaces.AuditFilter) ([]*model.AuditEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := []*model.AuditEntry{}
	for i := len(r.entries) - 1; i >= 0; i-- {
		entry := r.entries[i]
		if !matchesAuditFilter(entry, filter) {
			continue
		}
		entries = append(entries, entry.Clone())
		if filter != nil && filter.Limit > 0 && len(entries) >= filter.Limit {
			break
		}
	}

	return entries, nil
}

func matchesAuditFilter(entry *model.AuditEntry, filter *interfaces.AuditFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Operation != "" && entry.Operation != filter.Operation {
		return false
	}
	if filter.EntityType != "" && entry.EntityType != filter.EntityType {
		return false
	}
	if filter.Since != nil && entry.Timestamp.Before(*filter.Since) {
		return false
	}
	return true
}
