package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
)

// auditForbiddenKeys are detail keys that smell like document or query
// content. The audit log records operations, never what was said.
var auditForbiddenKeys = []string{"content", "text", "body", "message", "query_text", "answer"}

// auditMaxStringValue rejects detail strings long enough to be smuggled content
const auditMaxStringValue = 500

// AuditEntry is one immutable record of a privacy-relevant operation.
// ID is assigned by the audit store and increases monotonically.
type AuditEntry struct {
	ID         int64            `json:"id"`
	Timestamp  time.Time        `json:"timestamp"`
	Operation  types.Operation  `json:"operation"`
	EntityType types.EntityType `json:"entity_type"`
	EntityID   string           `json:"entity_id"`
	Details    map[string]any   `json:"details,omitempty"`
}

// Validate enforces the no-content rule on audit details
func (e *AuditEntry) Validate() error {
	if !e.Operation.IsValid() {
		return goerr.New("invalid audit operation", goerr.V("operation", e.Operation))
	}
	for _, key := range auditForbiddenKeys {
		if _, ok := e.Details[key]; ok {
			return goerr.New("audit details must not contain content",
				goerr.V("forbidden_key", key))
		}
	}
	for key, value := range e.Details {
		if s, ok := value.(string); ok && len(s) > auditMaxStringValue {
			return goerr.New("audit detail value is suspiciously long, use a count or hash instead",
				goerr.V("key", key), goerr.V("length", len(s)))
		}
	}
	return nil
}

// Clone returns a deep copy of the entry
func (e *AuditEntry) Clone() *AuditEntry {
	copied := *e
	if e.Details != nil {
		copied.Details = make(map[string]any, len(e.Details))
		for k, v := range e.Details {
			copied.Details[k] = v
		}
	}
	return &copied
}
