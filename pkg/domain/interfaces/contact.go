package interfaces

import (
	"context"
	"time"

	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
)

// ContactRepository stores per-contact interaction history keyed by
// normalized name.
type ContactRepository interface {
	// RecordInteraction incrementally updates the relationship: message
	// count, first/last interaction bounds, and the source channel set.
	RecordInteraction(ctx context.Context, name, source string, at time.Time, messages int) (*model.ContactRelationship, error)

	// Get retrieves a relationship by normalized name
	Get(ctx context.Context, normalizedName string) (*model.ContactRelationship, error)

	// List retrieves all relationships
	List(ctx context.Context) ([]*model.ContactRelationship, error)

	// DeleteBySender removes relationships whose normalized name matches
	// the sender, returning the number removed. Used by the forget path.
	DeleteBySender(ctx context.Context, sender string) (int, error)
}
