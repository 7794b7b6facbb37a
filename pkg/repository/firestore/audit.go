package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/interfaces"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type auditRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newAuditRepository(client *firestore.Client) *auditRepository {
	return &auditRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *auditRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_audit_log"
	}
	return "audit_log"
}

func (r *auditRepository) counterCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_counters"
	}
	return "counters"
}

func (r *auditRepository) nextID(ctx context.Context) (int64, error) {
	counterRef := r.client.Collection(r.counterCollection()).Doc("audit_counter")

	var nextID int64
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(counterRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				nextID = 1
				return tx.Set(counterRef, map[string]interface{}{
					"value": nextID,
				})
			}
			return goerr.Wrap(err, "failed to get counter")
		}

		currentValue, err := doc.DataAt("value")
		if err != nil {
			return goerr.Wrap(err, "failed to get counter value")
		}

		val, ok := currentValue.(int64)
		if !ok {
			return goerr.New("counter value is not of type int64", goerr.V("value", currentValue))
		}
		nextID = val + 1
		return tx.Update(counterRef, []firestore.Update{
			{Path: "value", Value: nextID},
		})
	})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to get next audit ID")
	}

	return nextID, nil
}

func (r *auditRepository) Append(ctx context.Context, entry *model.AuditEntry) (*model.AuditEntry, error) {
	if err := entry.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid audit entry")
	}

	id, err := r.nextID(ctx)
	if err != nil {
		return nil, err
	}

	appended := entry.Clone()
	appended.ID = id
	appended.Timestamp = time.Now().UTC()

	docID := fmt.Sprintf("%020d", appended.ID)
	if _, err := r.client.Collection(r.collection()).Doc(docID).Set(ctx, appended); err != nil {
		return nil, goerr.Wrap(err, "failed to append audit entry", goerr.V("id", appended.ID))
	}

	return appended, nil
}

func (r *auditRepository) List(ctx context.Context, filter *interfaces.AuditFilter) ([]*model.AuditEntry, error) {
	query := r.client.Collection(r.collection()).Query
	if filter != nil {
		if filter.Operation != "" {
			query = query.Where("Operation", "==", filter.Operation.String())
		}
		if filter.EntityType != "" {
			query = query.Where("EntityType", "==", filter.EntityType.String())
		}
	}
	// The range filter must be the first ordering field, so the query falls
	// back to timestamp ordering when Since is set.
	if filter != nil && filter.Since != nil {
		query = query.Where("Timestamp", ">=", *filter.Since).OrderBy("Timestamp", firestore.Desc)
	} else {
		query = query.OrderBy("ID", firestore.Desc)
	}
	if filter != nil && filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	entries := []*model.AuditEntry{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate audit entries")
		}

		var entry model.AuditEntry
		if err := snap.DataTo(&entry); err != nil {
			return nil, goerr.Wrap(err, "failed to decode audit entry", goerr.V("doc_id", snap.Ref.ID))
		}
		entries = append(entries, &entry)
	}

	return entries, nil
}
