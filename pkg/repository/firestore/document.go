package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/interfaces"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type documentRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newDocumentRepository(client *firestore.Client) *documentRepository {
	return &documentRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *documentRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_documents"
	}
	return "documents"
}

func (r *documentRepository) Register(ctx context.Context, doc *model.Document) (*model.Document, error) {
	if err := doc.ID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid document ID")
	}

	docRef := r.client.Collection(r.collection()).Doc(doc.ID.String())

	now := time.Now().UTC()
	registered := doc.Clone()
	registered.Status = types.DocumentStatusActive
	registered.IndexedAt = now
	registered.UpdatedAt = now

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return tx.Set(docRef, registered)
			}
			return goerr.Wrap(err, "failed to check document existence")
		}

		var existing model.Document
		if err := snap.DataTo(&existing); err != nil {
			return goerr.Wrap(err, "failed to decode document")
		}
		if existing.Status == types.DocumentStatusDeleted {
			return goerr.New("document ID was forgotten and cannot be reused",
				goerr.V("id", doc.ID))
		}

		registered.IndexedAt = existing.IndexedAt
		return tx.Set(docRef, registered)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to register document", goerr.V("id", doc.ID))
	}

	return registered, nil
}

func (r *documentRepository) Get(ctx context.Context, id types.DocumentID) (*model.Document, error) {
	snap, err := r.client.Collection(r.collection()).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "document not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get document", goerr.V("id", id))
	}

	var doc model.Document
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode document", goerr.V("id", id))
	}

	return &doc, nil
}

func (r *documentRepository) List(ctx context.Context, filter *interfaces.DocumentFilter) ([]*model.Document, error) {
	query := r.client.Collection(r.collection()).Query
	if filter != nil {
		if filter.Status != "" {
			query = query.Where("Status", "==", filter.Status.String())
		}
		if filter.SourceType != "" {
			query = query.Where("SourceType", "==", filter.SourceType.String())
		}
		if filter.Sender != "" {
			query = query.Where("Sender", "==", filter.Sender)
		}
	}
	query = query.OrderBy("IndexedAt", firestore.Desc)
	if filter != nil && filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	docs := []*model.Document{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate documents")
		}

		var doc model.Document
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode document", goerr.V("doc_id", snap.Ref.ID))
		}
		docs = append(docs, &doc)
	}

	return docs, nil
}

func (r *documentRepository) MarkDeleted(ctx context.Context, ids []types.DocumentID) (int, error) {
	now := time.Now().UTC()
	marked := 0

	for _, id := range ids {
		docRef := r.client.Collection(r.collection()).Doc(id.String())

		err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
			snap, err := tx.Get(docRef)
			if err != nil {
				return err
			}

			var doc model.Document
			if err := snap.DataTo(&doc); err != nil {
				return goerr.Wrap(err, "failed to decode document")
			}
			if doc.Status == types.DocumentStatusDeleted {
				return nil
			}

			marked++
			return tx.Update(docRef, []firestore.Update{
				{Path: "Status", Value: types.DocumentStatusDeleted.String()},
				{Path: "UpdatedAt", Value: now},
			})
		})
		if err != nil {
			if status.Code(err) == codes.NotFound {
				continue
			}
			return marked, goerr.Wrap(err, "failed to mark document deleted", goerr.V("id", id))
		}
	}

	return marked, nil
}

func (r *documentRepository) SetFlags(ctx context.Context, id types.DocumentID, pinned, approved *bool) (*model.Document, error) {
	docRef := r.client.Collection(r.collection()).Doc(id.String())

	var updated model.Document
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "document not found", goerr.V("id", id))
			}
			return goerr.Wrap(err, "failed to get document", goerr.V("id", id))
		}

		if err := snap.DataTo(&updated); err != nil {
			return goerr.Wrap(err, "failed to decode document", goerr.V("id", id))
		}
		if updated.Status == types.DocumentStatusDeleted {
			return goerr.New("cannot update flags on a deleted document", goerr.V("id", id))
		}

		if pinned != nil {
			updated.IsPinned = *pinned
		}
		if approved != nil {
			updated.IsApproved = *approved
		}
		updated.UpdatedAt = time.Now().UTC()

		return tx.Set(docRef, &updated)
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}
