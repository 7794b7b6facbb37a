package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type contactRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

// contactDoc is the stored form of a relationship. The derived interaction
// score is not persisted; it is recomputed on read.
type contactDoc struct {
	ContactName      string
	NormalizedName   string
	MessageCount     int
	FirstInteraction *time.Time
	LastInteraction  *time.Time
	Sources          []string
}

func (d *contactDoc) toModel() *model.ContactRelationship {
	return &model.ContactRelationship{
		ContactName:      d.ContactName,
		NormalizedName:   d.NormalizedName,
		MessageCount:     d.MessageCount,
		FirstInteraction: d.FirstInteraction,
		LastInteraction:  d.LastInteraction,
		Sources:          d.Sources,
	}
}

func newContactRepository(client *firestore.Client) *contactRepository {
	return &contactRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *contactRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_contacts"
	}
	return "contacts"
}

func (r *contactRepository) RecordInteraction(ctx context.Context, name, source string, at time.Time, messages int) (*model.ContactRelationship, error) {
	normalized := model.NormalizeContactName(name)
	if normalized == "" {
		return nil, goerr.New("contact name is empty")
	}

	docRef := r.client.Collection(r.collection()).Doc(normalized)

	var updated contactDoc
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return goerr.Wrap(err, "failed to get contact")
			}
			updated = contactDoc{
				ContactName:    name,
				NormalizedName: normalized,
			}
		} else if err := snap.DataTo(&updated); err != nil {
			return goerr.Wrap(err, "failed to decode contact")
		}

		updated.MessageCount += messages
		t := at
		if updated.FirstInteraction == nil || t.Before(*updated.FirstInteraction) {
			updated.FirstInteraction = &t
		}
		if updated.LastInteraction == nil || t.After(*updated.LastInteraction) {
			updated.LastInteraction = &t
		}
		if source != "" {
			found := false
			for _, s := range updated.Sources {
				if s == source {
					found = true
					break
				}
			}
			if !found {
				updated.Sources = append(updated.Sources, source)
			}
		}

		return tx.Set(docRef, &updated)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to record interaction", goerr.V("name", normalized))
	}

	return updated.toModel(), nil
}

func (r *contactRepository) Get(ctx context.Context, normalizedName string) (*model.ContactRelationship, error) {
	snap, err := r.client.Collection(r.collection()).Doc(normalizedName).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "contact not found", goerr.V("name", normalizedName))
		}
		return nil, goerr.Wrap(err, "failed to get contact", goerr.V("name", normalizedName))
	}

	var doc contactDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode contact", goerr.V("name", normalizedName))
	}

	return doc.toModel(), nil
}

func (r *contactRepository) List(ctx context.Context) ([]*model.ContactRelationship, error) {
	iter := r.client.Collection(r.collection()).OrderBy("NormalizedName", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	contacts := []*model.ContactRelationship{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate contacts")
		}

		var doc contactDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode contact", goerr.V("doc_id", snap.Ref.ID))
		}
		contacts = append(contacts, doc.toModel())
	}

	return contacts, nil
}

func (r *contactRepository) DeleteBySender(ctx context.Context, sender string) (int, error) {
	normalized := model.NormalizeContactName(sender)
	docRef := r.client.Collection(r.collection()).Doc(normalized)

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return 0, nil
		}
		return 0, goerr.Wrap(err, "failed to check contact existence", goerr.V("name", normalized))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return 0, goerr.Wrap(err, "failed to delete contact", goerr.V("name", normalized))
	}

	return 1, nil
}
