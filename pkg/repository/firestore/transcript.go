package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type transcriptRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

// transcriptDoc is the stored form of a transcript. CitedDocuments duplicates
// the citation document IDs so reference purging can use an array-contains
// query instead of scanning every transcript.
type transcriptDoc struct {
	ID             string
	Question       string
	Answer         string
	Citations      []model.Citation
	CitedDocuments []string
	CreatedAt      time.Time
}

func toTranscriptDoc(t *model.Transcript) *transcriptDoc {
	cited := make([]string, 0, len(t.Citations))
	seen := map[string]bool{}
	for _, c := range t.Citations {
		id := c.DocumentID.String()
		if !seen[id] {
			seen[id] = true
			cited = append(cited, id)
		}
	}
	return &transcriptDoc{
		ID:             string(t.ID),
		Question:       t.Question,
		Answer:         t.Answer,
		Citations:      t.Citations,
		CitedDocuments: cited,
		CreatedAt:      t.CreatedAt,
	}
}

func (d *transcriptDoc) toModel() *model.Transcript {
	return &model.Transcript{
		ID:        model.TranscriptID(d.ID),
		Question:  d.Question,
		Answer:    d.Answer,
		Citations: d.Citations,
		CreatedAt: d.CreatedAt,
	}
}

func newTranscriptRepository(client *firestore.Client) *transcriptRepository {
	return &transcriptRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *transcriptRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_transcripts"
	}
	return "transcripts"
}

func (r *transcriptRepository) Save(ctx context.Context, transcript *model.Transcript) (*model.Transcript, error) {
	saved := transcript.Clone()
	if saved.ID == "" {
		saved.ID = model.NewTranscriptID()
	}
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now().UTC()
	}

	doc := toTranscriptDoc(saved)
	if _, err := r.client.Collection(r.collection()).Doc(doc.ID).Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to save transcript", goerr.V("id", saved.ID))
	}

	return saved, nil
}

func (r *transcriptRepository) Get(ctx context.Context, id model.TranscriptID) (*model.Transcript, error) {
	snap, err := r.client.Collection(r.collection()).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "transcript not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get transcript", goerr.V("id", id))
	}

	var doc transcriptDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode transcript", goerr.V("id", id))
	}

	return doc.toModel(), nil
}

func (r *transcriptRepository) List(ctx context.Context, limit int) ([]*model.Transcript, error) {
	query := r.client.Collection(r.collection()).OrderBy("CreatedAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	transcripts := []*model.Transcript{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate transcripts")
		}

		var doc transcriptDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode transcript", goerr.V("doc_id", snap.Ref.ID))
		}
		transcripts = append(transcripts, doc.toModel())
	}

	return transcripts, nil
}

func (r *transcriptRepository) PurgeReferences(ctx context.Context, ids []types.DocumentID) (int, error) {
	forgotten := make(map[types.DocumentID]bool, len(ids))
	for _, id := range ids {
		forgotten[id] = true
	}

	purged := 0
	for _, id := range ids {
		iter := r.client.Collection(r.collection()).
			Where("CitedDocuments", "array-contains", id.String()).
			Documents(ctx)

		for {
			snap, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				iter.Stop()
				return purged, goerr.Wrap(err, "failed to query transcripts by citation",
					goerr.V("document_id", id))
			}

			var doc transcriptDoc
			if err := snap.DataTo(&doc); err != nil {
				iter.Stop()
				return purged, goerr.Wrap(err, "failed to decode transcript", goerr.V("doc_id", snap.Ref.ID))
			}

			kept := doc.Citations[:0]
			removed := 0
			for _, c := range doc.Citations {
				if forgotten[c.DocumentID] {
					removed++
					continue
				}
				kept = append(kept, c)
			}
			if removed == 0 {
				continue
			}

			rewritten := doc.toModel()
			rewritten.Citations = kept
			if _, err := snap.Ref.Set(ctx, toTranscriptDoc(rewritten)); err != nil {
				iter.Stop()
				return purged, goerr.Wrap(err, "failed to purge transcript citations",
					goerr.V("transcript_id", doc.ID))
			}
			purged += removed
		}
		iter.Stop()
	}

	return purged, nil
}
