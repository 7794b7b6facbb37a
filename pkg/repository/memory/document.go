package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/interfaces"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
)

type documentRepository struct {
	mu   sync.RWMutex
	docs map[types.DocumentID]*model.Document
}

func newDocumentRepository() *documentRepository {
	return &documentRepository{
		docs: make(map[types.DocumentID]*model.Document),
	}
}

func (r *documentRepository) Register(ctx context.Context, doc *model.Document) (*model.Document, error) {
	if err := doc.ID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid document ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	registered := doc.Clone()

	if existing, ok := r.docs[doc.ID]; ok {
		if existing.Status == types.DocumentStatusDeleted {
			return nil, goerr.New("document ID was forgotten and cannot be reused",
				goerr.V("id", doc.ID))
		}
		registered.IndexedAt = existing.IndexedAt
	} else {
		registered.IndexedAt = now
	}

	registered.Status = types.DocumentStatusActive
	registered.UpdatedAt = now
	r.docs[registered.ID] = registered

	return registered.Clone(), nil
}

func (r *documentRepository) Get(ctx context.Context, id types.DocumentID) (*model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "document not found", goerr.V("id", id))
	}

	return doc.Clone(), nil
}

func (r *documentRepository) List(ctx context.Context, filter *interfaces.DocumentFilter) ([]*model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	docs := []*model.Document{}
	for _, doc := range r.docs {
		if !matchesDocumentFilter(doc, filter) {
			continue
		}
		docs = append(docs, doc.Clone())
	}

	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].IndexedAt.Equal(docs[j].IndexedAt) {
			return docs[i].IndexedAt.After(docs[j].IndexedAt)
		}
		return docs[i].ID < docs[j].ID
	})

	if filter != nil && filter.Limit > 0 && len(docs) > filter.Limit {
		docs = docs[:filter.Limit]
	}

	return docs, nil
}

func (r *documentRepository) MarkDeleted(ctx context.Context, ids []types.DocumentID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	marked := 0
	for _, id := range ids {
		doc, ok := r.docs[id]
		if !ok || doc.Status == types.DocumentStatusDeleted {
			continue
		}
		doc.Status = types.DocumentStatusDeleted
		doc.UpdatedAt = now
		marked++
	}

	return marked, nil
}

func (r *documentRepository) SetFlags(ctx context.Context, id types.DocumentID, pinned, approved *bool) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "document not found", goerr.V("id", id))
	}
	if doc.Status == types.DocumentStatusDeleted {
		return nil, goerr.New("cannot update flags on a deleted document", goerr.V("id", id))
	}

	if pinned != nil {
		doc.IsPinned = *pinned
	}
	if approved != nil {
		doc.IsApproved = *approved
	}
	doc.UpdatedAt = time.Now().UTC()

	return doc.Clone(), nil
}

func matchesDocumentFilter(doc *model.Document, filter *interfaces.DocumentFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Status != "" && doc.Status != filter.Status {
		return false
	}
	if filter.SourceType != "" && doc.SourceType != filter.SourceType {
		return false
	}
	if filter.Sender != "" && doc.Sender != filter.Sender {
		return false
	}
	return true
}
