package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
)

type contactRepository struct {
	mu       sync.RWMutex
	contacts map[string]*model.ContactRelationship
}

func newContactRepository() *contactRepository {
	return &contactRepository{
		contacts: make(map[string]*model.ContactRelationship),
	}
}

func (r *contactRepository) RecordInteraction(ctx context.Context, name, source string, at time.Time, messages int) (*model.ContactRelationship, error) {
	normalized := model.NormalizeContactName(name)
	if normalized == "" {
		return nil, goerr.New("contact name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rel, ok := r.contacts[normalized]
	if !ok {
		rel = &model.ContactRelationship{
			ContactName:    name,
			NormalizedName: normalized,
		}
		r.contacts[normalized] = rel
	}

	rel.MessageCount += messages
	t := at
	if rel.FirstInteraction == nil || t.Before(*rel.FirstInteraction) {
		rel.FirstInteraction = &t
	}
	if rel.LastInteraction == nil || t.After(*rel.LastInteraction) {
		rel.LastInteraction = &t
	}
	if source != "" && !rel.HasSource(source) {
		rel.Sources = append(rel.Sources, source)
	}

	return rel.Clone(), nil
}

func (r *contactRepository) Get(ctx context.Context, normalizedName string) (*model.ContactRelationship, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rel, ok := r.contacts[normalizedName]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "contact not found", goerr.V("name", normalizedName))
	}

	return rel.Clone(), nil
}

func (r *contactRepository) List(ctx context.Context) ([]*model.ContactRelationship, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	contacts := make([]*model.ContactRelationship, 0, len(r.contacts))
	for _, rel := range r.contacts {
		contacts = append(contacts, rel.Clone())
	}

	sort.Slice(contacts, func(i, j int) bool {
		return contacts[i].NormalizedName < contacts[j].NormalizedName
	})

	return contacts, nil
}

func (r *contactRepository) DeleteBySender(ctx context.Context, sender string) (int, error) {
	normalized := model.NormalizeContactName(sender)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.contacts[normalized]; !ok {
		return 0, nil
	}

	delete(r.contacts, normalized)
	return 1, nil
}
