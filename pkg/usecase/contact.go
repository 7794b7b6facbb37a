package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"github.com/flatplanetpl/poc-digital-twin/pkg/service/contact"
	"github.com/flatplanetpl/poc-digital-twin/pkg/utils/errutil"
)

// GetRelationship retrieves the relationship with a contact, scored at read
// time so the score decays with time without any background job. An exact
// normalized-name match is tried first, then a substring fallback; an
// ambiguous substring match picks the contact with the most messages.
func (uc *UseCases) GetRelationship(ctx context.Context, name string) (*model.ContactRelationship, error) {
	normalized := model.NormalizeContactName(name)
	if normalized == "" {
		return nil, goerr.Wrap(ErrInvalidRequest, "contact name is required")
	}

	rel, err := uc.repo.Contact().Get(ctx, normalized)
	if err != nil {
		rel, err = uc.findContactBySubstring(ctx, normalized)
		if err != nil {
			return nil, err
		}
	}

	rel.InteractionScore = contact.Score(rel, time.Now())
	return rel, nil
}

func (uc *UseCases) findContactBySubstring(ctx context.Context, normalized string) (*model.ContactRelationship, error) {
	contacts, err := uc.repo.Contact().List(ctx)
	if err != nil {
		return nil, errutil.Handle(ctx, err, "failed to list contacts")
	}

	var best *model.ContactRelationship
	for _, rel := range contacts {
		if !strings.Contains(rel.NormalizedName, normalized) {
			continue
		}
		if best == nil || rel.MessageCount > best.MessageCount {
			best = rel
		}
	}
	if best == nil {
		return nil, goerr.Wrap(ErrContactNotFound, "no contact matches", goerr.V("name", normalized))
	}
	return best, nil
}

// ListRelationships returns all contacts with their current scores
func (uc *UseCases) ListRelationships(ctx context.Context) ([]*model.ContactRelationship, error) {
	contacts, err := uc.repo.Contact().List(ctx)
	if err != nil {
		return nil, errutil.Handle(ctx, err, "failed to list contacts")
	}

	now := time.Now()
	for _, rel := range contacts {
		rel.InteractionScore = contact.Score(rel, now)
	}
	return contacts, nil
}

// RecordInteraction updates the interaction history with a contact
func (uc *UseCases) RecordInteraction(ctx context.Context, name, source string, at time.Time, messages int) (*model.ContactRelationship, error) {
	if messages <= 0 {
		messages = 1
	}

	rel, err := uc.repo.Contact().RecordInteraction(ctx, name, source, at, messages)
	if err != nil {
		return nil, errutil.Handle(ctx, err, "failed to record interaction")
	}

	rel.InteractionScore = contact.Score(rel, time.Now())
	return rel, nil
}
