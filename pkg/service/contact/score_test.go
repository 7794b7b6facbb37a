package contact_test

import (
	"math"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"github.com/flatplanetpl/poc-digital-twin/pkg/service/contact"
)

func TestScore(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	t.Run("moderate contact across two channels", func(t *testing.T) {
		// 100 messages over 100 days is 30/month: frequency 0.3.
		// Last interaction today: recency 1.0. Two sources: diversity 0.2.
		// 0.4*0.3 + 0.4*1.0 + 0.2*0.2 = 0.56
		first := now.AddDate(0, 0, -100)
		rel := &model.ContactRelationship{
			ContactName:      "Anna Kowalska",
			NormalizedName:   "anna kowalska",
			MessageCount:     100,
			FirstInteraction: &first,
			LastInteraction:  &now,
			Sources:          []string{"email", "conversation"},
		}

		score := contact.Score(rel, now)
		gt.B(t, math.Abs(score-0.56) < 1e-9).True()
	})

	t.Run("frequency saturates at 100 messages per month", func(t *testing.T) {
		first := now.AddDate(0, 0, -30)
		rel := &model.ContactRelationship{
			MessageCount:     5000,
			FirstInteraction: &first,
			LastInteraction:  &now,
			Sources:          []string{"email"},
		}

		// frequency capped at 0.4, recency 1.0, no diversity:
		// 0.4*0.4 + 0.4*1.0 = 0.56
		score := contact.Score(rel, now)
		gt.B(t, math.Abs(score-0.56) < 1e-9).True()
	})

	t.Run("a saturated daily contact on two channels scores 0.6", func(t *testing.T) {
		// 120 messages over 30 days is 120/month: frequency capped at 0.4.
		// 0.4*0.4 + 0.4*1.0 + 0.2*0.2 = 0.6
		first := now.AddDate(0, 0, -30)
		rel := &model.ContactRelationship{
			MessageCount:     120,
			FirstInteraction: &first,
			LastInteraction:  &now,
			Sources:          []string{"email", "conversation"},
		}

		score := contact.Score(rel, now)
		gt.B(t, math.Abs(score-0.6) < 1e-9).True()
	})

	t.Run("recency reaches zero after a year of silence", func(t *testing.T) {
		first := now.AddDate(-3, 0, 0)
		last := now.AddDate(0, 0, -400)
		rel := &model.ContactRelationship{
			MessageCount:     10,
			FirstInteraction: &first,
			LastInteraction:  &last,
			Sources:          []string{"email"},
		}

		score := contact.Score(rel, now)
		// only the residual frequency remains
		gt.B(t, score < 0.01).True()
	})

	t.Run("single source earns no diversity", func(t *testing.T) {
		first := now.AddDate(0, 0, -10)
		single := &model.ContactRelationship{
			MessageCount:     10,
			FirstInteraction: &first,
			LastInteraction:  &now,
			Sources:          []string{"email"},
		}
		multi := single.Clone()
		multi.Sources = []string{"email", "contact"}

		// The diversity term adds 0.2 weighted by 0.2.
		gt.B(t, math.Abs(contact.Score(multi, now)-contact.Score(single, now)-0.04) < 1e-9).True()
	})

	t.Run("empty relationship scores zero", func(t *testing.T) {
		rel := &model.ContactRelationship{}
		gt.V(t, contact.Score(rel, now)).Equal(0.0)
	})

	t.Run("first day of contact does not divide by zero", func(t *testing.T) {
		rel := &model.ContactRelationship{
			MessageCount:     3,
			FirstInteraction: &now,
			LastInteraction:  &now,
			Sources:          []string{"conversation"},
		}

		score := contact.Score(rel, now)
		gt.B(t, score > 0 && score <= 1).True()
	})
}
