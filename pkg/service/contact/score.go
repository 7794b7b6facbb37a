package contact

import (
	"time"

	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
)

// Score computes relationship strength in [0,1] at the given time:
//
//	score = 0.4*frequency + 0.4*recency + 0.2*diversity
//
// frequency is messages per month capped at 0.4 (100 messages per month and
// above saturate it), recency decays linearly over a year since the last
// interaction, and diversity is 0.2 when the contact spans more than one
// source channel. Same recency philosophy as document ranking, applied to
// relationships.
func Score(rel *model.ContactRelationship, now time.Time) float64 {
	var frequency float64
	if rel.FirstInteraction != nil && rel.MessageCount > 0 {
		daysKnown := now.Sub(*rel.FirstInteraction).Hours() / 24
		if daysKnown < 1 {
			daysKnown = 1
		}
		perMonth := float64(rel.MessageCount) / daysKnown * 30
		frequency = perMonth / 100
		if frequency > 0.4 {
			frequency = 0.4
		}
	}

	var recency float64
	if rel.LastInteraction != nil {
		daysSince := now.Sub(*rel.LastInteraction).Hours() / 24
		if daysSince < 0 {
			daysSince = 0
		}
		recency = 1 - daysSince/365
		if recency < 0 {
			recency = 0
		}
	}

	var diversity float64
	if len(rel.Sources) > 1 {
		diversity = 0.2
	}

	return 0.4*frequency + 0.4*recency + 0.2*diversity
}
