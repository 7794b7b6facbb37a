package model

import (
	"strings"
	"time"
)

// ContactRelationship aggregates interaction history with one person across
// channels. The interaction score is derived on read and decays continuously
// with time rather than through deletion.
type ContactRelationship struct {
	ContactName      string     `json:"contact_name"`
	NormalizedName   string     `json:"normalized_name"`
	MessageCount     int        `json:"message_count"`
	FirstInteraction *time.Time `json:"first_interaction,omitempty"`
	LastInteraction  *time.Time `json:"last_interaction,omitempty"`
	// Sources is the set of channels the contact appeared in (email,
	// conversation, contact import).
	Sources          []string `json:"sources"`
	InteractionScore float64  `json:"interaction_score"`
}

// NormalizeContactName lowercases and collapses whitespace so the same person
// aggregates across sources that spell the name differently.
func NormalizeContactName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// HasSource reports whether the given channel is already recorded
func (r *ContactRelationship) HasSource(source string) bool {
	for _, s := range r.Sources {
		if s == source {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the relationship
func (r *ContactRelationship) Clone() *ContactRelationship {
	copied := *r
	if r.FirstInteraction != nil {
		t := *r.FirstInteraction
		copied.FirstInteraction = &t
	}
	if r.LastInteraction != nil {
		t := *r.LastInteraction
		copied.LastInteraction = &t
	}
	copied.Sources = append([]string(nil), r.Sources...)
	return &copied
}
