package types

// SourceType classifies where an ingested chunk came from.
// The ranking engine treats it as an opaque label with a configured weight;
// values outside this list are accepted and simply carry zero type weight.
type SourceType string

const (
	SourceTypeDecision      SourceType = "decision"
	SourceTypeNote          SourceType = "note"
	SourceTypeEmail         SourceType = "email"
	SourceTypeConversation  SourceType = "conversation"
	SourceTypeProfile       SourceType = "profile"
	SourceTypeContact       SourceType = "contact"
	SourceTypeLocation      SourceType = "location"
	SourceTypeSearchHistory SourceType = "search_history"
	SourceTypeInterest      SourceType = "interest"
)

// AllSourceTypes returns all source types with a built-in priority weight
func AllSourceTypes() []SourceType {
	return []SourceType{
		SourceTypeDecision,
		SourceTypeNote,
		SourceTypeEmail,
		SourceTypeConversation,
		SourceTypeProfile,
		SourceTypeContact,
		SourceTypeLocation,
		SourceTypeSearchHistory,
		SourceTypeInterest,
	}
}

// IsKnown reports whether the source type has a built-in priority weight
func (s SourceType) IsKnown() bool {
	for _, t := range AllSourceTypes() {
		if s == t {
			return true
		}
	}
	return false
}

// String returns the string representation of the source type
func (s SourceType) String() string {
	return string(s)
}
