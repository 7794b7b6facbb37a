package model

// ContextFragment is one chunk admitted to the generation context
type ContextFragment struct {
	Result *RankedResult
	Tokens int
}

// ContextWindow is the assembled model context with its admission accounting.
// Fragments keep rank order; skipped candidates are counted, never silently
// dropped.
type ContextWindow struct {
	Fragments  []ContextFragment
	TokensUsed int
	MaxTokens  int
	// OverflowDocuments and OverflowTokens account for ranked results that
	// did not fit within MaxTokens.
	OverflowDocuments int
	OverflowTokens    int
}

// Empty reports whether nothing entered the context
func (w *ContextWindow) Empty() bool {
	return w == nil || len(w.Fragments) == 0
}

// Utilization is the used fraction of the token budget
func (w *ContextWindow) Utilization() float64 {
	if w == nil || w.MaxTokens <= 0 {
		return 0
	}
	return float64(w.TokensUsed) / float64(w.MaxTokens)
}

// EstimateTokens approximates the token count of a text at 4 characters
// per token. Context assembly only needs a deterministic bound.
func EstimateTokens(text string) int {
	return len(text) / 4
}
