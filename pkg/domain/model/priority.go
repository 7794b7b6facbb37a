package model

// PriorityBreakdown is the per-call decomposition of a document's priority.
// It is derived on every ranking pass and never stored.
type PriorityBreakdown struct {
	// TypeComponent is the source type weight normalized by the largest
	// weight in the active table (0 for unknown types).
	TypeComponent float64
	// RecencyComponent decays linearly from 1 (today) to 0 (max age or older).
	// Undated documents get 0.
	RecencyComponent float64
	// ApprovalComponent is the pin/approval bonus normalized by the largest
	// bonus in the table.
	ApprovalComponent float64
	// Total is the mean of the three components, in [0,1].
	Total float64
}

// RetrievalCandidate is a raw similarity hit returned by the external index,
// before priority re-ranking.
type RetrievalCandidate struct {
	Chunk      *DocumentChunk
	Similarity float64
}

// RankedResult is a candidate after priority-weighted re-ranking.
// FinalScore = w_sim*Similarity + w_pri*Priority.Total.
type RankedResult struct {
	Chunk      *DocumentChunk
	Similarity float64
	Priority   PriorityBreakdown
	FinalScore float64
	// Rank is the 1-based position in the final ordering.
	Rank int
}
