package model

import (
	"time"

	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
)

// RetrievalExplanation shows why one document was selected, copied verbatim
// from the ranking output so explanation and answer can never disagree.
type RetrievalExplanation struct {
	DocumentID           types.DocumentID `json:"document_id"`
	Filename             string           `json:"filename"`
	SourceType           types.SourceType `json:"source_type"`
	Similarity           float64          `json:"similarity_score"`
	PriorityScore        float64          `json:"priority_score"`
	FinalScore           float64          `json:"final_score"`
	TypeContribution     float64          `json:"type_contribution"`
	RecencyContribution  float64          `json:"recency_contribution"`
	ApprovalContribution float64          `json:"approval_contribution"`
	Rank                 int              `json:"rank"`
}

// ContextExplanation summarizes context window admission
type ContextExplanation struct {
	TokensUsed        int     `json:"tokens_used"`
	MaxTokens         int     `json:"max_tokens"`
	Utilization       float64 `json:"utilization"`
	FragmentCount     int     `json:"fragment_count"`
	OverflowDocuments int     `json:"overflow_documents"`
	OverflowTokens    int     `json:"overflow_tokens"`
}

// Timings are the three independently measured intervals of one query
type Timings struct {
	Retrieval  time.Duration `json:"retrieval"`
	Generation time.Duration `json:"generation"`
	Total      time.Duration `json:"total"`
}

// Explanation is the full trace of one query's ranking and timing decisions.
// It is purely observational: recording it never changes the answer.
type Explanation struct {
	Retrieved   []RetrievalExplanation `json:"documents_retrieved"`
	Context     ContextExplanation     `json:"context_window"`
	Timings     Timings                `json:"timings"`
	Filters     map[string]string      `json:"filters_applied,omitempty"`
	LLMProvider string                 `json:"llm_provider"`
	LLMModel    string                 `json:"llm_model"`
	FetchK      int                    `json:"fetch_k"`
	TopK        int                    `json:"top_k"`
	Timestamp   time.Time              `json:"timestamp"`
}
