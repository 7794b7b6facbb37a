package model

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
)

// CitationFragmentLimit caps the quoted fragment carried by a citation
const CitationFragmentLimit = 100

// Citation traces one claim of an answer back to a document that was actually
// placed in the generation context.
type Citation struct {
	DocumentID types.DocumentID `json:"document_id"`
	SourceType types.SourceType `json:"source_type"`
	Filename   string           `json:"filename"`
	Date       *time.Time       `json:"date,omitempty"`
	Fragment   string           `json:"fragment"`
	Score      float64          `json:"score"`
}

// NewCitation derives a citation from a ranked result that entered context
func NewCitation(r *RankedResult) Citation {
	fragment := truncate(r.Chunk.Text, CitationFragmentLimit)
	return Citation{
		DocumentID: r.Chunk.DocumentID,
		SourceType: r.Chunk.SourceType,
		Filename:   r.Chunk.Filename,
		Date:       r.Chunk.Date,
		Fragment:   fragment,
		Score:      r.FinalScore,
	}
}

// Inline formats the citation the way the model is instructed to cite sources
func (c Citation) Inline() string {
	date := ""
	if c.Date != nil {
		date = c.Date.Format("2006-01-02")
	}
	frag := c.Fragment
	if len(frag) > 50 {
		frag = truncate(frag, 50) + "..."
	}
	return fmt.Sprintf("[Source: %s, %s, %q]", c.SourceType, date, frag)
}

// truncate caps a string at limit bytes without splitting a rune
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// NoContextAnswer is the fixed answer returned when nothing relevant was found
const NoContextAnswer = "I could not find this information in your data."

// GenerationFailedAnswer replaces the answer when the model call failed or
// timed out; ranking results are still returned alongside it.
const GenerationFailedAnswer = "Answer generation failed. The retrieved sources are preserved in the result."

// GroundedResponse is the final answer with its grounding evidence
type GroundedResponse struct {
	AnswerText string `json:"answer_text"`
	// Citations are ordered the way their fragments appeared in context.
	Citations  []Citation `json:"citations"`
	IsGrounded bool       `json:"is_grounded"`
	// NoContextFound is true when no candidate entered the context window.
	NoContextFound bool `json:"no_context_found"`
}
