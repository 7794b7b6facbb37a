package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
)

// TranscriptID identifies a stored query transcript
type TranscriptID string

// NewTranscriptID generates a time-ordered transcript ID
func NewTranscriptID() TranscriptID {
	return TranscriptID(uuid.Must(uuid.NewV7()).String())
}

// Transcript is a saved record of one answered query. Its citations embed
// document IDs, so the forget path purges matching citations from transcripts
// as part of reference deletion.
type Transcript struct {
	ID        TranscriptID
	Question  string
	Answer    string
	Citations []Citation
	CreatedAt time.Time
}

// ReferencesDocument reports whether any citation points at the document
func (t *Transcript) ReferencesDocument(id types.DocumentID) bool {
	for _, c := range t.Citations {
		if c.DocumentID == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the transcript
func (t *Transcript) Clone() *Transcript {
	copied := *t
	copied.Citations = append([]Citation(nil), t.Citations...)
	return &copied
}
