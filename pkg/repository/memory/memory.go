package memory

import (
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/interfaces"
)

// Memory is the in-memory repository backend for development and tests.
// All stores are safe for concurrent use and deep-copy data in and out.
type Memory struct {
	document   *documentRepository
	transcript *transcriptRepository
	contact    *contactRepository
	audit      *auditRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		document:   newDocumentRepository(),
		transcript: newTranscriptRepository(),
		contact:    newContactRepository(),
		audit:      newAuditRepository(),
	}
}

func (m *Memory) Document() interfaces.DocumentRepository {
	return m.document
}

func (m *Memory) Transcript() interfaces.TranscriptRepository {
	return m.transcript
}

func (m *Memory) Contact() interfaces.ContactRepository {
	return m.contact
}

func (m *Memory) Audit() interfaces.AuditRepository {
	return m.audit
}

func (m *Memory) Close() error {
	return nil
}
