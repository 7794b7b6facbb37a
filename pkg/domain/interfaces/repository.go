package interfaces

// Repository bundles the persistence stores behind one facade with
// interchangeable backends (Firestore for production, in-memory for
// development and tests).
type Repository interface {
	Document() DocumentRepository
	Transcript() TranscriptRepository
	Contact() ContactRepository
	Audit() AuditRepository

	Close() error
}
