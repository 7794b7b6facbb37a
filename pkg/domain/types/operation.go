package types

// Operation is the kind of privacy-relevant operation recorded in the audit log
type Operation string

const (
	OperationIndex  Operation = "index"
	OperationDelete Operation = "delete"
	OperationUpdate Operation = "update"
	OperationQuery  Operation = "query"
	OperationSearch Operation = "search"
)

// IsValid checks if the operation is valid
func (o Operation) IsValid() bool {
	switch o {
	case OperationIndex, OperationDelete, OperationUpdate, OperationQuery, OperationSearch:
		return true
	default:
		return false
	}
}

// String returns the string representation of the operation
func (o Operation) String() string {
	return string(o)
}

// EntityType is the kind of entity an audit entry refers to
type EntityType string

const (
	EntityTypeDocument   EntityType = "document"
	EntityTypeSender     EntityType = "sender"
	EntityTypeSourceType EntityType = "source_type"
	EntityTypeContact    EntityType = "contact"
	EntityTypeTranscript EntityType = "transcript"
)

// String returns the string representation of the entity type
func (e EntityType) String() string {
	return string(e)
}
