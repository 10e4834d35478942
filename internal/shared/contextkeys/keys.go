package contextkeys

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "firestore-explorer context key " + string(c)
}

const (
	// RequestIDKey holds the per-request correlation ID.
	RequestIDKey = contextKey("requestID")
	// SubjectKey holds the authenticated token subject.
	SubjectKey = contextKey("subject")
	// CollectionPathKey holds the collection a request operates on.
	CollectionPathKey = contextKey("collectionPath")
	// OperationKey holds the use case name for logging.
	OperationKey = contextKey("operation")
)
