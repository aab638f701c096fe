package tm

import "time"

// AuditEntry records one mutating operation against the document.
type AuditEntry struct {
	ID        int64
	Operation string // e.g. "user.create", "assignment.approve"
	ActorID   string // user who performed the operation, when known
	EntityID  string // primary record the operation touched
	Detail    string
	CreatedAt time.Time
}

// Auditor is an append-only log of mutating operations. Unlike the document
// itself, audit entries survive user deletion and document imports.
type Auditor interface {
	// Record appends an entry. The implementation assigns ID and persists
	// CreatedAt as given.
	Record(entry AuditEntry) error

	// List returns the most recent entries, newest first.
	List(limit int) ([]AuditEntry, error)

	// Close closes the underlying storage.
	Close() error
}
