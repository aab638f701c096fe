package audit

import (
	"sync"

	"tm-go/internal/tm"
)

// MemoryLog is an in-memory tm.Auditor for tests.
type MemoryLog struct {
	mu      sync.Mutex
	entries []tm.AuditEntry
	nextID  int64
}

var _ tm.Auditor = (*MemoryLog)(nil)

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{nextID: 1}
}

func (l *MemoryLog) Record(entry tm.AuditEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.ID = l.nextID
	l.nextID++
	l.entries = append(l.entries, entry)
	return nil
}

func (l *MemoryLog) List(limit int) ([]tm.AuditEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]tm.AuditEntry, 0, limit)
	for i := len(l.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.entries[i])
	}
	return out, nil
}

func (l *MemoryLog) Close() error { return nil }
