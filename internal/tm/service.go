package tm

import (
	"fmt"
	"sync"
	"time"
)

// Service owns the in-memory copy of the document and every operation over
// it. It is an explicit handle constructed once at application start and
// passed to consumers; there is no package-level instance.
//
// All operations are serialized by a single mutex. Within one process the
// invariants checked immediately before a commit therefore hold at commit
// time. Across processes sharing the same store there is no mutual
// exclusion: reconciliation is last-writer-wins at document granularity, so
// a write from one process can be silently overwritten by a later
// full-document write from another. That is an accepted limitation, not a
// conflict-free design.
type Service struct {
	store  DocumentStore
	audit  Auditor
	logger Logger
	clock  Clock
	idgen  IDGenerator

	mu       sync.RWMutex
	doc      *Document
	lastSync time.Time

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
	closed  bool
}

// NewService loads the document from store, runs the integrity validator and
// returns a ready service. audit may be nil to disable the audit trail.
func NewService(store DocumentStore, audit Auditor, logger Logger, clock Clock, idgen IDGenerator) (*Service, error) {
	doc, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	if ValidateDocument(doc) {
		// Pruning is a structural mutation and has to reach storage, but
		// it happens here rather than inside Load to keep the store's
		// initialization non-recursive.
		if err := store.Save(doc); err != nil {
			return nil, fmt.Errorf("persisting pruned document: %w", err)
		}
	}
	return &Service{
		store:    store,
		audit:    audit,
		logger:   logger,
		clock:    clock,
		idgen:    idgen,
		doc:      doc,
		lastSync: doc.Metadata.LastUpdated,
		subs:     make(map[int]chan Event),
	}, nil
}

// Close drops all event subscribers and closes the audit log.
func (s *Service) Close() error {
	s.subMu.Lock()
	s.closed = true
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.subMu.Unlock()

	if s.audit != nil {
		return s.audit.Close()
	}
	return nil
}

// Reconcile adopts the persisted document if it is newer than the last known
// sync point, re-validates it and broadcasts a change event. It reports
// whether newer external state was adopted.
func (s *Service) Reconcile() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconcileLocked()
}

func (s *Service) reconcileLocked() (bool, error) {
	persisted, err := s.store.Load()
	if err != nil {
		return false, fmt.Errorf("loading persisted document: %w", err)
	}
	if !persisted.Metadata.LastUpdated.After(s.lastSync) {
		return false, nil
	}

	s.logger.Info("adopting newer persisted document",
		"persisted", persisted.Metadata.LastUpdated, "lastSync", s.lastSync)
	if ValidateDocument(persisted) {
		s.logger.Warn("pruned dangling references from adopted document")
	}
	s.doc = persisted
	s.lastSync = s.clock.Now().UTC()
	s.publish(persisted.Clone())
	return true, nil
}

// resync runs a best-effort reconcile before an operation touches the
// document. A failure to read the persisted copy is logged and the operation
// proceeds against in-memory state.
func (s *Service) resync() {
	if _, err := s.reconcileLocked(); err != nil {
		s.logger.Warn("reconcile failed, using in-memory document", "error", err)
	}
}

// commitLocked applies mutate to a clone of the current document and persists
// the result in a single save. The in-memory document is only swapped after
// the save succeeds, so a failing mutation or save never leaves half-applied
// state in memory or in storage.
func (s *Service) commitLocked(mutate func(doc *Document) error) error {
	next := s.doc.Clone()
	if err := mutate(next); err != nil {
		return err
	}
	if err := s.store.Save(next); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	s.doc = next
	s.lastSync = next.Metadata.LastUpdated
	s.publish(next.Clone())
	return nil
}

// record appends an audit entry. Audit failures are logged, never surfaced:
// the document mutation has already committed.
func (s *Service) record(operation, actorID, entityID, detail string) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(AuditEntry{
		Operation: operation,
		ActorID:   actorID,
		EntityID:  entityID,
		Detail:    detail,
		CreatedAt: s.clock.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("recording audit entry", "operation", operation, "error", err)
	}
}

// AuditTrail returns up to limit audit entries, newest first. It returns an
// empty list when auditing is disabled.
func (s *Service) AuditTrail(limit int) ([]AuditEntry, error) {
	if s.audit == nil {
		return []AuditEntry{}, nil
	}
	return s.audit.List(limit)
}

// Document returns a deep copy of the current in-memory document.
func (s *Service) Document() *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}
