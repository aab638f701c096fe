package store

import (
	"sync"

	"tm-go/internal/tm"
)

// MemoryStore keeps the "persisted" document in memory. It exists for tests
// and throwaway runs, but honors the full store contract: Load seeds on
// first use and hands out independent copies, Save stamps metadata.
type MemoryStore struct {
	mu           sync.Mutex
	doc          *tm.Document
	clock        tm.Clock
	idgen        tm.IDGenerator
	seedPassword string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(clock tm.Clock, idgen tm.IDGenerator, seedPassword string) *MemoryStore {
	return &MemoryStore{
		clock:        clock,
		idgen:        idgen,
		seedPassword: seedPassword,
	}
}

func (s *MemoryStore) Load() (*tm.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		doc := tm.NewDocument(s.clock.Now())
		if _, err := tm.EnsureSeedAdmins(doc, s.clock.Now(), s.idgen, s.seedPassword); err != nil {
			return nil, err
		}
		s.stamp(doc)
		s.doc = doc
	}
	doc := s.doc.Clone()
	added, err := tm.EnsureSeedAdmins(doc, s.clock.Now(), s.idgen, s.seedPassword)
	if err != nil {
		return nil, err
	}
	if added {
		s.stamp(doc)
		s.doc = doc.Clone()
	}
	return doc, nil
}

func (s *MemoryStore) Save(doc *tm.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stamp(doc)
	s.doc = doc.Clone()
	return nil
}

// SetDocument replaces the persisted copy directly, bypassing the stamping
// in Save. Tests use it to simulate another process writing to the store.
func (s *MemoryStore) SetDocument(doc *tm.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc.Clone()
}

func (s *MemoryStore) stamp(doc *tm.Document) {
	now := s.clock.Now().UTC()
	doc.Metadata.Version = tm.DocumentVersion
	doc.Metadata.LastUpdated = now
	doc.Metadata.LastSync = now
	doc.Metadata.Initialized = true
}
