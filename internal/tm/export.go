package tm

import (
	"encoding/json"
	"fmt"
)

// Export returns the full JSON serialization of the document after a forced
// reconcile.
func (s *Service) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resync()

	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing document: %w", err)
	}
	return data, nil
}

// primaryCollections must all be present in an import payload.
// approvedRelations is deliberately absent: documents produced before that
// collection existed are accepted and backfilled.
var primaryCollections = []string{"users", "messages", "notifications", "assignments"}

// Import replaces the entire document with the one serialized in data. This
// is a full-document overwrite, not a merge: it validates that the primary
// collections are present, backfills approvedRelations when absent, prunes
// dangling references and persists the result.
func (s *Service) Import(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("parsing import payload: %w", err)
	}
	for _, name := range primaryCollections {
		if _, ok := probe[name]; !ok {
			return fmt.Errorf("%w: %s", ErrInvalidDocument, name)
		}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing import payload: %w", err)
	}
	doc.Backfill()
	doc.Metadata.Initialized = true

	s.mu.Lock()
	defer s.mu.Unlock()

	if ValidateDocument(&doc) {
		s.logger.Warn("pruned dangling references from imported document")
	}
	if err := s.store.Save(&doc); err != nil {
		return fmt.Errorf("saving imported document: %w", err)
	}
	s.doc = &doc
	s.lastSync = doc.Metadata.LastUpdated
	s.publish(doc.Clone())

	s.record("document.import", "", "", fmt.Sprintf("%d users", len(doc.Users)))
	s.logger.Info("document imported", "users", len(doc.Users))
	return nil
}
