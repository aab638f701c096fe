package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"tm-go/internal/tm"
)

// FileSystemStore persists the document as a JSON file. Every save first
// copies the previous version to <path>.bak, then writes the new version to
// a temp file and renames it into place, so a crash mid-save never leaves a
// truncated document.
//
// Several processes may share the same path; each one sees the others'
// writes through its reconciliation loop.
type FileSystemStore struct {
	path         string
	clock        tm.Clock
	idgen        tm.IDGenerator
	seedPassword string
	logger       tm.Logger
}

// NewFileSystemStore creates a store persisting to path.
func NewFileSystemStore(path string, clock tm.Clock, idgen tm.IDGenerator, seedPassword string, logger tm.Logger) (*FileSystemStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return &FileSystemStore{
		path:         path,
		clock:        clock,
		idgen:        idgen,
		seedPassword: seedPassword,
		logger:       logger,
	}, nil
}

// Load reads the persisted document. A missing file means first run: a fresh
// seeded document is created and persisted. A file that fails to parse is
// set aside under a .corrupt suffix and replaced the same way. Loads of
// older documents backfill missing collections and re-add missing seed
// administrators.
func (s *FileSystemStore) Load() (*tm.Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("no document found, seeding a fresh one", "path", s.path)
		return s.seedFresh()
	}
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	var doc tm.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		corrupt := s.path + ".corrupt"
		s.logger.Error("document is corrupt, setting it aside", "path", s.path, "moved_to", corrupt, "error", err)
		if renameErr := os.Rename(s.path, corrupt); renameErr != nil {
			return nil, fmt.Errorf("setting aside corrupt document: %w", renameErr)
		}
		return s.seedFresh()
	}

	doc.Backfill()
	added, err := tm.EnsureSeedAdmins(&doc, s.clock.Now(), s.idgen, s.seedPassword)
	if err != nil {
		return nil, err
	}
	if added {
		s.logger.Warn("seed administrator accounts were missing, re-added")
		if err := s.Save(&doc); err != nil {
			return nil, err
		}
	}
	return &doc, nil
}

// Save stamps metadata and writes the document, keeping the previous version
// as a backup copy.
func (s *FileSystemStore) Save(doc *tm.Document) error {
	now := s.clock.Now().UTC()
	doc.Metadata.Version = tm.DocumentVersion
	doc.Metadata.LastUpdated = now
	doc.Metadata.LastSync = now
	doc.Metadata.Initialized = true

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing document: %w", err)
	}

	if prev, err := os.ReadFile(s.path); err == nil {
		if err := os.WriteFile(s.path+".bak", prev, 0600); err != nil {
			return fmt.Errorf("writing backup copy: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading previous document for backup: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing document: %w", err)
	}
	return nil
}

func (s *FileSystemStore) seedFresh() (*tm.Document, error) {
	doc := tm.NewDocument(s.clock.Now())
	if _, err := tm.EnsureSeedAdmins(doc, s.clock.Now(), s.idgen, s.seedPassword); err != nil {
		return nil, err
	}
	if err := s.Save(doc); err != nil {
		return nil, fmt.Errorf("persisting seeded document: %w", err)
	}
	return doc, nil
}
