package tm

// DocumentStore owns the persisted copy of the Document.
type DocumentStore interface {
	// Load returns the persisted document. On first-ever run it constructs
	// a fresh document seeded with the fixed administrator accounts and
	// persists it. On later runs it backfills structurally new collections
	// and re-adds any missing seed administrator. A corrupt persisted
	// document is set aside and replaced with a freshly seeded one rather
	// than failing startup.
	Load() (*Document, error)

	// Save stamps metadata (lastUpdated, lastSync, version) and persists
	// the document, keeping a backup copy of the previous version.
	Save(doc *Document) error
}
