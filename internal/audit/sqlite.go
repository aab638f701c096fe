package audit

import (
	"database/sql"
	"fmt"

	"tm-go/internal/audit/migrations"
	"tm-go/internal/tm"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteLog implements tm.Auditor on a SQLite database. Unlike the JSON
// document, audit entries are append-only and survive imports and user
// deletion.
type SQLiteLog struct {
	db *sql.DB
}

var _ tm.Auditor = (*SQLiteLog)(nil)

// NewSQLiteLog opens (and if necessary creates and migrates) the audit
// database at path. path can be ":memory:" for a throwaway database.
func NewSQLiteLog(path string) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	// A single connection keeps ":memory:" databases alive and sidesteps
	// SQLite writer contention.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := migrations.Apply(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating audit database: %w", err)
	}

	return &SQLiteLog{db: db}, nil
}

func (l *SQLiteLog) Record(entry tm.AuditEntry) error {
	_, err := l.db.Exec(
		`INSERT INTO audit_entries (operation, actor_id, entity_id, detail, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.Operation, entry.ActorID, entry.EntityID, entry.Detail, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

func (l *SQLiteLog) List(limit int) ([]tm.AuditEntry, error) {
	rows, err := l.db.Query(
		`SELECT id, operation, actor_id, entity_id, detail, created_at
		 FROM audit_entries ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	var entries []tm.AuditEntry
	for rows.Next() {
		var e tm.AuditEntry
		if err := rows.Scan(&e.ID, &e.Operation, &e.ActorID, &e.EntityID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (l *SQLiteLog) Close() error {
	return l.db.Close()
}
