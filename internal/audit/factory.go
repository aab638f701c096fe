package audit

import (
	"fmt"
	"path/filepath"

	"tm-go/internal/config"
	"tm-go/internal/tm"
)

// NewAuditorFromConfig creates an Auditor based on the audit config type.
func NewAuditorFromConfig(cfg config.AuditConfig) (tm.Auditor, error) {
	switch cfg.Type {
	case "sqlite", "":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite audit log")
		}
		return NewSQLiteLog(filepath.Join(cfg.DataDir, "audit.db"))
	case "memory":
		return NewMemoryLog(), nil
	default:
		return nil, fmt.Errorf("unknown audit type: %s", cfg.Type)
	}
}
