package store

import (
	"fmt"

	"tm-go/internal/config"
	"tm-go/internal/tm"
)

// NewStoreFromConfig creates a DocumentStore based on the store config type.
func NewStoreFromConfig(cfg config.StoreConfig, clock tm.Clock, idgen tm.IDGenerator, logger tm.Logger) (tm.DocumentStore, error) {
	switch cfg.Type {
	case "filesystem", "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("filesystem store requires path to be set")
		}
		return NewFileSystemStore(cfg.Path, clock, idgen, cfg.SeedPassword, logger)
	case "memory":
		return NewMemoryStore(clock, idgen, cfg.SeedPassword), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
