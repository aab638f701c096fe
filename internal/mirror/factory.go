package mirror

import (
	"context"
	"fmt"

	"tm-go/internal/config"
	"tm-go/internal/tm"
)

// NewMirrorFromConfig creates a Mirror based on the mirror config type. An
// empty type returns (nil, nil): mirroring disabled.
func NewMirrorFromConfig(ctx context.Context, cfg config.MirrorConfig) (tm.Mirror, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "memory":
		return NewMemoryMirror(cfg.Name), nil
	case "filesystem":
		if cfg.FSMirrorRoot == "" {
			return nil, fmt.Errorf("filesystem mirror requires fs_mirror_root to be set")
		}
		return NewFileSystemMirror(cfg.Name, cfg.FSMirrorRoot)
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 mirror requires s3_bucket to be set")
		}
		return NewS3Mirror(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown mirror type: %s", cfg.Type)
	}
}
