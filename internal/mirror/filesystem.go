package mirror

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"tm-go/internal/tm"
)

// FileSystemMirror stores snapshots as files in a directory, named by their
// key. It is meant for mirrors on mounted network or removable storage.
type FileSystemMirror struct {
	name string
	root string
}

var _ tm.Mirror = (*FileSystemMirror)(nil)

// NewFileSystemMirror creates a mirror rooted at the given directory.
func NewFileSystemMirror(name, root string) (*FileSystemMirror, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create mirror directory: %w", err)
	}
	return &FileSystemMirror{name: name, root: root}, nil
}

func (m *FileSystemMirror) Put(_ context.Context, key string, r io.Reader) error {
	dest := filepath.Join(m.root, key)
	tmp := dest + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing snapshot file: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return fmt.Errorf("finalizing snapshot: %w", err)
	}
	return nil
}

func (m *FileSystemMirror) Get(_ context.Context, key string, w io.Writer) error {
	f, err := os.Open(filepath.Join(m.root, key))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("snapshot not found: %s", key)
		}
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	return nil
}

func (m *FileSystemMirror) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	keys := []string{}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) == ".tmp" {
			continue
		}
		keys = append(keys, e.Name())
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *FileSystemMirror) Latest(ctx context.Context) (string, error) {
	keys, err := m.List(ctx)
	if err != nil {
		return "", err
	}
	if len(keys) == 0 {
		return "", nil
	}
	return keys[len(keys)-1], nil
}
