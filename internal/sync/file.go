package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileDestination writes documents below a local directory.
type FileDestination struct {
	dir string
}

// NewFileDestination creates a destination rooted at dir. The directory is
// created on first write.
func NewFileDestination(dir string) *FileDestination {
	return &FileDestination{dir: dir}
}

// Write replaces dir/name with data.
func (d *FileDestination) Write(_ context.Context, name string, data []byte) error {
	p := filepath.Join(d.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
