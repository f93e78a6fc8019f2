package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var emptyDocument = []byte("{}")

// FileBackend keeps each dataset in <dir>/<name>.json.
type FileBackend struct {
	dir string
}

// NewFileBackend creates dir if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// Path returns the file backing the dataset.
func (b *FileBackend) Path(name Name) string {
	return filepath.Join(b.dir, string(name)+".json")
}

func (b *FileBackend) Load(_ context.Context, name Name) ([]byte, error) {
	data, err := os.ReadFile(b.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		if err := b.write(name, emptyDocument); err != nil {
			return nil, err
		}
		return append([]byte(nil), emptyDocument...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return append([]byte(nil), emptyDocument...), nil
	}
	return data, nil
}

func (b *FileBackend) Save(ctx context.Context, name Name, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.write(name, data)
}

// write goes through a temp file and rename so readers see either the old or the new document.
func (b *FileBackend) write(name Name, data []byte) error {
	tmp, err := os.CreateTemp(b.dir, "."+string(name)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := os.Rename(tmpName, b.Path(name)); err != nil {
		cleanup()
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

func (b *FileBackend) Close() error { return nil }
