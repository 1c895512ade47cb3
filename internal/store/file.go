package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ntentasd/nostradamus-telemetry/pkg/types"
)

var _ Store = (*FileStore)(nil)

// FileStore keeps readings as an indented JSON array. Writes go to a
// temporary file in the same directory which is then renamed over the
// target, so readers never observe a partial document.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) ReadAll(ctx context.Context) ([]types.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []types.Reading{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	if len(b) == 0 {
		return []types.Reading{}, nil
	}

	var readings []types.Reading
	if err := json.Unmarshal(b, &readings); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", f.path, err)
	}
	return readings, nil
}

func (f *FileStore) WriteAll(ctx context.Context, readings []types.Reading) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if readings == nil {
		readings = []types.Reading{}
	}

	b, err := json.MarshalIndent(readings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode readings: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	return nil
}
