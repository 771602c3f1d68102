package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Local stores objects as files in a directory
type Local struct {
	Dir string
}

// NewLocal returns a new Local store rooted at dir
func NewLocal(dir string) *Local {
	return &Local{Dir: dir}
}

// EnsureDir creates the store's directory and any missing parents
func (l *Local) EnsureDir() error {
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return fmt.Errorf("ensureDir: %w", err)
	}
	return nil
}

// Put writes data to a temporary file in the store's directory and
// then renames it over the named file, so a reader never sees a
// partially written object.
func (l *Local) Put(name string, data []byte) error {
	tmp, err := os.CreateTemp(l.Dir, "."+filepath.Base(name)+".*")
	if err != nil {
		return fmt.Errorf("put: %w", err)
	}

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("put: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("put: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("put: %w", err)
	}

	if err := os.Rename(tmp.Name(), l.Location(name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("put: %w", err)
	}
	return nil
}

// Get returns the contents of the named file
func (l *Local) Get(name string) ([]byte, error) {
	data, err := os.ReadFile(l.Location(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("get: %v: %w", name, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}
	return data, nil
}

// Location returns the path of the named file
func (l *Local) Location(name string) string {
	return filepath.Join(l.Dir, name)
}

func (l *Local) String() string {
	return l.Dir
}
