package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStore keeps state in a single YAML file. Every mutation rewrites the
// file, so a new FileStore opened on the same path sees the same values.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

// NewFileStore opens (or lazily creates) the state file at path.
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{
		path:   path,
		values: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	if err := yaml.Unmarshal(data, &fs.values); err != nil {
		return nil, fmt.Errorf("failed to parse state YAML: %w", err)
	}
	if fs.values == nil {
		fs.values = make(map[string]string)
	}

	return fs, nil
}

// Path returns the backing file.
func (fs *FileStore) Path() string {
	return fs.path
}

func (fs *FileStore) Get(key string) (string, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	v, ok := fs.values[key]
	return v, ok
}

func (fs *FileStore) Set(key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	prev, existed := fs.values[key]
	fs.values[key] = value

	if err := fs.flush(); err != nil {
		if existed {
			fs.values[key] = prev
		} else {
			delete(fs.values, key)
		}
		return err
	}

	return nil
}

func (fs *FileStore) Delete(key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	prev, existed := fs.values[key]
	if !existed {
		return nil
	}
	delete(fs.values, key)

	if err := fs.flush(); err != nil {
		fs.values[key] = prev
		return err
	}

	return nil
}

// flush writes values to a temp file and renames it over the state file.
// Callers hold fs.mu.
func (fs *FileStore) flush() error {
	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(fs.values)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write state file: %w", err)
	}

	// The token lives here, keep it private to the user.
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set state file mode: %w", err)
	}

	if err := os.Rename(tmpName, fs.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}
