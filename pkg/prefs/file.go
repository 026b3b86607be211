package prefs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

// DefaultKey is the key the CLI stores its single preference set under.
const DefaultKey = "default"

// FileStore is a file-based store for CLI applications.
// Each key is stored as a TOML file in a config directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a new file-based store.
// If baseDir is empty, defaults to $XDG_CONFIG_HOME/modmap/prefs/.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("get config dir: %w", err)
		}
		baseDir = filepath.Join(dir, "modmap", "prefs")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create prefs dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.baseDir, key+".toml")
}

// Load decodes the key's file on top of Defaults, so flags missing from an
// older file keep their default value.
func (s *FileStore) Load(_ context.Context, key string) (Prefs, error) {
	if err := validKey(key); err != nil {
		return Prefs{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := Defaults()
	if _, err := toml.DecodeFile(s.path(key), &p); err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return Prefs{}, wrapIO(err, "read")
	}
	return p, nil
}

func (s *FileStore) Save(_ context.Context, key string, p Prefs) error {
	if err := validKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(p); err != nil {
		return wrapIO(err, "encode")
	}
	if err := os.WriteFile(s.path(key), buf.Bytes(), 0o600); err != nil {
		return wrapIO(err, "write")
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return wrapIO(err, "remove")
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the file a key is stored in.
func (s *FileStore) Path(key string) string { return s.path(key) }

var _ Store = (*FileStore)(nil)
