package credstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/soreli/soreli-cli/internal/idp"
	"github.com/soreli/soreli-cli/internal/log"
)

var _ Store = (*FileStore)(nil)

// FileStore persists the credential as a mode-0600 JSON file
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store writing to the given path. Parent directories
// are created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the credential file
func (s *FileStore) Load(ctx context.Context) (*idp.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading credential file: %w", err)
	}

	var cred idp.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		// A corrupt file is treated as absent; the next save overwrites it.
		log.LogWarnWithFields("credstore", "Discarding unreadable credential file", map[string]any{
			"path":  s.path,
			"error": err.Error(),
		})
		return nil, ErrNotFound
	}
	return &cred, nil
}

// Save writes the credential atomically via a temp file rename
func (s *FileStore) Save(ctx context.Context, cred *idp.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating credential directory: %w", err)
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encoding credential: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing credential file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing credential file: %w", err)
	}
	return nil
}

// Clear removes the credential file
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing credential file: %w", err)
	}
	return nil
}
