package tokenstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/abdallahh166/Orangesites-sub000/internal/fsutil"
)

const tokenFile = "tokens.json"

// FileStore keeps each tier's pair in <dir>/tokens.json with mode 0600.
type FileStore struct {
	mu   sync.Mutex
	dirs map[Tier]string
}

// NewFileStore creates a store rooted at the given per-tier directories.
func NewFileStore(ephemeralDir, rememberedDir string) *FileStore {
	return &FileStore{dirs: map[Tier]string{
		Ephemeral:  ephemeralDir,
		Remembered: rememberedDir,
	}}
}

func (s *FileStore) path(tier Tier) (string, error) {
	dir, ok := s.dirs[tier]
	if !ok || dir == "" {
		return "", fmt.Errorf("no directory for %s tier", tier)
	}
	return filepath.Join(dir, tokenFile), nil
}

// Write replaces the tier's pair. The file is written to a temp file and
// renamed over the old one.
func (s *FileStore) Write(tier Tier, pair Pair) error {
	path, err := s.path(tier)
	if err != nil {
		return fmt.Errorf("tokenstore.Write: %w", err)
	}
	if tier != Remembered {
		pair.RememberMe = false
	}
	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("tokenstore.Write: marshal: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fsutil.WriteFileAtomic(path, data, 0600); err != nil {
		return fmt.Errorf("tokenstore.Write: %w", err)
	}
	return nil
}

// Read returns the tier's pair. A missing file is not an error.
func (s *FileStore) Read(tier Tier) (Pair, bool, error) {
	path, err := s.path(tier)
	if err != nil {
		return Pair{}, false, fmt.Errorf("tokenstore.Read: %w", err)
	}

	s.mu.Lock()
	data, err := os.ReadFile(path)
	s.mu.Unlock()
	if errors.Is(err, os.ErrNotExist) {
		return Pair{}, false, nil
	}
	if err != nil {
		return Pair{}, false, fmt.Errorf("tokenstore.Read: %w", err)
	}

	var p Pair
	if err := json.Unmarshal(data, &p); err != nil {
		return Pair{}, false, fmt.Errorf("tokenstore.Read: parse %s: %w", path, err)
	}
	if !p.Valid() {
		return Pair{}, false, nil
	}
	return p, true, nil
}

// Clear removes the tier's pair.
func (s *FileStore) Clear(tier Tier) error {
	path, err := s.path(tier)
	if err != nil {
		return fmt.Errorf("tokenstore.Clear: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("tokenstore.Clear: %w", err)
	}
	return nil
}

// ClearAll removes both tiers, attempting each even if one fails.
func (s *FileStore) ClearAll() error {
	var errs []error
	for _, tier := range Tiers {
		if err := s.Clear(tier); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
