package tokenstore

import "sync"

// MemoryStore keeps pairs in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	pairs map[Tier]Pair

	// WriteErr, when set, is returned by every Write.
	WriteErr error
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pairs: make(map[Tier]Pair)}
}

func (s *MemoryStore) Write(tier Tier, pair Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return s.WriteErr
	}
	if tier != Remembered {
		pair.RememberMe = false
	}
	s.pairs[tier] = pair
	return nil
}

func (s *MemoryStore) Read(tier Tier) (Pair, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pairs[tier]
	return p, ok, nil
}

func (s *MemoryStore) Clear(tier Tier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pairs, tier)
	return nil
}

func (s *MemoryStore) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairs = make(map[Tier]Pair)
	return nil
}
