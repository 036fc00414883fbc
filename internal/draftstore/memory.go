package draftstore

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend keeps drafts in process memory.
type MemoryBackend struct {
	mu    sync.Mutex
	blobs map[string][]byte

	putErr error
	puts   int
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{blobs: make(map[string][]byte)}
}

func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (b *MemoryBackend) Put(_ context.Context, key string, data []byte, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.putErr != nil {
		return b.putErr
	}
	b.puts++
	b.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.blobs, key)
	return nil
}

// SetPutErr makes every following Put fail with err. Nil restores writes.
func (b *MemoryBackend) SetPutErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.putErr = err
}

// Puts returns how many writes succeeded.
func (b *MemoryBackend) Puts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.puts
}

// Set stores data under key directly, bypassing Store.
func (b *MemoryBackend) Set(key string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[key] = append([]byte(nil), data...)
}
