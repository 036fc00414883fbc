// Package draftstore persists in-progress capture drafts with an age limit.
package draftstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/abdallahh166/Orangesites-sub000/internal/apperr"
	"github.com/abdallahh166/Orangesites-sub000/pkg/domain"
)

// DefaultKey is the workflow key of the site-inspection capture.
const DefaultKey = "visitDraft"

// DefaultMaxAge is how long a saved draft stays usable.
const DefaultMaxAge = 24 * time.Hour

// ErrNotFound is returned by a Backend when nothing is stored under a key.
var ErrNotFound = errors.New("draft not found")

// Backend stores opaque draft blobs by key.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores data under key. Backends that can expire entries use ttl;
	// others ignore it and rely on the age check in Load.
	Put(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Options tunes a Store.
type Options struct {
	MaxAge time.Duration
	Logger *zap.Logger
	Now    func() time.Time
}

// Store saves and restores drafts through a Backend.
type Store struct {
	backend Backend
	maxAge  time.Duration
	log     *zap.Logger
	now     func() time.Time
}

// New creates a Store over backend.
func New(backend Backend, opts Options) *Store {
	s := &Store{backend: backend, maxAge: opts.MaxAge, log: opts.Logger, now: opts.Now}
	if s.maxAge <= 0 {
		s.maxAge = DefaultMaxAge
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// MaxAge returns the configured draft lifetime.
func (s *Store) MaxAge() time.Duration { return s.maxAge }

// Save stamps d.LastSavedAt and writes it under key. The stamped draft is
// returned. Failures wrap apperr.ErrStorageUnavailable.
func (s *Store) Save(ctx context.Context, key string, d domain.Draft) (domain.Draft, error) {
	saved := d.Clone()
	now := s.now().UTC()
	saved.LastSavedAt = &now

	data, err := json.Marshal(saved)
	if err != nil {
		return d, apperr.Wrap(apperr.ErrStorageUnavailable, fmt.Errorf("draftstore.Save: marshal: %w", err))
	}
	if err := s.backend.Put(ctx, key, data, s.maxAge); err != nil {
		return d, apperr.Wrap(apperr.ErrStorageUnavailable, fmt.Errorf("draftstore.Save: %w", err))
	}
	return saved, nil
}

// Load returns the draft under key if it was saved less than MaxAge ago.
// Stale, unstamped or undecodable drafts are deleted and reported as absent.
func (s *Store) Load(ctx context.Context, key string) (domain.Draft, bool, error) {
	data, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return domain.Draft{}, false, nil
	}
	if err != nil {
		return domain.Draft{}, false, apperr.Wrap(apperr.ErrStorageUnavailable, fmt.Errorf("draftstore.Load: %w", err))
	}

	var d domain.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		s.drop(ctx, key, "undecodable", zap.Error(err))
		return domain.Draft{}, false, nil
	}
	if d.LastSavedAt == nil {
		s.drop(ctx, key, "unstamped")
		return domain.Draft{}, false, nil
	}
	if age := s.now().Sub(*d.LastSavedAt); age >= s.maxAge {
		s.drop(ctx, key, "stale", zap.Duration("age", age))
		return domain.Draft{}, false, nil
	}
	return d, true, nil
}

// Discard deletes the draft under key. A missing draft is not an error.
func (s *Store) Discard(ctx context.Context, key string) error {
	if err := s.backend.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		return apperr.Wrap(apperr.ErrStorageUnavailable, fmt.Errorf("draftstore.Discard: %w", err))
	}
	return nil
}

func (s *Store) drop(ctx context.Context, key, reason string, fields ...zap.Field) {
	fields = append([]zap.Field{zap.String("key", key), zap.String("reason", reason)}, fields...)
	s.log.Info("discarding unusable draft", fields...)
	if err := s.backend.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		s.log.Warn("delete unusable draft", zap.String("key", key), zap.Error(err))
	}
}
