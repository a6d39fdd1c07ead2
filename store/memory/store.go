// Package memory provides an in-memory store for tests and single-process
// deployments. Records are copied on the way in and out so callers never
// share state with the store.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xraph/streamledger"
	"github.com/xraph/streamledger/settings"
	"github.com/xraph/streamledger/store"
	"github.com/xraph/streamledger/stream"
	"github.com/xraph/streamledger/types"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	// Global configuration; nil until InitSettings.
	settings *settings.Settings

	// Stream storage
	streams map[stream.ID]*stream.Stream

	closed bool
}

func New() *Store {
	return &Store{
		streams: make(map[stream.ID]*stream.Stream),
	}
}

// ──────────────────────────────────────────────────
// Settings Store implementation
// ──────────────────────────────────────────────────

func (s *Store) InitSettings(_ context.Context, cfg *settings.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return streamledger.ErrStoreClosed
	}
	if s.settings != nil {
		return streamledger.ErrAlreadyInitialized
	}
	c := *cfg
	s.settings = &c
	return nil
}

func (s *Store) GetSettings(_ context.Context) (*settings.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return nil, streamledger.ErrNotInitialized
	}
	c := *s.settings
	return &c, nil
}

func (s *Store) UpdateAdmin(_ context.Context, admin types.Address, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settings == nil {
		return streamledger.ErrNotInitialized
	}
	s.settings.Admin = admin
	s.settings.Touch(at)
	return nil
}

func (s *Store) TouchSettings(_ context.Context, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settings == nil {
		return streamledger.ErrNotInitialized
	}
	s.settings.ExpiresAt = expiresAt
	return nil
}

// ──────────────────────────────────────────────────
// Stream Store implementation
// ──────────────────────────────────────────────────

func (s *Store) CreateStreams(_ context.Context, streams []*stream.Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return streamledger.ErrStoreClosed
	}
	if s.settings == nil {
		return streamledger.ErrNotInitialized
	}

	next := s.settings.NextStreamID
	for i := range streams {
		if _, exists := s.streams[stream.ID(next)+stream.ID(i)]; exists {
			return fmt.Errorf("%w: stream %d already exists", streamledger.ErrConflict, next+uint64(i))
		}
	}

	for i, st := range streams {
		st.ID = stream.ID(next + uint64(i))
		s.streams[st.ID] = st.Clone()
	}
	s.settings.NextStreamID = next + uint64(len(streams))
	return nil
}

func (s *Store) GetStream(_ context.Context, streamID stream.ID) (*stream.Stream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.streams[streamID]
	if !ok {
		return nil, fmt.Errorf("stream %d: %w", streamID, streamledger.ErrStreamNotFound)
	}
	return st.Clone(), nil
}

func (s *Store) UpdateStream(_ context.Context, st *stream.Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.streams[st.ID]; !exists {
		return fmt.Errorf("stream %d: %w", st.ID, streamledger.ErrStreamNotFound)
	}
	s.streams[st.ID] = st.Clone()
	return nil
}

func (s *Store) TouchStream(_ context.Context, streamID stream.ID, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.streams[streamID]
	if !ok {
		return fmt.Errorf("stream %d: %w", streamID, streamledger.ErrStreamNotFound)
	}
	st.ExpiresAt = expiresAt
	return nil
}

// PurgeExpired deletes streams with a set expiry before the cutoff. The
// configuration record is never purged.
func (s *Store) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for k, st := range s.streams {
		if !st.ExpiresAt.IsZero() && st.ExpiresAt.Before(before) {
			delete(s.streams, k)
			n++
		}
	}
	return n, nil
}

// ──────────────────────────────────────────────────
// Core methods
// ──────────────────────────────────────────────────

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return streamledger.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
