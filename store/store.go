// Package store declares the persistence contract shared by every backend.
package store

import (
	"context"
	"time"

	"github.com/xraph/streamledger/settings"
	"github.com/xraph/streamledger/stream"
	"github.com/xraph/streamledger/types"
)

// Store is the unified storage interface for the ledger: the global
// configuration record with its identifier counter, plus one record per
// stream keyed by ID.
//
// Backends report streamledger.ErrNotInitialized, ErrAlreadyInitialized and
// ErrStreamNotFound for the corresponding conditions.
type Store interface {
	// Settings methods
	InitSettings(ctx context.Context, s *settings.Settings) error
	GetSettings(ctx context.Context) (*settings.Settings, error)
	UpdateAdmin(ctx context.Context, admin types.Address, at time.Time) error
	TouchSettings(ctx context.Context, expiresAt time.Time) error

	// Stream methods
	CreateStreams(ctx context.Context, streams []*stream.Stream) error
	GetStream(ctx context.Context, streamID stream.ID) (*stream.Stream, error)
	UpdateStream(ctx context.Context, s *stream.Stream) error
	TouchStream(ctx context.Context, streamID stream.ID, expiresAt time.Time) error
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Compile-time checks that the aggregate satisfies the per-domain contracts.
var (
	_ settings.Store = Store(nil)
	_ stream.Store   = Store(nil)
)
