// Package settings holds the ledger's one-time global configuration and
// the stream identifier allocator that lives beside it.
package settings

import (
	"context"
	"time"

	"github.com/xraph/streamledger/types"
)

// Settings is the single global configuration record.
type Settings struct {
	types.Entity
	Asset        types.Address `json:"asset"`
	Admin        types.Address `json:"admin"`
	NextStreamID uint64        `json:"next_stream_id"`
	ExpiresAt    time.Time     `json:"expires_at"`
}

// Store persists the configuration record.
type Store interface {
	// InitSettings creates the record once; a second call fails.
	InitSettings(ctx context.Context, s *Settings) error
	GetSettings(ctx context.Context) (*Settings, error)
	UpdateAdmin(ctx context.Context, admin types.Address, at time.Time) error
	TouchSettings(ctx context.Context, expiresAt time.Time) error
}
