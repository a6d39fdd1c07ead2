package stream

import (
	"context"
	"time"
)

// Store persists stream records keyed by ID. There is no secondary index:
// streams cannot be listed by sender or recipient.
type Store interface {
	// CreateStreams assigns consecutive IDs from the allocator and inserts
	// every stream, or nothing. The allocator only advances when the
	// insert commits.
	CreateStreams(ctx context.Context, streams []*Stream) error
	GetStream(ctx context.Context, streamID ID) (*Stream, error)
	UpdateStream(ctx context.Context, s *Stream) error
	TouchStream(ctx context.Context, streamID ID, expiresAt time.Time) error
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}
