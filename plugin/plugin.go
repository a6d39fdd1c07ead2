// Package plugin provides an extensible plugin system for the stream ledger.
// Plugins hook into lifecycle events after the ledger has committed them.
package plugin

import (
	"context"

	"github.com/xraph/streamledger/stream"
	"github.com/xraph/streamledger/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the ledger starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l any) error
}

// OnShutdown is called when the ledger stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Stream hooks
// ──────────────────────────────────────────────────

// OnStreamCreated is called for every stream created, batch members included.
type OnStreamCreated interface {
	Plugin
	OnStreamCreated(ctx context.Context, ev *stream.Event) error
}

// OnStreamPaused is called when a stream is paused by its sender or the admin.
type OnStreamPaused interface {
	Plugin
	OnStreamPaused(ctx context.Context, ev *stream.Event) error
}

// OnStreamResumed is called when a paused stream is resumed.
type OnStreamResumed interface {
	Plugin
	OnStreamResumed(ctx context.Context, ev *stream.Event) error
}

// OnStreamCancelled is called after a cancellation and its refund settle.
type OnStreamCancelled interface {
	Plugin
	OnStreamCancelled(ctx context.Context, ev *stream.Event) error
}

// OnStreamWithdrawn is called after a payout to the recipient.
type OnStreamWithdrawn interface {
	Plugin
	OnStreamWithdrawn(ctx context.Context, ev *stream.Event) error
}

// OnStreamCompleted is called when a withdrawal pays out the full deposit.
type OnStreamCompleted interface {
	Plugin
	OnStreamCompleted(ctx context.Context, ev *stream.Event) error
}

// ──────────────────────────────────────────────────
// Administrative and failure hooks
// ──────────────────────────────────────────────────

// OnAdminUpdated is called when the administrator key is rotated.
type OnAdminUpdated interface {
	Plugin
	OnAdminUpdated(ctx context.Context, oldAdmin, newAdmin types.Address) error
}

// OnTransferFailed is called when a payout failed and the ledger rolled the
// stream back. ev describes the transition that was undone.
type OnTransferFailed interface {
	Plugin
	OnTransferFailed(ctx context.Context, ev *stream.Event, err error) error
}
