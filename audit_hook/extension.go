// Package audithook bridges ledger lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import an
// audit backend directly. Callers inject a RecorderFunc adapter that
// bridges to their backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/streamledger/plugin"
	"github.com/xraph/streamledger/stream"
	"github.com/xraph/streamledger/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin            = (*Extension)(nil)
	_ plugin.OnStreamCreated   = (*Extension)(nil)
	_ plugin.OnStreamPaused    = (*Extension)(nil)
	_ plugin.OnStreamResumed   = (*Extension)(nil)
	_ plugin.OnStreamCancelled = (*Extension)(nil)
	_ plugin.OnStreamWithdrawn = (*Extension)(nil)
	_ plugin.OnStreamCompleted = (*Extension)(nil)
	_ plugin.OnAdminUpdated    = (*Extension)(nil)
	_ plugin.OnTransferFailed  = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges ledger lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Stream lifecycle hooks
// ──────────────────────────────────────────────────

// OnStreamCreated implements plugin.OnStreamCreated.
func (e *Extension) OnStreamCreated(ctx context.Context, ev *stream.Event) error {
	return e.recordStream(ctx, ActionStreamCreated, SeverityInfo, CategoryLifecycle, ev,
		"deposit", ev.Amount,
	)
}

// OnStreamPaused implements plugin.OnStreamPaused.
func (e *Extension) OnStreamPaused(ctx context.Context, ev *stream.Event) error {
	return e.recordStream(ctx, ActionStreamPaused, SeverityInfo, CategoryLifecycle, ev)
}

// OnStreamResumed implements plugin.OnStreamResumed.
func (e *Extension) OnStreamResumed(ctx context.Context, ev *stream.Event) error {
	return e.recordStream(ctx, ActionStreamResumed, SeverityInfo, CategoryLifecycle, ev)
}

// OnStreamCancelled implements plugin.OnStreamCancelled.
func (e *Extension) OnStreamCancelled(ctx context.Context, ev *stream.Event) error {
	return e.recordStream(ctx, ActionStreamCancelled, SeverityWarning, CategorySettlement, ev,
		"refund", ev.Amount,
		"transfer_id", ev.Transfer.String(),
	)
}

// OnStreamWithdrawn implements plugin.OnStreamWithdrawn.
func (e *Extension) OnStreamWithdrawn(ctx context.Context, ev *stream.Event) error {
	return e.recordStream(ctx, ActionStreamWithdrew, SeverityInfo, CategorySettlement, ev,
		"amount", ev.Amount,
		"transfer_id", ev.Transfer.String(),
	)
}

// OnStreamCompleted implements plugin.OnStreamCompleted.
func (e *Extension) OnStreamCompleted(ctx context.Context, ev *stream.Event) error {
	return e.recordStream(ctx, ActionStreamCompleted, SeverityInfo, CategoryLifecycle, ev)
}

// ──────────────────────────────────────────────────
// Administrative and failure hooks
// ──────────────────────────────────────────────────

// OnAdminUpdated implements plugin.OnAdminUpdated.
func (e *Extension) OnAdminUpdated(ctx context.Context, oldAdmin, newAdmin types.Address) error {
	return e.record(ctx, ActionAdminUpdated, SeverityCritical, OutcomeSuccess,
		ResourceConfig, "", CategoryAccess, nil,
		"old_admin", oldAdmin.String(),
		"new_admin", newAdmin.String(),
	)
}

// OnTransferFailed implements plugin.OnTransferFailed.
func (e *Extension) OnTransferFailed(ctx context.Context, ev *stream.Event, err error) error {
	return e.record(ctx, ActionTransferFailed, SeverityError, OutcomeFailure,
		ResourceStream, ev.StreamID.String(), CategorySettlement, err,
		"event_type", string(ev.Type),
		"role", string(ev.Role),
		"amount", ev.Amount,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// recordStream records a successful stream event with its common fields.
func (e *Extension) recordStream(
	ctx context.Context,
	action, severity, category string,
	ev *stream.Event,
	kvPairs ...any,
) error {
	kv := append([]any{
		"event_id", ev.ID.String(),
		"role", string(ev.Role),
		"sender", ev.Sender.String(),
		"recipient", ev.Recipient.String(),
		"status", string(ev.Status),
		"ledger_time", ev.LedgerTime,
	}, kvPairs...)

	return e.record(ctx, action, severity, OutcomeSuccess,
		ResourceStream, ev.StreamID.String(), category, nil,
		kv...,
	)
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
