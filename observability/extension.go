// Package observability provides a metrics extension for the ledger that
// records lifecycle event counts and settled amounts via a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/streamledger/plugin"
	"github.com/xraph/streamledger/stream"
	"github.com/xraph/streamledger/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin            = (*MetricsExtension)(nil)
	_ plugin.OnInit            = (*MetricsExtension)(nil)
	_ plugin.OnShutdown        = (*MetricsExtension)(nil)
	_ plugin.OnStreamCreated   = (*MetricsExtension)(nil)
	_ plugin.OnStreamPaused    = (*MetricsExtension)(nil)
	_ plugin.OnStreamResumed   = (*MetricsExtension)(nil)
	_ plugin.OnStreamCancelled = (*MetricsExtension)(nil)
	_ plugin.OnStreamWithdrawn = (*MetricsExtension)(nil)
	_ plugin.OnStreamCompleted = (*MetricsExtension)(nil)
	_ plugin.OnAdminUpdated    = (*MetricsExtension)(nil)
	_ plugin.OnTransferFailed  = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a ledger plugin to automatically track stream metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Lifecycle metrics
	LedgerStarted   Counter
	LedgerStopped   Counter
	StreamCreated   Counter
	StreamPaused    Counter
	StreamResumed   Counter
	StreamCancelled Counter
	StreamCompleted Counter

	// Settlement metrics
	Withdrawals     Counter
	DepositAmount   Histogram
	WithdrawnAmount Histogram
	RefundedAmount  Histogram

	// Admin metrics
	AdminUpdated Counter

	// Error metrics
	TransferFailures Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use NewPrometheusFactory for a Prometheus registry.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Lifecycle metrics
		LedgerStarted:   factory.Counter("streamledger.started"),
		LedgerStopped:   factory.Counter("streamledger.stopped"),
		StreamCreated:   factory.Counter("streamledger.stream.created"),
		StreamPaused:    factory.Counter("streamledger.stream.paused"),
		StreamResumed:   factory.Counter("streamledger.stream.resumed"),
		StreamCancelled: factory.Counter("streamledger.stream.cancelled"),
		StreamCompleted: factory.Counter("streamledger.stream.completed"),

		// Settlement metrics
		Withdrawals:     factory.Counter("streamledger.stream.withdrawals"),
		DepositAmount:   factory.Histogram("streamledger.stream.deposit_amount"),
		WithdrawnAmount: factory.Histogram("streamledger.stream.withdrawn_amount"),
		RefundedAmount:  factory.Histogram("streamledger.stream.refunded_amount"),

		// Admin metrics
		AdminUpdated: factory.Counter("streamledger.admin.updated"),

		// Error metrics
		TransferFailures: factory.Counter("streamledger.transfer.failures"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	m.LedgerStarted.Inc()
	return nil
}

// OnShutdown implements plugin.OnShutdown.
func (m *MetricsExtension) OnShutdown(_ context.Context) error {
	m.LedgerStopped.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Stream lifecycle hooks
// ──────────────────────────────────────────────────

// OnStreamCreated implements plugin.OnStreamCreated.
func (m *MetricsExtension) OnStreamCreated(_ context.Context, ev *stream.Event) error {
	m.StreamCreated.Inc()
	m.DepositAmount.Observe(float64(ev.Amount))
	return nil
}

// OnStreamPaused implements plugin.OnStreamPaused.
func (m *MetricsExtension) OnStreamPaused(_ context.Context, _ *stream.Event) error {
	m.StreamPaused.Inc()
	return nil
}

// OnStreamResumed implements plugin.OnStreamResumed.
func (m *MetricsExtension) OnStreamResumed(_ context.Context, _ *stream.Event) error {
	m.StreamResumed.Inc()
	return nil
}

// OnStreamCancelled implements plugin.OnStreamCancelled.
func (m *MetricsExtension) OnStreamCancelled(_ context.Context, ev *stream.Event) error {
	m.StreamCancelled.Inc()
	m.RefundedAmount.Observe(float64(ev.Amount))
	return nil
}

// OnStreamWithdrawn implements plugin.OnStreamWithdrawn.
func (m *MetricsExtension) OnStreamWithdrawn(_ context.Context, ev *stream.Event) error {
	m.Withdrawals.Inc()
	m.WithdrawnAmount.Observe(float64(ev.Amount))
	return nil
}

// OnStreamCompleted implements plugin.OnStreamCompleted.
func (m *MetricsExtension) OnStreamCompleted(_ context.Context, _ *stream.Event) error {
	m.StreamCompleted.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Administrative and failure hooks
// ──────────────────────────────────────────────────

// OnAdminUpdated implements plugin.OnAdminUpdated.
func (m *MetricsExtension) OnAdminUpdated(_ context.Context, _, _ types.Address) error {
	m.AdminUpdated.Inc()
	return nil
}

// OnTransferFailed implements plugin.OnTransferFailed.
func (m *MetricsExtension) OnTransferFailed(_ context.Context, _ *stream.Event, _ error) error {
	m.TransferFailures.Inc()
	return nil
}
