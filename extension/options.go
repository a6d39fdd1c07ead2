package extension

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/xraph/streamledger"
	audithook "github.com/xraph/streamledger/audit_hook"
	"github.com/xraph/streamledger/observability"
	"github.com/xraph/streamledger/plugin"
	"github.com/xraph/streamledger/store"
	"github.com/xraph/streamledger/token"
)

// Option configures the streamledger Forge extension.
type Option func(*Extension)

// WithStore sets the store for the ledger engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithTransferrer sets the token transferrer that moves deposits and payouts.
func WithTransferrer(t token.Transferrer) Option {
	return func(e *Extension) {
		e.tokens = t
	}
}

// WithLedgerOption passes a streamledger.Option through to the underlying engine.
func WithLedgerOption(opt streamledger.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a ledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, streamledger.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithLivenessTTL sets how far each access extends a record's expiry.
func WithLivenessTTL(d time.Duration) Option {
	return func(e *Extension) { e.config.LivenessTTL = d }
}

// WithSweepInterval sets how often expired streams are purged.
func WithSweepInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.SweepInterval = d }
}

// WithInit initialises the ledger with asset and admin on start.
func WithInit(asset, admin string) Option {
	return func(e *Extension) {
		e.config.Asset = asset
		e.config.Admin = admin
	}
}

// WithMetrics records lifecycle metrics into reg. A nil reg uses the
// Prometheus default registerer.
func WithMetrics(reg prometheus.Registerer) Option {
	return WithPlugin(observability.NewMetricsExtension(observability.NewPrometheusFactory(reg)))
}

// WithAuditRecorder sends every lifecycle event to r.
func WithAuditRecorder(r audithook.Recorder, opts ...audithook.Option) Option {
	return WithPlugin(audithook.New(r, opts...))
}
