package streamledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/streamledger/auth"
	"github.com/xraph/streamledger/plugin"
	"github.com/xraph/streamledger/settings"
	"github.com/xraph/streamledger/store"
	"github.com/xraph/streamledger/stream"
	"github.com/xraph/streamledger/token"
	"github.com/xraph/streamledger/types"
)

// DefaultLivenessTTL is how far every access pushes a record's expiry.
const DefaultLivenessTTL = 7 * 24 * time.Hour

// Ledger is the stream ledger engine.
type Ledger struct {
	store   store.Store
	tokens  token.Transferrer
	gate    auth.Gate
	plugins *plugin.Registry
	logger  *slog.Logger
	clock   func() time.Time

	// Liveness
	livenessTTL   time.Duration
	sweepInterval time.Duration

	// mu serialises operations; see lock.
	mu sync.Mutex

	// Background workers
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a new Ledger over a store and a token transferrer.
func New(s store.Store, tokens token.Transferrer, opts ...Option) *Ledger {
	l := &Ledger{
		store:       s,
		tokens:      tokens,
		gate:        auth.ContextGate{},
		plugins:     plugin.NewRegistry(),
		logger:      slog.Default(),
		clock:       time.Now,
		livenessTTL: DefaultLivenessTTL,
		stopChan:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithGate replaces the default context-caller authorization gate.
func WithGate(g auth.Gate) Option {
	return func(l *Ledger) {
		l.gate = g
	}
}

// WithClock sets the time source. Ledger time is its Unix seconds.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.clock = now
	}
}

// WithLivenessTTL sets how far each access extends a record's expiry.
// Zero disables expiry bookkeeping.
func WithLivenessTTL(ttl time.Duration) Option {
	return func(l *Ledger) {
		l.livenessTTL = ttl
	}
}

// WithSweepInterval starts a background worker on Start that purges
// expired records at the given interval. Zero disables it.
func WithSweepInterval(d time.Duration) Option {
	return func(l *Ledger) {
		l.sweepInterval = d
	}
}

// Plugins returns the plugin registry.
func (l *Ledger) Plugins() *plugin.Registry { return l.plugins }

// Store returns the underlying store.
func (l *Ledger) Store() store.Store { return l.store }

// Start migrates the store, notifies plugins and launches the expiry sweeper.
func (l *Ledger) Start(ctx context.Context) error {
	if err := l.store.Migrate(ctx); err != nil {
		return err
	}

	l.plugins.EmitInit(ctx, l)

	if l.sweepInterval > 0 && l.livenessTTL > 0 {
		l.wg.Add(1)
		go l.sweepWorker(ctx)
	}

	l.logger.Info("streamledger started",
		"liveness_ttl", l.livenessTTL,
		"sweep_interval", l.sweepInterval,
		"plugins", l.plugins.Count(),
	)

	return nil
}

// Stop shuts down the Ledger.
func (l *Ledger) Stop() error {
	l.stopOnce.Do(func() { close(l.stopChan) })
	l.wg.Wait()

	ctx := context.Background()
	l.plugins.EmitShutdown(ctx)

	return l.store.Close()
}

// PurgeExpired removes streams whose liveness window ended before now.
func (l *Ledger) PurgeExpired(ctx context.Context) (int64, error) {
	ctx, unlock := l.lock(ctx)
	defer unlock()

	return l.store.PurgeExpired(ctx, l.wallNow())
}

// sweepWorker periodically purges expired streams.
func (l *Ledger) sweepWorker(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			n, err := l.PurgeExpired(ctx)
			if err != nil {
				l.logger.Error("failed to purge expired streams", "error", err)
				continue
			}
			if n > 0 {
				l.logger.Debug("purged expired streams",
					"count", n,
					"elapsed_ms", time.Since(start).Milliseconds(),
				)
			}
		}
	}
}

// ──────────────────────────────────────────────────
// Configuration
// ──────────────────────────────────────────────────

// Init stores the asset and administrator once. Any caller may perform
// the one-time initialisation; later calls fail with ErrAlreadyInitialized.
func (l *Ledger) Init(ctx context.Context, asset, admin types.Address) error {
	if asset.IsZero() {
		return ValidationError{Index: -1, Field: "asset", Message: "must not be empty", Err: ErrInvalidInput}
	}
	if admin.IsZero() {
		return ValidationError{Index: -1, Field: "admin", Message: "must not be empty", Err: ErrInvalidInput}
	}

	ctx, unlock := l.lock(ctx)
	defer unlock()

	now := l.wallNow()
	cfg := &settings.Settings{
		Entity:    types.NewEntity(now),
		Asset:     asset,
		Admin:     admin,
		ExpiresAt: l.expiry(now),
	}
	if err := l.store.InitSettings(ctx, cfg); err != nil {
		return err
	}

	l.logger.Info("streamledger initialised", "asset", asset, "admin", admin)
	return nil
}

// GetConfig returns the configuration record.
func (l *Ledger) GetConfig(ctx context.Context) (*settings.Settings, error) {
	ctx, unlock := l.lock(ctx)
	defer unlock()

	return l.loadSettings(ctx)
}

// SetAdmin rotates the administrator. Only the current administrator may
// call it.
func (l *Ledger) SetAdmin(ctx context.Context, newAdmin types.Address) error {
	if newAdmin.IsZero() {
		return ValidationError{Index: -1, Field: "admin", Message: "must not be empty", Err: ErrInvalidInput}
	}

	opCtx, unlock := l.lock(ctx)
	cfg, err := l.loadSettings(opCtx)
	if err == nil {
		err = l.authorize(opCtx, auth.RoleAdmin, cfg.Admin)
	}
	if err == nil {
		err = l.store.UpdateAdmin(opCtx, newAdmin, l.wallNow())
	}
	unlock()
	if err != nil {
		return err
	}

	l.logger.Debug("admin updated", "old_admin", cfg.Admin, "new_admin", newAdmin)
	l.plugins.EmitAdminUpdated(ctx, cfg.Admin, newAdmin)
	return nil
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

// GetStreamState returns a copy of the stream record.
func (l *Ledger) GetStreamState(ctx context.Context, streamID stream.ID) (*stream.Stream, error) {
	ctx, unlock := l.lock(ctx)
	defer unlock()

	return l.loadStream(ctx, streamID)
}

// CalculateAccrued returns the amount vested to the recipient so far.
// Accrual ignores pauses and stops at cancellation.
func (l *Ledger) CalculateAccrued(ctx context.Context, streamID stream.ID) (types.Amount, error) {
	ctx, unlock := l.lock(ctx)
	defer unlock()

	s, err := l.loadStream(ctx, streamID)
	if err != nil {
		return 0, err
	}
	return s.AccruedAt(l.ledgerNow()), nil
}

// Withdrawable returns the vested amount the recipient has not taken yet.
// It does not consider whether the stream is paused.
func (l *Ledger) Withdrawable(ctx context.Context, streamID stream.ID) (types.Amount, error) {
	ctx, unlock := l.lock(ctx)
	defer unlock()

	s, err := l.loadStream(ctx, streamID)
	if err != nil {
		return 0, err
	}
	return s.Withdrawable(l.ledgerNow()), nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

type inOperationKey struct{}

// lock serialises operations on the ledger. A call made with a ctx that
// already holds the lock (a transfer calling back into the ledger) runs
// on that hold and sees the state committed so far.
func (l *Ledger) lock(ctx context.Context) (context.Context, func()) {
	if holder, ok := ctx.Value(inOperationKey{}).(*Ledger); ok && holder == l {
		return ctx, func() {}
	}
	l.mu.Lock()
	return context.WithValue(ctx, inOperationKey{}, l), l.mu.Unlock
}

// ledgerNow is the ledger clock in seconds.
func (l *Ledger) ledgerNow() int64 {
	return l.clock().Unix()
}

func (l *Ledger) wallNow() time.Time {
	return l.clock().UTC()
}

// expiry is the end of a liveness window opened at now.
func (l *Ledger) expiry(now time.Time) time.Time {
	if l.livenessTTL <= 0 {
		return time.Time{}
	}
	return now.Add(l.livenessTTL)
}

func (l *Ledger) authorize(ctx context.Context, role auth.Role, identity types.Address) error {
	if err := l.gate.Require(ctx, role, identity); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return nil
}

// loadSettings reads the configuration and refreshes its liveness window.
func (l *Ledger) loadSettings(ctx context.Context) (*settings.Settings, error) {
	cfg, err := l.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if exp := l.expiry(l.wallNow()); !exp.IsZero() {
		if err := l.store.TouchSettings(ctx, exp); err != nil {
			return nil, fmt.Errorf("streamledger: touch settings: %w", err)
		}
		cfg.ExpiresAt = exp
	}
	return cfg, nil
}

// loadStream reads a stream and refreshes its liveness window.
func (l *Ledger) loadStream(ctx context.Context, streamID stream.ID) (*stream.Stream, error) {
	s, err := l.store.GetStream(ctx, streamID)
	if err != nil {
		return nil, err
	}
	if exp := l.expiry(l.wallNow()); !exp.IsZero() {
		if err := l.store.TouchStream(ctx, streamID, exp); err != nil {
			return nil, fmt.Errorf("streamledger: touch stream %d: %w", streamID, err)
		}
		s.ExpiresAt = exp
	}
	return s, nil
}

// saveStream stamps and persists s.
func (l *Ledger) saveStream(ctx context.Context, s *stream.Stream) error {
	now := l.wallNow()
	s.Touch(now)
	if exp := l.expiry(now); !exp.IsZero() {
		s.ExpiresAt = exp
	}
	return l.store.UpdateStream(ctx, s)
}

// emit delivers events to plugins once the operation's lock is released.
func (l *Ledger) emit(ctx context.Context, events ...*stream.Event) {
	for _, ev := range events {
		l.plugins.EmitStreamEvent(ctx, ev)
	}
}
