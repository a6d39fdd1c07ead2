package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/streamledger/stream"
	"github.com/xraph/streamledger/types"
)

// DefaultHookTimeout bounds how long a single plugin hook may run.
const DefaultHookTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit            []OnInit
	onShutdown        []OnShutdown
	onStreamCreated   []OnStreamCreated
	onStreamPaused    []OnStreamPaused
	onStreamResumed   []OnStreamResumed
	onStreamCancelled []OnStreamCancelled
	onStreamWithdrawn []OnStreamWithdrawn
	onStreamCompleted []OnStreamCompleted
	onAdminUpdated    []OnAdminUpdated
	onTransferFailed  []OnTransferFailed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultHookTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnStreamCreated); ok {
		r.onStreamCreated = append(r.onStreamCreated, v)
	}
	if v, ok := p.(OnStreamPaused); ok {
		r.onStreamPaused = append(r.onStreamPaused, v)
	}
	if v, ok := p.(OnStreamResumed); ok {
		r.onStreamResumed = append(r.onStreamResumed, v)
	}
	if v, ok := p.(OnStreamCancelled); ok {
		r.onStreamCancelled = append(r.onStreamCancelled, v)
	}
	if v, ok := p.(OnStreamWithdrawn); ok {
		r.onStreamWithdrawn = append(r.onStreamWithdrawn, v)
	}
	if v, ok := p.(OnStreamCompleted); ok {
		r.onStreamCompleted = append(r.onStreamCompleted, v)
	}
	if v, ok := p.(OnAdminUpdated); ok {
		r.onAdminUpdated = append(r.onAdminUpdated, v)
	}
	if v, ok := p.(OnTransferFailed); ok {
		r.onTransferFailed = append(r.onTransferFailed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", getImplementedInterfaces(p),
	)

	return nil
}

var hookInterfaces = []struct {
	name  string
	iface reflect.Type
}{
	{"OnInit", reflect.TypeOf((*OnInit)(nil)).Elem()},
	{"OnShutdown", reflect.TypeOf((*OnShutdown)(nil)).Elem()},
	{"OnStreamCreated", reflect.TypeOf((*OnStreamCreated)(nil)).Elem()},
	{"OnStreamPaused", reflect.TypeOf((*OnStreamPaused)(nil)).Elem()},
	{"OnStreamResumed", reflect.TypeOf((*OnStreamResumed)(nil)).Elem()},
	{"OnStreamCancelled", reflect.TypeOf((*OnStreamCancelled)(nil)).Elem()},
	{"OnStreamWithdrawn", reflect.TypeOf((*OnStreamWithdrawn)(nil)).Elem()},
	{"OnStreamCompleted", reflect.TypeOf((*OnStreamCompleted)(nil)).Elem()},
	{"OnAdminUpdated", reflect.TypeOf((*OnAdminUpdated)(nil)).Elem()},
	{"OnTransferFailed", reflect.TypeOf((*OnTransferFailed)(nil)).Elem()},
}

// getImplementedInterfaces returns the hook names implemented by p.
func getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)
	for _, h := range hookInterfaces {
		if v.Implements(h.iface) {
			interfaces = append(interfaces, h.name)
		}
	}
	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, ledger any) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	dispatch(ctx, r, "OnInit", plugins, func(p OnInit) error {
		return p.OnInit(ctx, ledger)
	})
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	dispatch(ctx, r, "OnShutdown", plugins, func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

// EmitStreamEvent routes ev to the hook matching its type.
func (r *Registry) EmitStreamEvent(ctx context.Context, ev *stream.Event) {
	r.mu.RLock()
	created, paused, resumed := r.onStreamCreated, r.onStreamPaused, r.onStreamResumed
	cancelled, withdrawn, completed := r.onStreamCancelled, r.onStreamWithdrawn, r.onStreamCompleted
	r.mu.RUnlock()

	switch ev.Type {
	case stream.EventCreated:
		dispatch(ctx, r, "OnStreamCreated", created, func(p OnStreamCreated) error {
			return p.OnStreamCreated(ctx, ev)
		})
	case stream.EventPaused:
		dispatch(ctx, r, "OnStreamPaused", paused, func(p OnStreamPaused) error {
			return p.OnStreamPaused(ctx, ev)
		})
	case stream.EventResumed:
		dispatch(ctx, r, "OnStreamResumed", resumed, func(p OnStreamResumed) error {
			return p.OnStreamResumed(ctx, ev)
		})
	case stream.EventCancelled:
		dispatch(ctx, r, "OnStreamCancelled", cancelled, func(p OnStreamCancelled) error {
			return p.OnStreamCancelled(ctx, ev)
		})
	case stream.EventWithdrew:
		dispatch(ctx, r, "OnStreamWithdrawn", withdrawn, func(p OnStreamWithdrawn) error {
			return p.OnStreamWithdrawn(ctx, ev)
		})
	case stream.EventCompleted:
		dispatch(ctx, r, "OnStreamCompleted", completed, func(p OnStreamCompleted) error {
			return p.OnStreamCompleted(ctx, ev)
		})
	default:
		r.logger.Warn("plugin: unknown stream event type", "type", ev.Type)
	}
}

// EmitAdminUpdated emits an administrator rotation.
func (r *Registry) EmitAdminUpdated(ctx context.Context, oldAdmin, newAdmin types.Address) {
	r.mu.RLock()
	plugins := r.onAdminUpdated
	r.mu.RUnlock()

	dispatch(ctx, r, "OnAdminUpdated", plugins, func(p OnAdminUpdated) error {
		return p.OnAdminUpdated(ctx, oldAdmin, newAdmin)
	})
}

// EmitTransferFailed emits a rolled-back settlement.
func (r *Registry) EmitTransferFailed(ctx context.Context, ev *stream.Event, cause error) {
	r.mu.RLock()
	plugins := r.onTransferFailed
	r.mu.RUnlock()

	dispatch(ctx, r, "OnTransferFailed", plugins, func(p OnTransferFailed) error {
		return p.OnTransferFailed(ctx, ev, cause)
	})
}

// dispatch calls fn for every plugin, logging failures. Plugins never fail
// the operation that emitted the event.
func dispatch[T Plugin](ctx context.Context, r *Registry, hook string, plugins []T, fn func(T) error) {
	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return fn(p)
		}); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
