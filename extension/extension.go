// Package extension provides the Forge extension adapter for streamledger.
//
// It implements the forge.Extension interface to integrate the ledger
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.streamledger" or
// "streamledger" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/streamledger"
	"github.com/xraph/streamledger/observability"
	"github.com/xraph/streamledger/store"
	"github.com/xraph/streamledger/store/memory"
	"github.com/xraph/streamledger/token"
	tokenmem "github.com/xraph/streamledger/token/memory"
	"github.com/xraph/streamledger/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "streamledger"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Time-based value streaming ledger"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the ledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *streamledger.Ledger
	store      store.Store
	tokens     token.Transferrer
	ledgerOpts []streamledger.Option
}

// New creates a new streamledger Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *streamledger.Ledger { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the ledger engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use in-memory backends if none were provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}
	if e.tokens == nil {
		e.tokens = tokenmem.New()
	}

	e.engine = streamledger.New(e.store, e.tokens, e.buildLedgerOpts()...)

	return vessel.Provide(fapp.Container(), func() (*streamledger.Ledger, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("streamledger: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	if err := e.autoInit(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("streamledger: store not initialized")
	}
	return e.store.Ping(ctx)
}

// autoInit stores the configured asset and admin.
func (e *Extension) autoInit(ctx context.Context) error {
	if e.config.Asset == "" || e.config.Admin == "" {
		return nil
	}

	err := e.engine.Init(ctx, types.Address(e.config.Asset), types.Address(e.config.Admin))
	if err != nil && !streamledger.IsAlreadyInitialized(err) {
		return fmt.Errorf("streamledger: auto init: %w", err)
	}
	return nil
}

// buildLedgerOpts constructs streamledger.Option values from the resolved config.
func (e *Extension) buildLedgerOpts() []streamledger.Option {
	opts := make([]streamledger.Option, 0, len(e.ledgerOpts)+3)

	// Negative values disable; zero was already replaced by the default.
	ttl := max(e.config.LivenessTTL, 0)
	opts = append(opts, streamledger.WithLivenessTTL(ttl))

	sweep := max(e.config.SweepInterval, 0)
	opts = append(opts, streamledger.WithSweepInterval(sweep))

	if e.config.EnableMetrics {
		factory := observability.NewPrometheusFactory(nil)
		opts = append(opts, streamledger.WithPlugin(observability.NewMetricsExtension(factory)))
	}

	// Append any pass-through ledger options.
	opts = append(opts, e.ledgerOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("streamledger: configuration is required but not found in config files; " +
				"ensure 'extensions.streamledger' or 'streamledger' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("streamledger: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("liveness_ttl", e.config.LivenessTTL),
		forge.F("sweep_interval", e.config.SweepInterval),
		forge.F("enable_metrics", e.config.EnableMetrics),
		forge.F("asset", e.config.Asset),
		forge.F("auto_init", e.config.Asset != "" && e.config.Admin != ""),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.streamledger" first (namespaced pattern).
	if cm.IsSet("extensions.streamledger") {
		if err := cm.Bind("extensions.streamledger", &cfg); err == nil {
			e.Logger().Debug("streamledger: loaded config from file",
				forge.F("key", "extensions.streamledger"),
			)
			return cfg, true
		}
		e.Logger().Warn("streamledger: failed to bind extensions.streamledger config",
			forge.F("error", "bind failed"),
		)
	}

	// Try the short "streamledger" key.
	if cm.IsSet("streamledger") {
		if err := cm.Bind("streamledger", &cfg); err == nil {
			e.Logger().Debug("streamledger: loaded config from file",
				forge.F("key", "streamledger"),
			)
			return cfg, true
		}
		e.Logger().Warn("streamledger: failed to bind streamledger config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.LivenessTTL == 0 {
		cfg.LivenessTTL = defaults.LivenessTTL
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = defaults.SweepInterval
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.EnableMetrics {
		yamlConfig.EnableMetrics = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.Asset == "" && programmaticConfig.Asset != "" {
		yamlConfig.Asset = programmaticConfig.Asset
	}
	if yamlConfig.Admin == "" && programmaticConfig.Admin != "" {
		yamlConfig.Admin = programmaticConfig.Admin
	}

	// Duration fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.LivenessTTL == 0 && programmaticConfig.LivenessTTL != 0 {
		yamlConfig.LivenessTTL = programmaticConfig.LivenessTTL
	}
	if yamlConfig.SweepInterval == 0 && programmaticConfig.SweepInterval != 0 {
		yamlConfig.SweepInterval = programmaticConfig.SweepInterval
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
