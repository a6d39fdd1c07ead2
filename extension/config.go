package extension

import "time"

// Config holds the streamledger extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.streamledger" or "streamledger" keys).
type Config struct {
	// DisableMigrate prevents auto-migration and the engine start hook.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// LivenessTTL is how far every access pushes a record's expiry
	// (default: 7 days). A negative value disables expiry bookkeeping.
	LivenessTTL time.Duration `json:"liveness_ttl" mapstructure:"liveness_ttl" yaml:"liveness_ttl"`

	// SweepInterval is how often expired streams are purged (default: 1h).
	// A negative value disables the sweeper.
	SweepInterval time.Duration `json:"sweep_interval" mapstructure:"sweep_interval" yaml:"sweep_interval"`

	// Asset and Admin, when both set, initialise the ledger on start.
	// An already initialised ledger is left as is.
	Asset string `json:"asset" mapstructure:"asset" yaml:"asset"`
	Admin string `json:"admin" mapstructure:"admin" yaml:"admin"`

	// EnableMetrics registers the Prometheus metrics plugin against the
	// default registerer.
	EnableMetrics bool `json:"enable_metrics" mapstructure:"enable_metrics" yaml:"enable_metrics"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LivenessTTL:   7 * 24 * time.Hour,
		SweepInterval: time.Hour,
	}
}
