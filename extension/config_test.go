package extension

import (
	"testing"
	"time"

	"github.com/xraph/streamledger"
	"github.com/xraph/streamledger/auth"
)

func TestMergeWithDefaults(t *testing.T) {
	e := &Extension{}

	got := e.mergeWithDefaults(Config{})
	if got.LivenessTTL != 7*24*time.Hour || got.SweepInterval != time.Hour {
		t.Errorf("defaults not applied: %+v", got)
	}

	got = e.mergeWithDefaults(Config{LivenessTTL: time.Minute, SweepInterval: -1})
	if got.LivenessTTL != time.Minute || got.SweepInterval != -1 {
		t.Errorf("explicit values overwritten: %+v", got)
	}
}

func TestMergeConfigurations(t *testing.T) {
	e := &Extension{}

	yaml := Config{Asset: "USDC", LivenessTTL: time.Hour}
	prog := Config{
		Asset:          "EURC",
		Admin:          "GADMIN",
		DisableMigrate: true,
		EnableMetrics:  true,
		LivenessTTL:    time.Minute,
		SweepInterval:  10 * time.Minute,
	}

	got := e.mergeConfigurations(yaml, prog)

	if got.Asset != "USDC" {
		t.Errorf("Asset = %q, file value should win", got.Asset)
	}
	if got.Admin != "GADMIN" {
		t.Errorf("Admin = %q, programmatic value should fill the gap", got.Admin)
	}
	if !got.DisableMigrate || !got.EnableMetrics {
		t.Errorf("programmatic flags lost: %+v", got)
	}
	if got.LivenessTTL != time.Hour {
		t.Errorf("LivenessTTL = %v, file value should win", got.LivenessTTL)
	}
	if got.SweepInterval != 10*time.Minute {
		t.Errorf("SweepInterval = %v, want programmatic value", got.SweepInterval)
	}
}

func TestBuildLedgerOpts(t *testing.T) {
	e := New(WithInit("USDC", "GADMIN"), WithLivenessTTL(-1))
	e.config = e.mergeWithDefaults(e.config)

	// TTL, sweep interval and nothing else.
	if got := len(e.buildLedgerOpts()); got != 2 {
		t.Errorf("len(opts) = %d, want 2", got)
	}

	WithLedgerOption(streamledger.WithGate(auth.AllowAll))(e)
	e.config.EnableMetrics = true
	if got := len(e.buildLedgerOpts()); got != 4 {
		t.Errorf("len(opts) = %d, want 4", got)
	}
}
