// Package streamledger provides a time-based value-streaming ledger for Go
// applications.
//
// A sender locks a fixed deposit that vests continuously to a recipient at
// a fixed rate per second, with an optional cliff and a hard end time.
// Streams can be paused, resumed, cancelled and partially withdrawn, and
// the ledger always splits the deposit exactly between what the recipient
// has earned and what returns to the sender.
//
// streamledger is designed as a library, not a service. It provides:
//
//   - A pure accrual calculator with overflow clamping
//   - A lifecycle state machine (active, paused, completed, cancelled)
//   - Settlement that persists state before moving value
//   - Batch creation with a single deposit transfer
//   - Pluggable storage (memory, PostgreSQL, SQLite, MongoDB via Grove)
//   - Lifecycle hooks for audit trails and Prometheus metrics
//
// # Quick Start
//
// Create a ledger with a store and a token transferrer:
//
//	import (
//	    "github.com/xraph/streamledger"
//	    "github.com/xraph/streamledger/store/memory"
//	    tokenmem "github.com/xraph/streamledger/token/memory"
//	)
//
//	vault := tokenmem.New()
//	l := streamledger.New(memory.New(), vault)
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
//	// The caller identity travels in the context.
//	adminCtx := auth.WithCaller(ctx, "GADMIN")
//	if err := l.Init(adminCtx, "USDC", "GADMIN"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Streams
//
// A stream of 1000 units over 1000 seconds:
//
//	id, err := l.CreateStream(auth.WithCaller(ctx, sender), stream.Params{
//	    Sender:    sender,
//	    Recipient: recipient,
//	    Deposit:   1000,
//	    Rate:      1,
//	    StartTime: 0,
//	    CliffTime: 0,
//	    EndTime:   1000,
//	})
//
// The recipient withdraws whatever has vested:
//
//	paid, err := l.Withdraw(auth.WithCaller(ctx, recipient), id)
//
// Pausing disables withdrawals but does not stop accrual. Cancelling
// refunds the unvested part to the sender immediately and freezes accrual
// at the cancellation time; the recipient can still withdraw what vested.
//
// # Errors
//
// Every failure is one of a small set of kinds (validation, unauthorized,
// state, not found, uninitialized, insufficient funds). Use the Is*
// helpers or KindOf to branch on them:
//
//	if streamledger.KindOf(err) == streamledger.KindState { ... }
//
// # Time
//
// Ledger time is whole seconds from the configured clock (WithClock).
// All amounts are integers in the asset's smallest unit.
package streamledger
