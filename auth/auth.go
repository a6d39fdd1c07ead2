// Package auth is the authorization gate of the stream ledger.
//
// The ledger never authenticates anybody itself. It asks a Gate whether the
// caller carried by the context may act as a given identity, and the host
// decides how that caller got there (signed request, session, test fixture).
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/streamledger/types"
)

// Role is the capability an operation is being performed under.
type Role string

const (
	RoleSender    Role = "sender"
	RoleRecipient Role = "recipient"
	RoleAdmin     Role = "admin"
)

// ErrDenied is returned by a Gate when the caller does not hold the role.
// The ledger wraps it in its own unauthorized error.
var ErrDenied = errors.New("auth: caller does not hold the required role")

// Gate checks that the caller in ctx may act as identity under role.
type Gate interface {
	Require(ctx context.Context, role Role, identity types.Address) error
}

// GateFunc adapts a function to the Gate interface.
type GateFunc func(ctx context.Context, role Role, identity types.Address) error

// Require implements Gate.
func (f GateFunc) Require(ctx context.Context, role Role, identity types.Address) error {
	return f(ctx, role, identity)
}

type callerKey struct{}

// WithCaller returns a copy of ctx carrying the authenticated caller.
func WithCaller(ctx context.Context, caller types.Address) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom returns the caller stored by WithCaller.
func CallerFrom(ctx context.Context) (types.Address, bool) {
	caller, ok := ctx.Value(callerKey{}).(types.Address)
	if !ok || caller.IsZero() {
		return "", false
	}
	return caller, true
}

// ContextGate grants a role when the context caller equals the identity the
// role belongs to.
type ContextGate struct{}

var _ Gate = ContextGate{}

// Require implements Gate.
func (ContextGate) Require(ctx context.Context, role Role, identity types.Address) error {
	caller, ok := CallerFrom(ctx)
	if !ok {
		return fmt.Errorf("%w: no caller in context for %s", ErrDenied, role)
	}
	if caller != identity {
		return fmt.Errorf("%w: %s is not the %s", ErrDenied, caller, role)
	}
	return nil
}

// AllowAll is a Gate that grants every role. Use it only in trusted
// embeddings where the host has already authorized the call.
var AllowAll Gate = GateFunc(func(context.Context, Role, types.Address) error { return nil })
