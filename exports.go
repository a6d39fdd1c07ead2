package streamledger

import (
	"github.com/xraph/streamledger/stream"
	"github.com/xraph/streamledger/types"
)

// Re-export common types for convenience so users don't have to import
// the types and stream packages for everyday calls.

// Amount is re-exported from types package.
type Amount = types.Amount

// Address is re-exported from types package.
type Address = types.Address

// Entity is re-exported from types package.
type Entity = types.Entity

// StreamID is re-exported from stream package.
type StreamID = stream.ID

// StreamParams is re-exported from stream package.
type StreamParams = stream.Params

// Re-export helpers
var (
	Sum       = types.Sum
	NewEntity = types.NewEntity
)
