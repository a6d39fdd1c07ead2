// Package token defines the value-transfer primitive the ledger settles
// through. The ledger holds deposits in custody between Collect and
// Disburse; how custody is realised is up to the implementation.
package token

import (
	"context"
	"time"

	"github.com/xraph/streamledger/id"
	"github.com/xraph/streamledger/types"
)

// Custody is the account name deposits are held under.
const Custody types.Address = "streamledger:custody"

// Receipt records one completed transfer.
type Receipt struct {
	ID     id.TransferID `json:"id"`
	Asset  types.Address `json:"asset"`
	From   types.Address `json:"from"`
	To     types.Address `json:"to"`
	Amount types.Amount  `json:"amount"`
	At     time.Time     `json:"at"`
}

// Transferrer moves value of a single asset between a party and custody.
//
// Implementations may call back into the ledger while a transfer is in
// flight. They must pass the ctx they were given so the ledger can
// recognise the nested call.
type Transferrer interface {
	// Collect pulls amount from a party into custody.
	Collect(ctx context.Context, asset, from types.Address, amount types.Amount) (Receipt, error)
	// Disburse pays amount out of custody to a party.
	Disburse(ctx context.Context, asset, to types.Address, amount types.Amount) (Receipt, error)
}
