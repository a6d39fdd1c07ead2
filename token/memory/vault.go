// Package memory provides an in-process token.Transferrer that keeps
// balances in maps. It is meant for tests and single-process embeddings.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	streamledger "github.com/xraph/streamledger"
	"github.com/xraph/streamledger/id"
	"github.com/xraph/streamledger/token"
	"github.com/xraph/streamledger/types"
)

// compile-time interface check
var _ token.Transferrer = (*Vault)(nil)

type account struct {
	asset types.Address
	owner types.Address
}

// Vault holds balances per asset and account, with deposits parked under
// token.Custody.
type Vault struct {
	mu       sync.Mutex
	balances map[account]types.Amount
	receipts []token.Receipt

	// afterDisburse runs once a payout has been booked, outside the lock.
	afterDisburse func(ctx context.Context, r token.Receipt)
}

// New creates an empty vault.
func New() *Vault {
	return &Vault{
		balances: make(map[account]types.Amount),
	}
}

// OnDisburse installs a callback that fires after every payout while the
// ledger's transfer call is still in flight.
func (v *Vault) OnDisburse(fn func(ctx context.Context, r token.Receipt)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.afterDisburse = fn
}

// Mint credits amount to owner out of thin air.
func (v *Vault) Mint(asset, owner types.Address, amount types.Amount) {
	v.mu.Lock()
	defer v.mu.Unlock()
	k := account{asset, owner}
	v.balances[k] += amount
}

// SetBalance overwrites a balance. Tests use it to drain custody.
func (v *Vault) SetBalance(asset, owner types.Address, amount types.Amount) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.balances[account{asset, owner}] = amount
}

// Balance returns the balance of owner.
func (v *Vault) Balance(asset, owner types.Address) types.Amount {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balances[account{asset, owner}]
}

// Custody returns the amount currently held by the ledger.
func (v *Vault) Custody(asset types.Address) types.Amount {
	return v.Balance(asset, token.Custody)
}

// Receipts returns every booked transfer in order.
func (v *Vault) Receipts() []token.Receipt {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]token.Receipt, len(v.receipts))
	copy(out, v.receipts)
	return out
}

// Collect implements token.Transferrer.
func (v *Vault) Collect(_ context.Context, asset, from types.Address, amount types.Amount) (token.Receipt, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.move(asset, from, token.Custody, amount)
}

// Disburse implements token.Transferrer.
func (v *Vault) Disburse(ctx context.Context, asset, to types.Address, amount types.Amount) (token.Receipt, error) {
	v.mu.Lock()
	r, err := v.move(asset, token.Custody, to, amount)
	hook := v.afterDisburse
	v.mu.Unlock()

	if err == nil && hook != nil {
		hook(ctx, r)
	}
	return r, err
}

func (v *Vault) move(asset, from, to types.Address, amount types.Amount) (token.Receipt, error) {
	if !amount.IsPositive() {
		return token.Receipt{}, fmt.Errorf("token/memory: transfer amount %d must be positive", amount)
	}

	src := account{asset, from}
	if v.balances[src] < amount {
		return token.Receipt{}, fmt.Errorf("%w: %s holds %d of %s, needs %d",
			streamledger.ErrInsufficientFunds, from, v.balances[src], asset, amount)
	}

	dst := account{asset, to}
	credited, ok := v.balances[dst].CheckedAdd(amount)
	if !ok {
		return token.Receipt{}, fmt.Errorf("token/memory: balance of %s: %w", to, streamledger.ErrOverflow)
	}
	v.balances[src] -= amount
	v.balances[dst] = credited

	r := token.Receipt{
		ID:     id.NewTransferID(),
		Asset:  asset,
		From:   from,
		To:     to,
		Amount: amount,
		At:     time.Now().UTC(),
	}
	v.receipts = append(v.receipts, r)
	return r, nil
}
