package streamledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/streamledger/auth"
	"github.com/xraph/streamledger/id"
	"github.com/xraph/streamledger/stream"
	"github.com/xraph/streamledger/types"
)

// Withdraw pays the recipient everything vested and not yet withdrawn.
// Recipient only. The record is saved before the payout; if the payout
// fails the record is restored and an insufficient-funds error returned.
func (l *Ledger) Withdraw(ctx context.Context, streamID stream.ID) (types.Amount, error) {
	opCtx, unlock := l.lock(ctx)
	res, err := l.withdraw(opCtx, streamID)
	unlock()
	if err != nil {
		if res != nil {
			l.plugins.EmitTransferFailed(ctx, res.event, err)
		}
		return 0, err
	}

	l.logger.Debug("stream withdrew",
		"stream_id", streamID,
		"amount", res.amount,
		"status", res.event.Status,
	)
	events := []*stream.Event{res.event}
	if res.event.Status == stream.StatusCompleted {
		completed := *res.event
		completed.ID = id.NewEventID()
		completed.Type = stream.EventCompleted
		events = append(events, &completed)
	}
	l.emit(ctx, events...)

	return res.amount, nil
}

// settlement is the outcome of a withdraw or cancel. On a failed payout it
// carries the event that was rolled back.
type settlement struct {
	amount types.Amount
	event  *stream.Event
}

func (l *Ledger) withdraw(ctx context.Context, streamID stream.ID) (*settlement, error) {
	cfg, err := l.loadSettings(ctx)
	if err != nil {
		return nil, err
	}
	s, prev, err := l.beginTransition(ctx, streamID, auth.RoleRecipient, opWithdraw)
	if err != nil {
		return nil, err
	}

	now := l.ledgerNow()
	amount := s.Withdrawable(now)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("stream %d: %w", streamID, ErrNothingToWithdraw)
	}

	if amount > s.Remaining() {
		return nil, fmt.Errorf("stream %d: %w: withdrawn amount exceeds deposit", streamID, ErrOverflow)
	}
	s.WithdrawnAmount += amount
	if s.Remaining() == 0 {
		s.Status = stream.StatusCompleted
	}
	if err := l.saveStream(ctx, s); err != nil {
		return nil, err
	}

	ev := stream.NewEvent(stream.EventWithdrew, s, auth.RoleRecipient, amount, now)
	receipt, err := l.tokens.Disburse(ctx, cfg.Asset, s.Recipient, amount)
	if err != nil {
		return &settlement{amount: amount, event: ev}, l.rollback(ctx, prev, s.Status, amount, err)
	}
	ev.Transfer = receipt.ID

	return &settlement{amount: amount, event: ev}, nil
}

func (l *Ledger) cancel(ctx context.Context, streamID stream.ID, role auth.Role) (types.Amount, error) {
	opCtx, unlock := l.lock(ctx)
	res, err := l.settleCancel(opCtx, streamID, role)
	unlock()
	if err != nil {
		if res != nil {
			l.plugins.EmitTransferFailed(ctx, res.event, err)
		}
		return 0, err
	}

	l.logger.Debug("stream cancelled",
		"stream_id", streamID,
		"role", role,
		"amount", res.amount,
		"status", res.event.Status,
	)
	l.emit(ctx, res.event)

	return res.amount, nil
}

func (l *Ledger) settleCancel(ctx context.Context, streamID stream.ID, role auth.Role) (*settlement, error) {
	cfg, err := l.loadSettings(ctx)
	if err != nil {
		return nil, err
	}
	s, prev, err := l.beginTransition(ctx, streamID, role, opCancel)
	if err != nil {
		return nil, err
	}

	now := l.ledgerNow()

	refund := s.Refundable(now)
	s.CancelledAt = &now
	if err := l.saveStream(ctx, s); err != nil {
		return nil, err
	}

	ev := stream.NewEvent(stream.EventCancelled, s, role, refund, now)
	if refund.IsPositive() {
		receipt, err := l.tokens.Disburse(ctx, cfg.Asset, s.Sender, refund)
		if err != nil {
			return &settlement{amount: refund, event: ev}, l.rollback(ctx, prev, s.Status, 0, err)
		}
		ev.Transfer = receipt.ID
	}

	return &settlement{amount: refund, event: ev}, nil
}

// rollback undoes a saved settlement whose payout failed. It reloads the
// record so that anything a nested call committed during the transfer is
// kept, removes the unpaid amount, and restores the status if it is still
// the one this settlement set.
func (l *Ledger) rollback(ctx context.Context, prev *stream.Stream, setStatus stream.Status, unpaid types.Amount, cause error) error {
	failure := fmt.Errorf("stream %d: payout: %w", prev.ID, wrapFunds(cause))

	cur, err := l.store.GetStream(ctx, prev.ID)
	if err == nil {
		cur.WithdrawnAmount -= unpaid
		if cur.Status == setStatus {
			cur.Status = prev.Status
			cur.CancelledAt = prev.CancelledAt
		}
		err = l.saveStream(ctx, cur)
	}
	if err != nil {
		l.logger.Error("failed to roll back stream after payout failure",
			"stream_id", prev.ID,
			"error", err,
		)
		return MultiError{Errors: []error{failure, fmt.Errorf("streamledger: rollback: %w", err)}}
	}

	l.logger.Warn("payout failed, stream restored",
		"stream_id", prev.ID,
		"status", cur.Status,
		"error", cause,
	)
	return failure
}

// wrapFunds classifies any transfer failure as insufficient funds.
func wrapFunds(err error) error {
	if errors.Is(err, ErrInsufficientFunds) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
}
