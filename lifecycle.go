package streamledger

import (
	"context"
	"fmt"

	"github.com/xraph/streamledger/auth"
	"github.com/xraph/streamledger/stream"
	"github.com/xraph/streamledger/types"
)

// operation is a mutating lifecycle call.
type operation string

const (
	opPause    operation = "pause"
	opResume   operation = "resume"
	opCancel   operation = "cancel"
	opWithdraw operation = "withdraw"
)

// nextStatus is the lifecycle transition table. For opWithdraw the result
// is the status before settlement; settlement may move it to Completed.
func nextStatus(from stream.Status, op operation) (stream.Status, error) {
	switch op {
	case opPause:
		switch from {
		case stream.StatusActive:
			return stream.StatusPaused, nil
		case stream.StatusPaused:
			return from, ErrStreamNotActive
		}
	case opResume:
		switch from {
		case stream.StatusPaused:
			return stream.StatusActive, nil
		case stream.StatusActive:
			return from, ErrStreamNotPaused
		}
	case opCancel:
		switch from {
		case stream.StatusActive, stream.StatusPaused:
			return stream.StatusCancelled, nil
		}
	case opWithdraw:
		// A cancelled stream still pays out what vested before cancellation.
		switch from {
		case stream.StatusActive, stream.StatusCancelled:
			return from, nil
		case stream.StatusPaused:
			return from, ErrStreamPaused
		}
	default:
		return from, fmt.Errorf("%w: unknown operation %q", ErrInvalidInput, op)
	}
	return from, fmt.Errorf("%w: cannot %s a %s stream", ErrStreamTerminal, op, from)
}

// ──────────────────────────────────────────────────
// Creation
// ──────────────────────────────────────────────────

// CreateStream locks p.Deposit from the sender and opens a new stream.
// The caller must be the sender.
func (l *Ledger) CreateStream(ctx context.Context, p stream.Params) (stream.ID, error) {
	ids, err := l.createStreams(ctx, p.Sender, []stream.Params{p}, true)
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// CreateStreams opens several streams from one sender. All params are
// validated first, the summed deposit is collected in one transfer, and the
// streams receive consecutive IDs. Either every stream is created or none.
func (l *Ledger) CreateStreams(ctx context.Context, sender types.Address, params []stream.Params) ([]stream.ID, error) {
	return l.createStreams(ctx, sender, params, false)
}

func (l *Ledger) createStreams(ctx context.Context, sender types.Address, params []stream.Params, single bool) ([]stream.ID, error) {
	opCtx, unlock := l.lock(ctx)
	streams, err := l.openStreams(opCtx, sender, params, single)
	unlock()
	if err != nil {
		return nil, err
	}

	ids := make([]stream.ID, len(streams))
	events := make([]*stream.Event, len(streams))
	now := l.ledgerNow()
	for i, s := range streams {
		ids[i] = s.ID
		events[i] = stream.NewEvent(stream.EventCreated, s, auth.RoleSender, s.DepositAmount, now)
		l.logger.Debug("stream created",
			"stream_id", s.ID,
			"sender", s.Sender,
			"recipient", s.Recipient,
			"amount", s.DepositAmount,
		)
	}
	l.emit(ctx, events...)

	return ids, nil
}

func (l *Ledger) openStreams(ctx context.Context, sender types.Address, params []stream.Params, single bool) ([]*stream.Stream, error) {
	cfg, err := l.loadSettings(ctx)
	if err != nil {
		return nil, err
	}
	if err := l.authorize(ctx, auth.RoleSender, sender); err != nil {
		return nil, err
	}
	if len(params) == 0 {
		return nil, nil
	}
	params = append([]stream.Params(nil), params...)

	var total types.Amount
	for i := range params {
		idx := i
		if single {
			idx = -1
		}
		if params[i].Sender.IsZero() {
			params[i].Sender = sender
		}
		if err := validateParams(idx, sender, params[i]); err != nil {
			return nil, err
		}
		var ok bool
		if total, ok = total.CheckedAdd(params[i].Deposit); !ok {
			return nil, ValidationError{Index: idx, Field: "deposit", Message: "batch total overflows", Err: ErrOverflow}
		}
	}

	if _, err := l.tokens.Collect(ctx, cfg.Asset, sender, total); err != nil {
		return nil, fmt.Errorf("streamledger: collect deposit: %w", wrapFunds(err))
	}

	now := l.wallNow()
	streams := make([]*stream.Stream, len(params))
	for i, p := range params {
		s := stream.New(p, now)
		s.ExpiresAt = l.expiry(now)
		streams[i] = s
	}

	if err := l.store.CreateStreams(ctx, streams); err != nil {
		// Nothing was persisted, so the deposit goes back to the sender.
		var errs MultiError
		errs.Add(err)
		if _, refundErr := l.tokens.Disburse(ctx, cfg.Asset, sender, total); refundErr != nil {
			l.logger.Error("failed to return deposit after create failure",
				"sender", sender,
				"amount", total,
				"error", refundErr,
			)
			errs.Add(fmt.Errorf("streamledger: return deposit: %w", refundErr))
		}
		return nil, errs.ErrOrNil()
	}

	return streams, nil
}

// validateParams checks one set of creation parameters. idx is the batch
// position or -1.
func validateParams(idx int, sender types.Address, p stream.Params) error {
	fail := func(field, msg string, err error) error {
		return ValidationError{Index: idx, Field: field, Message: msg, Err: err}
	}

	switch {
	case p.Sender != sender:
		return fail("sender", "does not match the batch sender", ErrInvalidInput)
	case p.Recipient.IsZero():
		return fail("recipient", "must not be empty", ErrInvalidInput)
	case !p.Deposit.IsPositive():
		return fail("deposit", "must be positive", ErrInvalidAmount)
	case !p.Rate.IsPositive():
		return fail("rate_per_second", "must be positive", ErrInvalidRate)
	case p.Sender == p.Recipient:
		return fail("recipient", "must differ from sender", ErrSameParty)
	case p.StartTime < 0:
		return fail("start_time", "must not be negative", ErrInvalidTimes)
	case p.StartTime >= p.EndTime:
		return fail("start_time", "must be before end_time", ErrInvalidTimes)
	case p.CliffTime < p.StartTime || p.CliffTime > p.EndTime:
		return fail("cliff_time", "must be within [start_time, end_time]", ErrInvalidTimes)
	}

	streamable, ok := p.Rate.CheckedMul(p.Duration())
	if !ok {
		return fail("rate_per_second", "rate times duration overflows", ErrOverflow)
	}
	if p.Deposit < streamable {
		return fail("deposit", fmt.Sprintf("%d does not cover %d streamable", p.Deposit, streamable), ErrUnderfunded)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Pause / resume / cancel
// ──────────────────────────────────────────────────

// PauseStream disables withdrawals. Accrual continues. Sender only.
func (l *Ledger) PauseStream(ctx context.Context, streamID stream.ID) error {
	return l.setPaused(ctx, streamID, auth.RoleSender, opPause)
}

// ResumeStream re-enables withdrawals on a paused stream. Sender only.
func (l *Ledger) ResumeStream(ctx context.Context, streamID stream.ID) error {
	return l.setPaused(ctx, streamID, auth.RoleSender, opResume)
}

// CancelStream ends the stream and refunds the unvested deposit to the
// sender. Sender only. It returns the refund.
func (l *Ledger) CancelStream(ctx context.Context, streamID stream.ID) (types.Amount, error) {
	return l.cancel(ctx, streamID, auth.RoleSender)
}

// PauseStreamAsAdmin is PauseStream authorised by the administrator.
func (l *Ledger) PauseStreamAsAdmin(ctx context.Context, streamID stream.ID) error {
	return l.setPaused(ctx, streamID, auth.RoleAdmin, opPause)
}

// ResumeStreamAsAdmin is ResumeStream authorised by the administrator.
func (l *Ledger) ResumeStreamAsAdmin(ctx context.Context, streamID stream.ID) error {
	return l.setPaused(ctx, streamID, auth.RoleAdmin, opResume)
}

// CancelStreamAsAdmin is CancelStream authorised by the administrator.
func (l *Ledger) CancelStreamAsAdmin(ctx context.Context, streamID stream.ID) (types.Amount, error) {
	return l.cancel(ctx, streamID, auth.RoleAdmin)
}

func (l *Ledger) setPaused(ctx context.Context, streamID stream.ID, role auth.Role, op operation) error {
	opCtx, unlock := l.lock(ctx)
	s, _, err := l.beginTransition(opCtx, streamID, role, op)
	if err == nil {
		err = l.saveStream(opCtx, s)
	}
	unlock()
	if err != nil {
		return err
	}

	typ := stream.EventPaused
	if op == opResume {
		typ = stream.EventResumed
	}
	l.logger.Debug("stream "+string(typ), "stream_id", streamID, "role", role, "status", s.Status)
	l.emit(ctx, stream.NewEvent(typ, s, role, 0, l.ledgerNow()))
	return nil
}

// beginTransition loads the stream, checks the caller holds role for it and
// applies the status change for op. The record is not saved; prev is the
// record as loaded.
func (l *Ledger) beginTransition(ctx context.Context, streamID stream.ID, role auth.Role, op operation) (s, prev *stream.Stream, err error) {
	s, err = l.loadStream(ctx, streamID)
	if err != nil {
		return nil, nil, err
	}
	if err := l.authorizeFor(ctx, role, s); err != nil {
		return nil, nil, err
	}
	next, err := nextStatus(s.Status, op)
	if err != nil {
		return nil, nil, fmt.Errorf("stream %d: %w", streamID, err)
	}
	prev = s.Clone()
	s.Status = next
	return s, prev, nil
}

// authorizeFor resolves role to the identity that holds it for s.
func (l *Ledger) authorizeFor(ctx context.Context, role auth.Role, s *stream.Stream) error {
	switch role {
	case auth.RoleSender:
		return l.authorize(ctx, role, s.Sender)
	case auth.RoleRecipient:
		return l.authorize(ctx, role, s.Recipient)
	case auth.RoleAdmin:
		cfg, err := l.loadSettings(ctx)
		if err != nil {
			return err
		}
		return l.authorize(ctx, role, cfg.Admin)
	default:
		return fmt.Errorf("%w: unknown role %q", ErrUnauthorized, role)
	}
}
