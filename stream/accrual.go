package stream

import "github.com/xraph/streamledger/types"

// Accrued is the amount vested to the recipient at ledger time now,
// computed from the time formula alone. Status is ignored: a paused stream
// keeps accruing.
//
// The result is zero before the cliff, grows by RatePerSecond for every
// second between StartTime and min(now, EndTime), and is always within
// [0, DepositAmount]. A multiplication overflow clamps to the deposit.
func Accrued(s *Stream, now int64) types.Amount {
	if now < s.CliffTime {
		return 0
	}

	upper := min(now, s.EndTime)
	if upper <= s.StartTime {
		return 0
	}
	elapsed := upper - s.StartTime

	amount, ok := s.RatePerSecond.CheckedMul(elapsed)
	if !ok {
		return s.DepositAmount
	}
	return amount.Clamp(0, s.DepositAmount)
}

// AccruedAt applies the stream's status to Accrued. A completed stream has
// vested its whole deposit. A cancelled stream stops accruing at
// CancelledAt.
func (s *Stream) AccruedAt(now int64) types.Amount {
	switch s.Status {
	case StatusCompleted:
		return s.DepositAmount
	case StatusCancelled:
		if s.CancelledAt != nil && *s.CancelledAt < now {
			now = *s.CancelledAt
		}
	}
	return Accrued(s, now)
}

// Withdrawable is the vested amount not yet paid to the recipient.
func (s *Stream) Withdrawable(now int64) types.Amount {
	return (s.AccruedAt(now) - s.WithdrawnAmount).Max(0)
}

// Refundable is what returns to the sender if the stream is cancelled at now.
func (s *Stream) Refundable(now int64) types.Amount {
	return s.DepositAmount - Accrued(s, now)
}
