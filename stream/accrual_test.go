package stream_test

import (
	"math"
	"testing"
	"time"

	"github.com/xraph/streamledger/stream"
	"github.com/xraph/streamledger/types"
)

func newStream(deposit, rate types.Amount, start, cliff, end int64) *stream.Stream {
	return stream.New(stream.Params{
		Sender:    "GSENDER",
		Recipient: "GRECIPIENT",
		Deposit:   deposit,
		Rate:      rate,
		StartTime: start,
		CliffTime: cliff,
		EndTime:   end,
	}, time.Unix(0, 0))
}

func TestAccrued(t *testing.T) {
	tests := []struct {
		name string
		s    *stream.Stream
		now  int64
		want types.Amount
	}{
		{"before start", newStream(1000, 1, 100, 100, 1100), 50, 0},
		{"at start", newStream(1000, 1, 0, 0, 1000), 0, 0},
		{"midway", newStream(1000, 1, 0, 0, 1000), 300, 300},
		{"at end", newStream(1000, 1, 0, 0, 1000), 1000, 1000},
		{"after end", newStream(1000, 1, 0, 0, 1000), 5000, 1000},
		{"one second before cliff", newStream(1000, 1, 0, 500, 1000), 499, 0},
		{"at cliff", newStream(1000, 1, 0, 500, 1000), 500, 500},
		{"excess deposit caps at rate times duration", newStream(2000, 1, 0, 0, 1000), 5000, 1000},
		{"overflow clamps to deposit", newStream(1000, math.MaxInt64/2, 0, 0, 10), 5, 1000},
		{"non-zero start", newStream(500, 5, 100, 100, 200), 150, 250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stream.Accrued(tt.s, tt.now); got != tt.want {
				t.Errorf("Accrued(now=%d) = %d, want %d", tt.now, got, tt.want)
			}
		})
	}
}

func TestAccruedIgnoresPause(t *testing.T) {
	s := newStream(1000, 1, 0, 0, 1000)
	s.Status = stream.StatusPaused

	if got := s.AccruedAt(400); got != 400 {
		t.Errorf("paused AccruedAt = %d, want 400", got)
	}
}

func TestAccruedAtCancelledFreezes(t *testing.T) {
	s := newStream(1000, 1, 0, 0, 1000)
	at := int64(250)
	s.Status = stream.StatusCancelled
	s.CancelledAt = &at

	for _, now := range []int64{250, 600, 10_000} {
		if got := s.AccruedAt(now); got != 250 {
			t.Errorf("AccruedAt(%d) = %d, want 250", now, got)
		}
	}
}

func TestAccruedAtCompleted(t *testing.T) {
	s := newStream(1000, 1, 0, 0, 1000)
	s.Status = stream.StatusCompleted
	s.WithdrawnAmount = 1000

	if got := s.AccruedAt(10); got != 1000 {
		t.Errorf("completed AccruedAt = %d, want deposit", got)
	}
	if got := s.Withdrawable(10); got != 0 {
		t.Errorf("completed Withdrawable = %d, want 0", got)
	}
}

func TestWithdrawable(t *testing.T) {
	s := newStream(1000, 1, 0, 0, 1000)
	s.WithdrawnAmount = 300
	if got := s.Remaining(); got != 700 {
		t.Fatalf("Remaining() = %d, want 700", got)
	}

	tests := []struct {
		now  int64
		want types.Amount
	}{
		{100, 0},
		{300, 0},
		{700, 400},
		{2000, 700},
	}
	for _, tt := range tests {
		if got := s.Withdrawable(tt.now); got != tt.want {
			t.Errorf("Withdrawable(%d) = %d, want %d", tt.now, got, tt.want)
		}
	}
}

func TestRefundable(t *testing.T) {
	s := newStream(1000, 1, 0, 0, 1000)

	if got := s.Refundable(300); got != 700 {
		t.Errorf("Refundable(300) = %d, want 700", got)
	}
	if got := s.Refundable(1000); got != 0 {
		t.Errorf("Refundable(1000) = %d, want 0", got)
	}

	excess := newStream(1500, 1, 0, 0, 1000)
	if got := excess.Refundable(2000); got != 500 {
		t.Errorf("excess Refundable after end = %d, want 500", got)
	}
}

func TestConservation(t *testing.T) {
	s := newStream(1000, 3, 0, 100, 300)
	for now := int64(0); now <= 400; now += 7 {
		accrued := stream.Accrued(s, now)
		if accrued+s.Refundable(now) != s.DepositAmount {
			t.Fatalf("now=%d: accrued %d + refund %d != deposit", now, accrued, s.Refundable(now))
		}
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		status   stream.Status
		terminal bool
		valid    bool
	}{
		{stream.StatusActive, false, true},
		{stream.StatusPaused, false, true},
		{stream.StatusCompleted, true, true},
		{stream.StatusCancelled, true, true},
		{"bogus", false, false},
	}
	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.terminal {
			t.Errorf("%s.IsTerminal() = %v", tt.status, got)
		}
		if got := tt.status.IsValid(); got != tt.valid {
			t.Errorf("%s.IsValid() = %v", tt.status, got)
		}
	}
}

func TestClone(t *testing.T) {
	s := newStream(1000, 1, 0, 0, 1000)
	at := int64(10)
	s.CancelledAt = &at

	c := s.Clone()
	*c.CancelledAt = 99
	c.WithdrawnAmount = 5

	if *s.CancelledAt != 10 || s.WithdrawnAmount != 0 {
		t.Error("Clone shares state with the original")
	}
	if (*stream.Stream)(nil).Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}
