// Package stream defines the stream record, its status set, and the pure
// accrual calculator that every settlement decision is derived from.
package stream

import (
	"strconv"
	"time"

	"github.com/xraph/streamledger/types"
)

// ID is the sequential identifier handed out by the ledger's allocator.
// Identifiers start at zero and are never reused.
type ID uint64

// String implements fmt.Stringer.
func (i ID) String() string { return strconv.FormatUint(uint64(i), 10) }

// Status is the lifecycle state of a stream.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// Stream is a single value stream from a sender to a recipient.
//
// StartTime, CliffTime, EndTime and CancelledAt are ledger timestamps in
// seconds. Only WithdrawnAmount, Status and CancelledAt change after
// creation; ExpiresAt and the Entity timestamps are storage bookkeeping.
type Stream struct {
	types.Entity
	ID              ID            `json:"id"`
	Sender          types.Address `json:"sender"`
	Recipient       types.Address `json:"recipient"`
	DepositAmount   types.Amount  `json:"deposit_amount"`
	RatePerSecond   types.Amount  `json:"rate_per_second"`
	StartTime       int64         `json:"start_time"`
	CliffTime       int64         `json:"cliff_time"`
	EndTime         int64         `json:"end_time"`
	WithdrawnAmount types.Amount  `json:"withdrawn_amount"`
	Status          Status        `json:"status"`
	CancelledAt     *int64        `json:"cancelled_at,omitempty"`
	ExpiresAt       time.Time     `json:"expires_at"`
}

// Params are the caller-supplied fields of a new stream.
type Params struct {
	Sender    types.Address `json:"sender"`
	Recipient types.Address `json:"recipient"`
	Deposit   types.Amount  `json:"deposit"`
	Rate      types.Amount  `json:"rate_per_second"`
	StartTime int64         `json:"start_time"`
	CliffTime int64         `json:"cliff_time"`
	EndTime   int64         `json:"end_time"`
}

// Duration is EndTime - StartTime in seconds.
func (p Params) Duration() int64 { return p.EndTime - p.StartTime }

// New builds an Active stream from validated params. The ID is left for
// the store to assign.
func New(p Params, now time.Time) *Stream {
	return &Stream{
		Entity:        types.NewEntity(now),
		Sender:        p.Sender,
		Recipient:     p.Recipient,
		DepositAmount: p.Deposit,
		RatePerSecond: p.Rate,
		StartTime:     p.StartTime,
		CliffTime:     p.CliffTime,
		EndTime:       p.EndTime,
		Status:        StatusActive,
	}
}

// Clone returns a deep copy of s.
func (s *Stream) Clone() *Stream {
	if s == nil {
		return nil
	}
	c := *s
	if s.CancelledAt != nil {
		at := *s.CancelledAt
		c.CancelledAt = &at
	}
	return &c
}

// Remaining is the part of the deposit not yet paid to the recipient.
func (s *Stream) Remaining() types.Amount {
	return s.DepositAmount - s.WithdrawnAmount
}
