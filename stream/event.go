package stream

import (
	"time"

	"github.com/xraph/streamledger/auth"
	"github.com/xraph/streamledger/id"
	"github.com/xraph/streamledger/types"
)

// EventType names a lifecycle transition.
type EventType string

const (
	EventCreated   EventType = "created"
	EventPaused    EventType = "paused"
	EventResumed   EventType = "resumed"
	EventCancelled EventType = "cancelled"
	EventWithdrew  EventType = "withdrew"
	EventCompleted EventType = "completed"
)

// Event describes one committed lifecycle transition. Events are delivered
// to plugins after the record is saved; they are not persisted by the
// ledger.
type Event struct {
	ID        id.EventID    `json:"id"`
	Type      EventType     `json:"type"`
	StreamID  ID            `json:"stream_id"`
	Role      auth.Role     `json:"role"`
	Sender    types.Address `json:"sender"`
	Recipient types.Address `json:"recipient"`

	// Amount is the deposit for created, the payout for withdrew and
	// completed, and the refund for cancelled.
	Amount   types.Amount  `json:"amount"`
	Status   Status        `json:"status"`
	Transfer id.TransferID `json:"transfer,omitempty"`

	// LedgerTime is the ledger clock in seconds; EmittedAt is wall time.
	LedgerTime int64     `json:"ledger_time"`
	EmittedAt  time.Time `json:"emitted_at"`
}

// NewEvent snapshots s into an event of the given type.
func NewEvent(typ EventType, s *Stream, role auth.Role, amount types.Amount, ledgerTime int64) *Event {
	return &Event{
		ID:         id.NewEventID(),
		Type:       typ,
		StreamID:   s.ID,
		Role:       role,
		Sender:     s.Sender,
		Recipient:  s.Recipient,
		Amount:     amount,
		Status:     s.Status,
		LedgerTime: ledgerTime,
		EmittedAt:  time.Now().UTC(),
	}
}
