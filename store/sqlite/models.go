package sqlite

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/streamledger/settings"
	"github.com/xraph/streamledger/stream"
	"github.com/xraph/streamledger/types"
)

// settingsKey is the primary key of the single configuration row.
const settingsKey = "global"

// ==================== Settings models ====================

type settingsModel struct {
	grove.BaseModel `grove:"table:streamledger_settings"`

	ID           string     `grove:"id,pk"`
	Asset        string     `grove:"asset"`
	Admin        string     `grove:"admin"`
	NextStreamID int64      `grove:"next_stream_id"`
	ExpiresAt    *time.Time `grove:"expires_at"`
	CreatedAt    time.Time  `grove:"created_at"`
	UpdatedAt    time.Time  `grove:"updated_at"`
}

func toSettingsModel(s *settings.Settings) *settingsModel {
	return &settingsModel{
		ID:           settingsKey,
		Asset:        s.Asset.String(),
		Admin:        s.Admin.String(),
		NextStreamID: int64(s.NextStreamID), //nolint:gosec // counter never exceeds int64
		ExpiresAt:    timePtr(s.ExpiresAt),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func fromSettingsModel(m *settingsModel) *settings.Settings {
	return &settings.Settings{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Asset:        types.Address(m.Asset),
		Admin:        types.Address(m.Admin),
		NextStreamID: uint64(m.NextStreamID), //nolint:gosec // column is non-negative
		ExpiresAt:    timeVal(m.ExpiresAt),
	}
}

// ==================== Stream models ====================

type streamModel struct {
	grove.BaseModel `grove:"table:streamledger_streams"`

	StreamID        int64      `grove:"stream_id,pk"`
	Sender          string     `grove:"sender"`
	Recipient       string     `grove:"recipient"`
	DepositAmount   int64      `grove:"deposit_amount"`
	RatePerSecond   int64      `grove:"rate_per_second"`
	StartTime       int64      `grove:"start_time"`
	CliffTime       int64      `grove:"cliff_time"`
	EndTime         int64      `grove:"end_time"`
	WithdrawnAmount int64      `grove:"withdrawn_amount"`
	Status          string     `grove:"status"`
	CancelledAt     *int64     `grove:"cancelled_at"`
	ExpiresAt       *time.Time `grove:"expires_at"`
	CreatedAt       time.Time  `grove:"created_at"`
	UpdatedAt       time.Time  `grove:"updated_at"`
}

func toStreamModel(s *stream.Stream) *streamModel {
	return &streamModel{
		StreamID:        int64(s.ID), //nolint:gosec // allocator never exceeds int64
		Sender:          s.Sender.String(),
		Recipient:       s.Recipient.String(),
		DepositAmount:   int64(s.DepositAmount),
		RatePerSecond:   int64(s.RatePerSecond),
		StartTime:       s.StartTime,
		CliffTime:       s.CliffTime,
		EndTime:         s.EndTime,
		WithdrawnAmount: int64(s.WithdrawnAmount),
		Status:          string(s.Status),
		CancelledAt:     s.CancelledAt,
		ExpiresAt:       timePtr(s.ExpiresAt),
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func fromStreamModel(m *streamModel) *stream.Stream {
	return &stream.Stream{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:              stream.ID(m.StreamID), //nolint:gosec // column is non-negative
		Sender:          types.Address(m.Sender),
		Recipient:       types.Address(m.Recipient),
		DepositAmount:   types.Amount(m.DepositAmount),
		RatePerSecond:   types.Amount(m.RatePerSecond),
		StartTime:       m.StartTime,
		CliffTime:       m.CliffTime,
		EndTime:         m.EndTime,
		WithdrawnAmount: types.Amount(m.WithdrawnAmount),
		Status:          stream.Status(m.Status),
		CancelledAt:     m.CancelledAt,
		ExpiresAt:       timeVal(m.ExpiresAt),
	}
}

// ==================== Helpers ====================

// timePtr normalises to UTC so expires_at compares correctly as text.
func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	t = t.UTC()
	return &t
}

func timeVal(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
