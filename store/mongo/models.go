package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/streamledger/settings"
	"github.com/xraph/streamledger/stream"
	"github.com/xraph/streamledger/types"
)

// settingsKey is the _id of the single configuration document.
const settingsKey = "global"

// ==================== Settings models ====================

type settingsModel struct {
	grove.BaseModel `grove:"table:streamledger_settings"`

	ID           string     `grove:"id,pk"          bson:"_id"`
	Asset        string     `grove:"asset"          bson:"asset"`
	Admin        string     `grove:"admin"          bson:"admin"`
	NextStreamID int64      `grove:"next_stream_id" bson:"next_stream_id"`
	ExpiresAt    *time.Time `grove:"expires_at"     bson:"expires_at,omitempty"`
	CreatedAt    time.Time  `grove:"created_at"     bson:"created_at"`
	UpdatedAt    time.Time  `grove:"updated_at"     bson:"updated_at"`
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
			CreatedAt: m.CreatedAt.UTC(),
			UpdatedAt: m.UpdatedAt.UTC(),
		},
		Asset:        types.Address(m.Asset),
		Admin:        types.Address(m.Admin),
		NextStreamID: uint64(m.NextStreamID), //nolint:gosec // field is non-negative
		ExpiresAt:    timeVal(m.ExpiresAt),
	}
}

// allocModel is the projection read back from the allocator increment.
type allocModel struct {
	NextStreamID int64 `bson:"next_stream_id"`
}

// ==================== Stream models ====================

type streamModel struct {
	grove.BaseModel `grove:"table:streamledger_streams"`

	StreamID        int64      `grove:"stream_id,pk"     bson:"_id"`
	Sender          string     `grove:"sender"           bson:"sender"`
	Recipient       string     `grove:"recipient"        bson:"recipient"`
	DepositAmount   int64      `grove:"deposit_amount"   bson:"deposit_amount"`
	RatePerSecond   int64      `grove:"rate_per_second"  bson:"rate_per_second"`
	StartTime       int64      `grove:"start_time"       bson:"start_time"`
	CliffTime       int64      `grove:"cliff_time"       bson:"cliff_time"`
	EndTime         int64      `grove:"end_time"         bson:"end_time"`
	WithdrawnAmount int64      `grove:"withdrawn_amount" bson:"withdrawn_amount"`
	Status          string     `grove:"status"           bson:"status"`
	CancelledAt     *int64     `grove:"cancelled_at"     bson:"cancelled_at,omitempty"`
	ExpiresAt       *time.Time `grove:"expires_at"       bson:"expires_at,omitempty"`
	CreatedAt       time.Time  `grove:"created_at"       bson:"created_at"`
	UpdatedAt       time.Time  `grove:"updated_at"       bson:"updated_at"`
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
			CreatedAt: m.CreatedAt.UTC(),
			UpdatedAt: m.UpdatedAt.UTC(),
		},
		ID:              stream.ID(m.StreamID), //nolint:gosec // field is non-negative
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

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func timeVal(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
