package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/streamledger"
	"github.com/xraph/streamledger/settings"
	"github.com/xraph/streamledger/types"
)

type fixedRows struct {
	n   int64
	err error
}

func (r fixedRows) RowsAffected() (int64, error) { return r.n, r.err }

func TestRequireRow(t *testing.T) {
	assert.NoError(t, requireRow(fixedRows{n: 1}, streamledger.ErrStreamNotFound))
	assert.ErrorIs(t, requireRow(fixedRows{}, streamledger.ErrStreamNotFound), streamledger.ErrStreamNotFound)

	boom := errors.New("driver gone")
	assert.ErrorIs(t, requireRow(fixedRows{err: boom}, streamledger.ErrStreamNotFound), boom)
}

func TestErrorClassifiers(t *testing.T) {
	assert.True(t, isNoRows(fmt.Errorf("select: %w", sql.ErrNoRows)))
	assert.False(t, isNoRows(errors.New("timeout")))

	assert.True(t, isUniqueViolation(errors.New(`ERROR: duplicate key value violates unique constraint "streamledger_streams_pkey" (SQLSTATE 23505)`)))
	assert.False(t, isUniqueViolation(errors.New("ERROR: check constraint (SQLSTATE 23514)")))
}

func TestSettingsModelExpiry(t *testing.T) {
	epoch := time.Unix(1_700_000_000, 0)
	cfg := &settings.Settings{Entity: types.NewEntity(epoch), Asset: "USDC", Admin: "GADMIN"}

	m := toSettingsModel(cfg)
	assert.Equal(t, settingsKey, m.ID)
	assert.Nil(t, m.ExpiresAt, "zero expiry is stored as NULL")

	cfg.ExpiresAt = epoch.Add(time.Hour)
	m = toSettingsModel(cfg)
	require.NotNil(t, m.ExpiresAt)

	got := fromSettingsModel(m)
	assert.True(t, got.ExpiresAt.Equal(cfg.ExpiresAt))
	assert.Equal(t, time.UTC, got.ExpiresAt.Location())
}
