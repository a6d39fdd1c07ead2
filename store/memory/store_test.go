package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/streamledger"
	"github.com/xraph/streamledger/settings"
	"github.com/xraph/streamledger/store/memory"
	"github.com/xraph/streamledger/stream"
	"github.com/xraph/streamledger/types"
)

var epoch = time.Unix(1_700_000_000, 0).UTC()

func newSettings() *settings.Settings {
	return &settings.Settings{
		Entity: types.NewEntity(epoch),
		Asset:  "USDC",
		Admin:  "GADMIN",
	}
}

func newStream() *stream.Stream {
	return stream.New(stream.Params{
		Sender:    "GSENDER",
		Recipient: "GRECIPIENT",
		Deposit:   1000,
		Rate:      1,
		EndTime:   1000,
	}, epoch)
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	_, err := s.GetSettings(ctx)
	assert.ErrorIs(t, err, streamledger.ErrNotInitialized)
	assert.ErrorIs(t, s.UpdateAdmin(ctx, "GNEW", epoch), streamledger.ErrNotInitialized)
	assert.ErrorIs(t, s.TouchSettings(ctx, epoch), streamledger.ErrNotInitialized)

	require.NoError(t, s.InitSettings(ctx, newSettings()))
	assert.ErrorIs(t, s.InitSettings(ctx, newSettings()), streamledger.ErrAlreadyInitialized)

	later := epoch.Add(time.Hour)
	require.NoError(t, s.UpdateAdmin(ctx, "GNEW", later))
	require.NoError(t, s.TouchSettings(ctx, later.Add(24*time.Hour)))

	cfg, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.Address("USDC"), cfg.Asset)
	assert.Equal(t, types.Address("GNEW"), cfg.Admin)
	assert.Equal(t, later, cfg.UpdatedAt)
	assert.Equal(t, later.Add(24*time.Hour), cfg.ExpiresAt)

	// Mutating the returned copy does not leak into the store.
	cfg.Admin = "GMUTATED"
	again, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.Address("GNEW"), again.Admin)
}

func TestCreateStreams(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	err := s.CreateStreams(ctx, []*stream.Stream{newStream()})
	require.ErrorIs(t, err, streamledger.ErrNotInitialized)

	require.NoError(t, s.InitSettings(ctx, newSettings()))

	first := []*stream.Stream{newStream()}
	require.NoError(t, s.CreateStreams(ctx, first))
	assert.Equal(t, stream.ID(0), first[0].ID)

	batch := []*stream.Stream{newStream(), newStream(), newStream()}
	require.NoError(t, s.CreateStreams(ctx, batch))
	for i, st := range batch {
		assert.Equal(t, stream.ID(i+1), st.ID)
	}

	cfg, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), cfg.NextStreamID)

	require.NoError(t, s.CreateStreams(ctx, nil))
	cfg, err = s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), cfg.NextStreamID, "empty batch must not advance the allocator")
}

func TestStreamRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.InitSettings(ctx, newSettings()))

	st := newStream()
	require.NoError(t, s.CreateStreams(ctx, []*stream.Stream{st}))

	got, err := s.GetStream(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, st.DepositAmount, got.DepositAmount)
	assert.Equal(t, stream.StatusActive, got.Status)

	// Returned records are copies.
	got.WithdrawnAmount = 500
	fresh, err := s.GetStream(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(0), fresh.WithdrawnAmount)

	require.NoError(t, s.UpdateStream(ctx, got))
	fresh, err = s.GetStream(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(500), fresh.WithdrawnAmount)

	_, err = s.GetStream(ctx, 99)
	assert.ErrorIs(t, err, streamledger.ErrStreamNotFound)

	missing := newStream()
	missing.ID = 99
	assert.ErrorIs(t, s.UpdateStream(ctx, missing), streamledger.ErrStreamNotFound)
	assert.ErrorIs(t, s.TouchStream(ctx, 99, epoch), streamledger.ErrStreamNotFound)
}

func TestPurgeExpired(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.InitSettings(ctx, newSettings()))

	stale, fresh, forever := newStream(), newStream(), newStream()
	stale.ExpiresAt = epoch.Add(time.Hour)
	fresh.ExpiresAt = epoch.Add(48 * time.Hour)
	require.NoError(t, s.CreateStreams(ctx, []*stream.Stream{stale, fresh, forever}))

	n, err := s.PurgeExpired(ctx, epoch.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.GetStream(ctx, stale.ID)
	assert.ErrorIs(t, err, streamledger.ErrStreamNotFound)
	_, err = s.GetStream(ctx, fresh.ID)
	assert.NoError(t, err)
	_, err = s.GetStream(ctx, forever.ID)
	assert.NoError(t, err)

	// Touching pushes the expiry out of the purge window.
	require.NoError(t, s.TouchStream(ctx, fresh.ID, epoch.Add(96*time.Hour)))
	n, err = s.PurgeExpired(ctx, epoch.Add(72*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	// Purged IDs are never reused.
	next := []*stream.Stream{newStream()}
	require.NoError(t, s.CreateStreams(ctx, next))
	assert.Equal(t, stream.ID(3), next[0].ID)
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Ping(ctx), streamledger.ErrStoreClosed)
	assert.ErrorIs(t, s.InitSettings(ctx, newSettings()), streamledger.ErrStoreClosed)
}
