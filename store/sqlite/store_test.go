package sqlite_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"

	"github.com/xraph/streamledger"
	"github.com/xraph/streamledger/auth"
	"github.com/xraph/streamledger/settings"
	"github.com/xraph/streamledger/store/sqlite"
	"github.com/xraph/streamledger/stream"
	tokenmem "github.com/xraph/streamledger/token/memory"
	"github.com/xraph/streamledger/types"
)

var epoch = time.Unix(1_700_000_000, 0).UTC()

// openStore returns a migrated store on a fresh database file.
func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	ctx := context.Background()

	sdb := sqlitedriver.New()
	require.NoError(t, sdb.Open(ctx, filepath.Join(t.TempDir(), "ledger.db")))

	db, err := grove.Open(sdb)
	require.NoError(t, err)

	s := sqlite.New(db)
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

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

func TestMigrateIsIdempotent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Ping(ctx))
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

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
	assert.Equal(t, uint64(0), cfg.NextStreamID)
	assert.True(t, cfg.CreatedAt.Equal(epoch), "created_at = %v", cfg.CreatedAt)
	assert.True(t, cfg.UpdatedAt.Equal(later), "updated_at = %v", cfg.UpdatedAt)
	assert.True(t, cfg.ExpiresAt.Equal(later.Add(24*time.Hour)), "expires_at = %v", cfg.ExpiresAt)
}

func TestCreateStreams(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

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

func TestCreateStreamsFailureKeepsAllocator(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.InitSettings(ctx, newSettings()))

	// The second row violates the schedule check, so the whole insert fails.
	bad := newStream()
	bad.StartTime, bad.EndTime = 500, 100
	require.Error(t, s.CreateStreams(ctx, []*stream.Stream{newStream(), bad}))

	cfg, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), cfg.NextStreamID)

	_, err = s.GetStream(ctx, 0)
	assert.ErrorIs(t, err, streamledger.ErrStreamNotFound)

	ok := []*stream.Stream{newStream()}
	require.NoError(t, s.CreateStreams(ctx, ok))
	assert.Equal(t, stream.ID(0), ok[0].ID)
}

func TestStreamRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.InitSettings(ctx, newSettings()))

	st := newStream()
	st.ExpiresAt = epoch.Add(time.Hour)
	require.NoError(t, s.CreateStreams(ctx, []*stream.Stream{st}))

	got, err := s.GetStream(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, st.DepositAmount, got.DepositAmount)
	assert.Equal(t, st.RatePerSecond, got.RatePerSecond)
	assert.Equal(t, st.EndTime, got.EndTime)
	assert.Equal(t, stream.StatusActive, got.Status)
	assert.Nil(t, got.CancelledAt)
	assert.True(t, got.CreatedAt.Equal(epoch), "created_at = %v", got.CreatedAt)
	assert.True(t, got.ExpiresAt.Equal(st.ExpiresAt), "expires_at = %v", got.ExpiresAt)

	cancelledAt := int64(400)
	got.WithdrawnAmount = 400
	got.Status = stream.StatusCancelled
	got.CancelledAt = &cancelledAt
	require.NoError(t, s.UpdateStream(ctx, got))

	fresh, err := s.GetStream(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(400), fresh.WithdrawnAmount)
	assert.Equal(t, stream.StatusCancelled, fresh.Status)
	require.NotNil(t, fresh.CancelledAt)
	assert.Equal(t, int64(400), *fresh.CancelledAt)

	_, err = s.GetStream(ctx, 99)
	assert.ErrorIs(t, err, streamledger.ErrStreamNotFound)

	missing := newStream()
	missing.ID = 99
	assert.ErrorIs(t, s.UpdateStream(ctx, missing), streamledger.ErrStreamNotFound)
	assert.ErrorIs(t, s.TouchStream(ctx, 99, epoch), streamledger.ErrStreamNotFound)
}

func TestPurgeExpired(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
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

func TestLedgerOverSQLite(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	vault := tokenmem.New()
	vault.Mint("USDC", "GSENDER", 5000)

	now := int64(0)
	l := streamledger.New(s, vault,
		streamledger.WithLogger(slog.New(slog.DiscardHandler)),
		streamledger.WithClock(func() time.Time { return time.Unix(now, 0) }),
		streamledger.WithLivenessTTL(24*time.Hour),
		streamledger.WithSweepInterval(0),
	)
	require.NoError(t, l.Start(ctx))
	t.Cleanup(func() { _ = l.Stop() })

	as := func(caller types.Address) context.Context { return auth.WithCaller(ctx, caller) }

	require.NoError(t, l.Init(ctx, "USDC", "GADMIN"))

	id, err := l.CreateStream(as("GSENDER"), stream.Params{
		Sender:    "GSENDER",
		Recipient: "GRECIPIENT",
		Deposit:   1000,
		Rate:      1,
		EndTime:   1000,
	})
	require.NoError(t, err)
	assert.Equal(t, stream.ID(0), id)

	now = 300
	paid, err := l.Withdraw(as("GRECIPIENT"), id)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(300), paid)

	require.NoError(t, l.PauseStream(as("GSENDER"), id))

	now = 600
	refund, err := l.CancelStream(as("GSENDER"), id)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(400), refund)

	paid, err = l.Withdraw(as("GRECIPIENT"), id)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(300), paid)

	st, err := l.GetStreamState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, stream.StatusCancelled, st.Status)
	assert.Equal(t, types.Amount(600), st.WithdrawnAmount)
	require.NotNil(t, st.CancelledAt)
	assert.Equal(t, int64(600), *st.CancelledAt)

	assert.Equal(t, types.Amount(600), vault.Balance("USDC", "GRECIPIENT"))
	assert.Equal(t, types.Amount(4400), vault.Balance("USDC", "GSENDER"))
	assert.Equal(t, types.Amount(0), vault.Custody("USDC"))

	// A day of silence lets the record lapse.
	now += int64((25 * time.Hour).Seconds())
	n, err := l.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.GetStream(ctx, id)
	assert.ErrorIs(t, err, streamledger.ErrStreamNotFound)
}
