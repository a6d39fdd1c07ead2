package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/streamledger"
	"github.com/xraph/streamledger/settings"
	ledgerstore "github.com/xraph/streamledger/store"
	"github.com/xraph/streamledger/stream"
	"github.com/xraph/streamledger/types"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables, indexes and triggers using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("streamledger/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("streamledger/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Settings Store ====================

func (s *Store) InitSettings(ctx context.Context, cfg *settings.Settings) error {
	m := toSettingsModel(cfg)
	res, err := s.sdb.NewInsert(m).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("streamledger/sqlite: init settings: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return streamledger.ErrAlreadyInitialized
	}
	return nil
}

func (s *Store) GetSettings(ctx context.Context) (*settings.Settings, error) {
	m := new(settingsModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", settingsKey).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, streamledger.ErrNotInitialized
		}
		return nil, fmt.Errorf("streamledger/sqlite: get settings: %w", err)
	}
	return fromSettingsModel(m), nil
}

func (s *Store) UpdateAdmin(ctx context.Context, admin types.Address, at time.Time) error {
	res, err := s.sdb.NewUpdate((*settingsModel)(nil)).
		Set("admin = ?", admin.String()).
		Set("updated_at = ?", at).
		Where("id = ?", settingsKey).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("streamledger/sqlite: update admin: %w", err)
	}
	return requireRow(res, streamledger.ErrNotInitialized)
}

func (s *Store) TouchSettings(ctx context.Context, expiresAt time.Time) error {
	res, err := s.sdb.NewUpdate((*settingsModel)(nil)).
		Set("expires_at = ?", timePtr(expiresAt)).
		Where("id = ?", settingsKey).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("streamledger/sqlite: touch settings: %w", err)
	}
	return requireRow(res, streamledger.ErrNotInitialized)
}

// ==================== Stream Store ====================

// CreateStreams inserts the batch under IDs read from the allocator. The
// streamledger_streams_alloc trigger advances the allocator inside the
// same statement; a writer that raced us on the same IDs hits the primary
// key and gets ErrConflict.
func (s *Store) CreateStreams(ctx context.Context, streams []*stream.Stream) error {
	if len(streams) == 0 {
		return nil
	}

	cfg, err := s.GetSettings(ctx)
	if err != nil {
		return err
	}

	first := stream.ID(cfg.NextStreamID)
	models := make([]streamModel, len(streams))
	for i, st := range streams {
		m := toStreamModel(st)
		m.StreamID = int64(first) + int64(i) //nolint:gosec // allocator never exceeds int64
		models[i] = *m
	}

	if _, err := s.sdb.NewInsert(&models).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %w", streamledger.ErrConflict, err)
		}
		return fmt.Errorf("streamledger/sqlite: create streams: %w", err)
	}

	for i, st := range streams {
		st.ID = first + stream.ID(i)
	}
	return nil
}

func (s *Store) GetStream(ctx context.Context, streamID stream.ID) (*stream.Stream, error) {
	m := new(streamModel)
	err := s.sdb.NewSelect(m).
		Where("stream_id = ?", int64(streamID)). //nolint:gosec // allocator never exceeds int64
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("stream %d: %w", streamID, streamledger.ErrStreamNotFound)
		}
		return nil, fmt.Errorf("streamledger/sqlite: get stream: %w", err)
	}
	return fromStreamModel(m), nil
}

func (s *Store) UpdateStream(ctx context.Context, st *stream.Stream) error {
	m := toStreamModel(st)
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("streamledger/sqlite: update stream: %w", err)
	}
	return requireRow(res, fmt.Errorf("stream %d: %w", st.ID, streamledger.ErrStreamNotFound))
}

func (s *Store) TouchStream(ctx context.Context, streamID stream.ID, expiresAt time.Time) error {
	res, err := s.sdb.NewUpdate((*streamModel)(nil)).
		Set("expires_at = ?", timePtr(expiresAt)).
		Where("stream_id = ?", int64(streamID)). //nolint:gosec // allocator never exceeds int64
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("streamledger/sqlite: touch stream: %w", err)
	}
	return requireRow(res, fmt.Errorf("stream %d: %w", streamID, streamledger.ErrStreamNotFound))
}

func (s *Store) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.sdb.NewDelete((*streamModel)(nil)).
		Where("expires_at IS NOT NULL AND expires_at < ?", before.UTC()).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("streamledger/sqlite: purge expired: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return rows, nil
}

// ==================== Helpers ====================

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

// requireRow returns notFound when res touched no rows.
func requireRow(res rowsAffecter, notFound error) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
