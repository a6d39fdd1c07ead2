package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/streamledger"
	"github.com/xraph/streamledger/settings"
	ledgerstore "github.com/xraph/streamledger/store"
	"github.com/xraph/streamledger/stream"
	"github.com/xraph/streamledger/types"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("streamledger/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("streamledger/postgres: migration failed: %w", err)
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
	res, err := s.pg.NewInsert(m).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("streamledger/postgres: init settings: %w", err)
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
	err := s.pg.NewSelect(m).
		Where("id = $1", settingsKey).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, streamledger.ErrNotInitialized
		}
		return nil, fmt.Errorf("streamledger/postgres: get settings: %w", err)
	}
	return fromSettingsModel(m), nil
}

func (s *Store) UpdateAdmin(ctx context.Context, admin types.Address, at time.Time) error {
	res, err := s.pg.NewUpdate((*settingsModel)(nil)).
		Set("admin = $1", admin.String()).
		Set("updated_at = $2", at).
		Where("id = $3", settingsKey).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("streamledger/postgres: update admin: %w", err)
	}
	return requireRow(res, streamledger.ErrNotInitialized)
}

func (s *Store) TouchSettings(ctx context.Context, expiresAt time.Time) error {
	res, err := s.pg.NewUpdate((*settingsModel)(nil)).
		Set("expires_at = $1", timePtr(expiresAt)).
		Where("id = $2", settingsKey).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("streamledger/postgres: touch settings: %w", err)
	}
	return requireRow(res, streamledger.ErrNotInitialized)
}

// ==================== Stream Store ====================

// streamColumns are the columns written on insert, in VALUES order after ord.
var streamColumns = []string{
	"sender", "recipient", "deposit_amount", "rate_per_second",
	"start_time", "cliff_time", "end_time", "status",
	"expires_at", "created_at", "updated_at",
}

var streamColumnTypes = []string{
	"text", "text", "bigint", "bigint",
	"bigint", "bigint", "bigint", "text",
	"timestamptz", "timestamptz", "timestamptz",
}

// CreateStreams advances the allocator and inserts the batch in one
// statement, so a failed insert leaves the counter untouched.
func (s *Store) CreateStreams(ctx context.Context, streams []*stream.Stream) error {
	if len(streams) == 0 {
		return nil
	}

	args := []any{int64(len(streams))}
	rows := make([]string, len(streams))
	for i, st := range streams {
		m := toStreamModel(st)
		vals := []any{
			m.Sender, m.Recipient, m.DepositAmount, m.RatePerSecond,
			m.StartTime, m.CliffTime, m.EndTime, m.Status,
			m.ExpiresAt, m.CreatedAt, m.UpdatedAt,
		}
		args = append(args, int64(i))
		ph := []string{fmt.Sprintf("$%d::bigint", len(args))}
		for j, v := range vals {
			args = append(args, v)
			ph = append(ph, fmt.Sprintf("$%d::%s", len(args), streamColumnTypes[j]))
		}
		rows[i] = "(" + strings.Join(ph, ", ") + ")"
	}

	cols := strings.Join(streamColumns, ", ")
	query := `
		WITH alloc AS (
			UPDATE streamledger_settings
			SET next_stream_id = next_stream_id + $1::bigint
			WHERE id = '` + settingsKey + `'
			RETURNING next_stream_id - $1::bigint AS first_id
		), ins AS (
			INSERT INTO streamledger_streams (stream_id, ` + cols + `)
			SELECT alloc.first_id + v.ord, v.` + strings.Join(streamColumns, ", v.") + `
			FROM alloc, (VALUES ` + strings.Join(rows, ", ") + `) AS v(ord, ` + cols + `)
			RETURNING stream_id
		)
		SELECT COALESCE(MIN(stream_id), -1) FROM ins`

	var first int64
	if err := s.pg.NewRaw(query, args...).Scan(ctx, &first); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %w", streamledger.ErrConflict, err)
		}
		return fmt.Errorf("streamledger/postgres: create streams: %w", err)
	}
	if first < 0 {
		return streamledger.ErrNotInitialized
	}

	for i, st := range streams {
		st.ID = stream.ID(first) + stream.ID(i) //nolint:gosec // first is non-negative
	}
	return nil
}

func (s *Store) GetStream(ctx context.Context, streamID stream.ID) (*stream.Stream, error) {
	m := new(streamModel)
	err := s.pg.NewSelect(m).
		Where("stream_id = $1", int64(streamID)). //nolint:gosec // allocator never exceeds int64
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("stream %d: %w", streamID, streamledger.ErrStreamNotFound)
		}
		return nil, fmt.Errorf("streamledger/postgres: get stream: %w", err)
	}
	return fromStreamModel(m), nil
}

func (s *Store) UpdateStream(ctx context.Context, st *stream.Stream) error {
	m := toStreamModel(st)
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("streamledger/postgres: update stream: %w", err)
	}
	return requireRow(res, fmt.Errorf("stream %d: %w", st.ID, streamledger.ErrStreamNotFound))
}

func (s *Store) TouchStream(ctx context.Context, streamID stream.ID, expiresAt time.Time) error {
	res, err := s.pg.NewUpdate((*streamModel)(nil)).
		Set("expires_at = $1", timePtr(expiresAt)).
		Where("stream_id = $2", int64(streamID)). //nolint:gosec // allocator never exceeds int64
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("streamledger/postgres: touch stream: %w", err)
	}
	return requireRow(res, fmt.Errorf("stream %d: %w", streamID, streamledger.ErrStreamNotFound))
}

func (s *Store) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.pg.NewDelete((*streamModel)(nil)).
		Where("expires_at IS NOT NULL AND expires_at < $1", before).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("streamledger/postgres: purge expired: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return rows, nil
}

// ==================== Helpers ====================

// rowsAffecter is the part of an Exec result requireRow needs.
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

// isUniqueViolation reports a duplicate key error (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key")
}
