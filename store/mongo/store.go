package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/streamledger"
	"github.com/xraph/streamledger/settings"
	ledgerstore "github.com/xraph/streamledger/store"
	"github.com/xraph/streamledger/stream"
	"github.com/xraph/streamledger/types"
)

// Collection name constants.
const (
	colSettings = "streamledger_settings"
	colStreams  = "streamledger_streams"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
//
// Stream creation runs in a multi-document transaction, so the server must
// be a replica set or sharded cluster.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all streamledger collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("streamledger/mongo: migrate %s indexes: %w", col, err)
		}
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
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return streamledger.ErrAlreadyInitialized
		}
		return fmt.Errorf("streamledger/mongo: init settings: %w", err)
	}
	return nil
}

func (s *Store) GetSettings(ctx context.Context) (*settings.Settings, error) {
	var m settingsModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": settingsKey}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, streamledger.ErrNotInitialized
		}
		return nil, fmt.Errorf("streamledger/mongo: get settings: %w", err)
	}
	return fromSettingsModel(&m), nil
}

func (s *Store) UpdateAdmin(ctx context.Context, admin types.Address, at time.Time) error {
	res, err := s.mdb.NewUpdate((*settingsModel)(nil)).
		Filter(bson.M{"_id": settingsKey}).
		Set("admin", admin.String()).
		Set("updated_at", at).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("streamledger/mongo: update admin: %w", err)
	}
	if res.MatchedCount() == 0 {
		return streamledger.ErrNotInitialized
	}
	return nil
}

func (s *Store) TouchSettings(ctx context.Context, expiresAt time.Time) error {
	res, err := s.mdb.NewUpdate((*settingsModel)(nil)).
		Filter(bson.M{"_id": settingsKey}).
		Set("expires_at", timePtr(expiresAt)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("streamledger/mongo: touch settings: %w", err)
	}
	if res.MatchedCount() == 0 {
		return streamledger.ErrNotInitialized
	}
	return nil
}

// ==================== Stream Store ====================

// CreateStreams increments the allocator and inserts the batch in one
// transaction.
func (s *Store) CreateStreams(ctx context.Context, streams []*stream.Stream) error {
	if len(streams) == 0 {
		return nil
	}

	sess, err := s.mdb.Collection(colSettings).Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("streamledger/mongo: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	res, err := sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		var alloc allocModel
		err := s.mdb.Collection(colSettings).FindOneAndUpdate(ctx,
			bson.M{"_id": settingsKey},
			bson.M{"$inc": bson.M{"next_stream_id": int64(len(streams))}},
			options.FindOneAndUpdate().SetReturnDocument(options.Before),
		).Decode(&alloc)
		if err != nil {
			if isNoDocuments(err) {
				return nil, streamledger.ErrNotInitialized
			}
			return nil, fmt.Errorf("streamledger/mongo: allocate stream ids: %w", err)
		}

		for i, st := range streams {
			m := toStreamModel(st)
			m.StreamID = alloc.NextStreamID + int64(i)
			if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					return nil, fmt.Errorf("%w: %w", streamledger.ErrConflict, err)
				}
				return nil, fmt.Errorf("streamledger/mongo: create stream: %w", err)
			}
		}
		return alloc.NextStreamID, nil
	})
	if err != nil {
		return err
	}

	first, ok := res.(int64)
	if !ok {
		return fmt.Errorf("streamledger/mongo: unexpected allocation result %T", res)
	}
	for i, st := range streams {
		st.ID = stream.ID(first) + stream.ID(i) //nolint:gosec // first is non-negative
	}
	return nil
}

func (s *Store) GetStream(ctx context.Context, streamID stream.ID) (*stream.Stream, error) {
	var m streamModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(streamID)}). //nolint:gosec // allocator never exceeds int64
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("stream %d: %w", streamID, streamledger.ErrStreamNotFound)
		}
		return nil, fmt.Errorf("streamledger/mongo: get stream: %w", err)
	}
	return fromStreamModel(&m), nil
}

func (s *Store) UpdateStream(ctx context.Context, st *stream.Stream) error {
	m := toStreamModel(st)

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.StreamID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("streamledger/mongo: update stream: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("stream %d: %w", st.ID, streamledger.ErrStreamNotFound)
	}
	return nil
}

func (s *Store) TouchStream(ctx context.Context, streamID stream.ID, expiresAt time.Time) error {
	res, err := s.mdb.NewUpdate((*streamModel)(nil)).
		Filter(bson.M{"_id": int64(streamID)}). //nolint:gosec // allocator never exceeds int64
		Set("expires_at", timePtr(expiresAt)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("streamledger/mongo: touch stream: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("stream %d: %w", streamID, streamledger.ErrStreamNotFound)
	}
	return nil
}

// PurgeExpired deletes what the TTL monitor has not reached yet.
func (s *Store) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*streamModel)(nil)).
		Filter(bson.M{"expires_at": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("streamledger/mongo: purge expired: %w", err)
	}
	return res.DeletedCount(), nil
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all streamledger collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colStreams: {
			{
				Keys:    bson.D{{Key: "expires_at", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(0),
			},
		},
	}
}
