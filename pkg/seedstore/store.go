package seedstore

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const storeLogPrefix = "seedstore:store"

// DefaultBlock is the number of ids reserved per bridge instance start.
const DefaultBlock int64 = 1 << 20

// maxBase bounds the random start of an instance's first reservation.
const maxBase = 2_000_000_000

// DBTX is the subset of *pgxpool.Pool the store needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store reserves id blocks per instance name.
type Store struct {
	db   DBTX
	base func() int64
}

// NewStore creates a Store. base picks the start of an instance's first
// block; nil uses a random value below 2e9.
func NewStore(db DBTX, base func() int64) *Store {
	if base == nil {
		base = func() int64 { return rand.Int64N(maxBase) }
	}
	return &Store{db: db, base: base}
}

const reserveSQL = `
INSERT INTO bridge_id_seeds (instance, next_id, updated_at)
VALUES ($1, $2::bigint + $3::bigint, now())
ON CONFLICT (instance) DO UPDATE
    SET next_id = bridge_id_seeds.next_id + $3::bigint, updated_at = now()
RETURNING next_id - $3::bigint`

// Reserve atomically claims [start, start+block) for instance and returns start.
func (s *Store) Reserve(ctx context.Context, instance string, block int64) (int64, error) {
	if instance == "" {
		return 0, fmt.Errorf("%s - instance name is required", storeLogPrefix)
	}
	if block <= 0 {
		block = DefaultBlock
	}

	var start int64
	if err := s.db.QueryRow(ctx, reserveSQL, instance, s.base(), block).Scan(&start); err != nil {
		return 0, fmt.Errorf("%s - failed to reserve ids for %s: %w", storeLogPrefix, instance, err)
	}

	slog.Info(fmt.Sprintf("%s - Reserved ids [%d, %d) for %s", storeLogPrefix, start, start+block, instance))
	return start, nil
}

// Reset forgets an instance so its next reservation starts from a fresh base.
func (s *Store) Reset(ctx context.Context, instance string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM bridge_id_seeds WHERE instance = $1`, instance); err != nil {
		return fmt.Errorf("%s - failed to reset %s: %w", storeLogPrefix, instance, err)
	}
	return nil
}

// Source seeds a bridge from a reserved block. It satisfies bridge.SeedSource.
type Source struct {
	Store    *Store
	Instance string
	Block    int64
}

// Seed reserves a new block and returns its first id.
func (s Source) Seed(ctx context.Context) (int64, error) {
	return s.Store.Reserve(ctx, s.Instance, s.Block)
}

// BlockSize is the number of ids Seed reserves.
func (s Source) BlockSize() int64 {
	if s.Block <= 0 {
		return DefaultBlock
	}
	return s.Block
}
