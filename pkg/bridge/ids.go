package bridge

import (
	"context"
	"math/rand/v2"
)

// MaxRandomSeed bounds the default randomized correlation id base.
const MaxRandomSeed = 2_000_000_000

// SeedSource supplies the first correlation id of a bridge instance.
type SeedSource interface {
	Seed(ctx context.Context) (int64, error)
}

// SeedFunc adapts a function to SeedSource.
type SeedFunc func(ctx context.Context) (int64, error)

// Seed calls f.
func (f SeedFunc) Seed(ctx context.Context) (int64, error) {
	return f(ctx)
}

// RandomSeed picks a pseudo-random base in [0, MaxRandomSeed), so ids from a
// reloaded instance are unlikely to collide with ids the host still tracks.
type RandomSeed struct{}

// Seed returns a random base.
func (RandomSeed) Seed(_ context.Context) (int64, error) {
	return rand.Int64N(MaxRandomSeed), nil
}

// FixedSeed always starts at the same id. Useful in tests.
type FixedSeed int64

// Seed returns s.
func (s FixedSeed) Seed(_ context.Context) (int64, error) {
	return int64(s), nil
}

// BlockSeedSource is a SeedSource that only reserves BlockSize ids past the
// seed. The bridge warns once its ids leave that block.
type BlockSeedSource interface {
	SeedSource
	BlockSize() int64
}

type idGenerator struct {
	next int64
	// limit is the first id outside the reserved block; 0 means unbounded.
	limit int64
}

// nextID returns the current counter, then increments it. exhausted is true
// only for the first id past the reserved block.
func (g *idGenerator) nextID() (id int64, exhausted bool) {
	id = g.next
	g.next++
	return id, g.limit > 0 && id == g.limit
}
