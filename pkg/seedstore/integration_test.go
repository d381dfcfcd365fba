//go:build integration

package seedstore

import (
	"context"
	"os"
	"testing"
)

const integrationPrefix = "seedstore:integration_test"

// testDBEnv returns the database URL for integration tests; skips the test if not set.
func testDBEnv(t *testing.T) string {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("seedstore:integration_test - DATABASE_URL not set, skipping")
	}
	return url
}

func TestReserve_Postgres(t *testing.T) {
	ctx := context.Background()
	pool, err := NewPool(ctx, testDBEnv(t))
	if err != nil {
		t.Fatalf("%s - NewPool: %v", integrationPrefix, err)
	}
	defer pool.Close()

	if err := RunMigrations(ctx, pool); err != nil {
		t.Fatalf("%s - RunMigrations: %v", integrationPrefix, err)
	}
	applied, err := MigrationStatus(ctx, pool)
	if err != nil || !applied {
		t.Fatalf("%s - MigrationStatus = (%v, %v)", integrationPrefix, applied, err)
	}

	store := NewStore(pool, func() int64 { return 1000 })
	const instance = "integration-test"
	if err := store.Reset(ctx, instance); err != nil {
		t.Fatalf("%s - Reset: %v", integrationPrefix, err)
	}
	defer store.Reset(ctx, instance)

	first, err := store.Reserve(ctx, instance, 50)
	if err != nil {
		t.Fatalf("%s - Reserve: %v", integrationPrefix, err)
	}
	second, err := store.Reserve(ctx, instance, 50)
	if err != nil {
		t.Fatalf("%s - Reserve: %v", integrationPrefix, err)
	}

	if first != 1000 || second != 1050 {
		t.Errorf("%s - reservations = %d, %d; want 1000, 1050", integrationPrefix, first, second)
	}
}
