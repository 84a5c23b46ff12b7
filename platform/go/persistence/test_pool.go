package persistence

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// mustTestPool provisions a Postgres instance for store tests and applies the
// embedded schema DDL. TEST_DATABASE_URL short-circuits container startup and
// points the tests at an externally managed database; otherwise a disposable
// postgres:16-alpine container is started and terminated with the test.
func mustTestPool(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping persistence integration test in short mode")
	}

	ctx := context.Background()

	connString, terminate := testConnString(t, ctx)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		terminate()
		t.Fatalf("create test pool: %v", err)
	}

	if err := Bootstrap(ctx, pool); err != nil {
		pool.Close()
		terminate()
		t.Fatalf("bootstrap schema: %v", err)
	}

	cleanup := func() {
		pool.Close()
		terminate()
	}

	return pool, cleanup
}

func testConnString(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()

	if url, ok := os.LookupEnv("TEST_DATABASE_URL"); ok && url != "" {
		return url, func() {}
	}

	startCtx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	pgContainer, err := postgres.Run(startCtx,
		"postgres:16-alpine",
		postgres.WithDatabase("vcp"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp").WithStartupTimeout(2*time.Minute)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connString, err := pgContainer.ConnectionString(startCtx, "sslmode=disable")
	if err != nil {
		_ = pgContainer.Terminate(context.Background())
		t.Fatalf("resolve container conn string: %v", err)
	}

	return connString, func() {
		_ = pgContainer.Terminate(context.Background())
	}
}
