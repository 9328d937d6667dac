package dbtest

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"tracker/migrations"
	"tracker/src/database"

	"github.com/jackc/pgx/v5/pgxpool"
)

const envTestDatabaseURL = "TEST_DATABASE_URL"

var (
	testDB  *pgxpool.Pool
	setupMu sync.Mutex
)

// SetupTestDB migrates and connects to the database named by TEST_DATABASE_URL, skipping the test when it
// is not set. Tables are truncated before the pool is handed out.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv(envTestDatabaseURL)
	if dsn == "" {
		t.Skipf("%s not set, skipping database test", envTestDatabaseURL)
	}

	setupMu.Lock()
	defer setupMu.Unlock()

	if testDB == nil {
		if err := migrations.Up(dsn); err != nil {
			t.Fatalf("Failed to migrate test database: %v", err)
		}
		pool, err := database.Connect(context.Background(), dsn, 5)
		if err != nil {
			t.Fatalf("Failed to connect to test database: %v", err)
		}
		testDB = pool
	}

	TruncateTables(t, testDB)
	return testDB
}

// TruncateTables empties every ledger table.
func TruncateTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if pool == nil {
		t.Fatal("Database connection not initialized")
	}

	tables := []string{
		"ticker_data",
		"transactions",
		"portfolio",
		"tickers",
	}

	for _, table := range tables {
		_, err := pool.Exec(context.Background(), fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			t.Fatalf("Failed to truncate table %s: %v", table, err)
		}
	}
}
