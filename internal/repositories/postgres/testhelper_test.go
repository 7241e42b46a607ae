package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"

	"github.com/alekseon/eav/internal/infrastructure/config"
	"github.com/alekseon/eav/internal/infrastructure/database"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	containerOnce sync.Once
	containerCfg  *config.DatabaseConfig
	containerErr  error
)

// SetupTestDB creates a test database connection and runs migrations.
// It uses the configured test database and falls back to a disposable
// PostgreSQL container; the test is skipped when neither is available.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	pg, err := connectConfiguredDB()
	if err != nil {
		t.Logf("Configured test database unavailable (%v), trying a container", err)
		pg = connectContainerDB(t)
	}

	if err := pg.RunMigrations("../../../internal/infrastructure/database/migrations/postgres"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanTables(t, pg.DB)
	return pg.DB
}

func connectConfiguredDB() (*database.Postgres, error) {
	if err := config.InitConfig("test"); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return database.NewPostgres(&cfg.Database)
}

// connectContainerDB starts one container per test binary; the reaper removes it afterwards
func connectContainerDB(t *testing.T) *database.Postgres {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	containerOnce.Do(func() {
		ctx := context.Background()
		ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
			tcpostgres.WithDatabase("eav_test"),
			tcpostgres.WithUsername("eav"),
			tcpostgres.WithPassword("eav_test_password"),
			tcpostgres.BasicWaitStrategies(),
		)
		if err != nil {
			containerErr = err
			return
		}
		host, err := ctr.Host(ctx)
		if err != nil {
			containerErr = err
			return
		}
		port, err := ctr.MappedPort(ctx, "5432/tcp")
		if err != nil {
			containerErr = err
			return
		}
		containerCfg = &config.DatabaseConfig{
			Host:         host,
			Port:         port.Int(),
			User:         "eav",
			Password:     "eav_test_password",
			Database:     "eav_test",
			SSLMode:      "disable",
			MaxOpenConns: 5,
			MaxIdleConns: 2,
		}
	})
	if containerErr != nil {
		t.Skipf("Skipping: failed to start PostgreSQL container: %v", containerErr)
	}

	pg, err := database.NewPostgres(containerCfg)
	if err != nil {
		t.Skipf("Skipping: container database not reachable: %v", err)
	}
	return pg
}

// CleanupTestDB cleans up test data and closes the database connection
func CleanupTestDB(t *testing.T, db *sql.DB) {
	t.Helper()

	cleanTables(t, db)
	if err := db.Close(); err != nil {
		t.Logf("Warning: Failed to close database: %v", err)
	}
}

func cleanTables(t *testing.T, db *sql.DB) {
	t.Helper()

	tables := []string{
		AttributeOptionValueTable,
		AttributeOptionTable,
		"alekseon_custom_form_attribute",
		AttributeTable,
	}
	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("Warning: Failed to clean up table %s: %v", table, err)
		}
	}
	if _, err := db.Exec("DELETE FROM store WHERE store_id <> 0"); err != nil {
		t.Logf("Warning: Failed to clean up stores: %v", err)
	}
}

// seedStores inserts store views with the given IDs next to the admin store
func seedStores(t *testing.T, db *sql.DB, ids ...int64) {
	t.Helper()

	for _, id := range ids {
		_, err := db.Exec(
			`INSERT INTO store (store_id, code, name, is_active) VALUES ($1, $2, $3, TRUE)
			 ON CONFLICT (store_id) DO NOTHING`,
			id, fmt.Sprintf("store_%d", id), fmt.Sprintf("Store %d", id),
		)
		if err != nil {
			t.Fatalf("Failed to seed store %d: %v", id, err)
		}
	}
}
