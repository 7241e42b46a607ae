package e2e

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/alekseon/eav/internal/handlers"
	"github.com/alekseon/eav/internal/infrastructure/config"
	"github.com/alekseon/eav/internal/infrastructure/database"
	"github.com/alekseon/eav/internal/infrastructure/metrics"
	"github.com/alekseon/eav/internal/repositories/postgres"
	"github.com/alekseon/eav/internal/services"
	"github.com/alekseon/eav/pkg/cache/memorycache"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

const (
	bufSize = 1024 * 1024

	formEntityType     = "alekseon_custom_form_record"
	formAdditional     = "alekseon_custom_form_attribute"
	customerEntityType = "customer"
)

// E2ETestServer represents an E2E test server
type E2ETestServer struct {
	Server    *grpc.Server
	Client    *handlers.AttributeClient
	Collector *metrics.Collector
	Conn      *grpc.ClientConn
	DB        *sql.DB
	Listener  *bufconn.Listener
}

// SetupE2ETest wires the full stack against the test database.
// Two entity types share the attribute tables; only the form type has an additional table.
func SetupE2ETest(t *testing.T) *E2ETestServer {
	t.Helper()

	if err := config.InitConfig("test"); err != nil {
		t.Skipf("Skipping: failed to init config: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		t.Skipf("Skipping: test database not configured: %v", err)
	}

	pg, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		t.Skipf("Skipping: test database not reachable: %v", err)
	}

	projectRoot, err := config.FindProjectRoot()
	if err != nil {
		t.Fatalf("failed to find project root: %v", err)
	}
	if err := pg.RunMigrations(filepath.Join(projectRoot, "internal/infrastructure/database/migrations/postgres")); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	cleanupDatabase(t, pg.DB)
	seedStore(t, pg.DB, 1, "default")

	columnCache := memorycache.New(&memorycache.Config{MaxItems: 64, DefaultTTL: time.Minute})
	storeRepo := postgres.NewPostgresStoreRepository(pg.DB, nil, 0)

	formRepo := postgres.NewPostgresAttributeRepository(pg.DB, storeRepo, postgres.ResourceConfig{
		EntityTypeCode:  formEntityType,
		AdditionalTable: formAdditional,
	}, columnCache)
	customerRepo := postgres.NewPostgresAttributeRepository(pg.DB, storeRepo, postgres.ResourceConfig{
		EntityTypeCode: customerEntityType,
	}, columnCache)

	attributeService, err := services.NewAttributeService(formRepo, customerRepo)
	if err != nil {
		t.Fatalf("failed to create attribute service: %v", err)
	}

	collector := metrics.NewCollector()
	collector.RegisterCache("columns", columnCache)

	listener := bufconn.Listen(bufSize)
	server := grpc.NewServer(grpc.UnaryInterceptor(metrics.UnaryServerInterceptor(collector, nil)))
	handlers.RegisterAttributeServer(server, handlers.NewAttributeHandler(attributeService))

	go func() {
		if err := server.Serve(listener); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	conn, err := grpc.NewClient(
		"passthrough://bufconn",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("failed to create client connection: %v", err)
	}

	return &E2ETestServer{
		Server:    server,
		Client:    handlers.NewAttributeClient(conn),
		Collector: collector,
		Conn:      conn,
		DB:        pg.DB,
		Listener:  listener,
	}
}

// Teardown cleans up the E2E test environment
func (e *E2ETestServer) Teardown(t *testing.T) {
	t.Helper()

	if e.Conn != nil {
		e.Conn.Close()
	}
	if e.Server != nil {
		e.Server.Stop()
	}
	if e.Listener != nil {
		e.Listener.Close()
	}
	if e.DB != nil {
		cleanupDatabase(t, e.DB)
		e.DB.Close()
	}
}

// cleanupDatabase removes all data from test database
func cleanupDatabase(t *testing.T, db *sql.DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	queries := []string{
		fmt.Sprintf("DELETE FROM %s", postgres.AttributeOptionValueTable),
		fmt.Sprintf("DELETE FROM %s", postgres.AttributeOptionTable),
		fmt.Sprintf("DELETE FROM %s", formAdditional),
		fmt.Sprintf("DELETE FROM %s", postgres.AttributeTable),
		"DELETE FROM store WHERE store_id <> 0",
	}
	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			t.Logf("warning: cleanup failed (%s): %v", query, err)
		}
	}
}

func seedStore(t *testing.T, db *sql.DB, id int64, code string) {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO store (store_id, code, name, is_active) VALUES ($1, $2, $2, TRUE) ON CONFLICT (store_id) DO NOTHING`,
		id, code,
	)
	if err != nil {
		t.Fatalf("failed to seed store %d: %v", id, err)
	}
}
