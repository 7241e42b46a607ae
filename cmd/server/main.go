package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alekseon/eav/internal/handlers"
	infracache "github.com/alekseon/eav/internal/infrastructure/cache"
	"github.com/alekseon/eav/internal/infrastructure/config"
	"github.com/alekseon/eav/internal/infrastructure/database"
	"github.com/alekseon/eav/internal/infrastructure/metrics"
	"github.com/alekseon/eav/internal/repositories"
	"github.com/alekseon/eav/internal/repositories/postgres"
	"github.com/alekseon/eav/internal/services"
	"github.com/alekseon/eav/pkg/cache"
	"github.com/alekseon/eav/pkg/cache/memorycache"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

const defaultEnv = "dev"

func main() {
	env := os.Getenv("ENV")
	if env == "" {
		env = defaultEnv
	}

	if err := config.InitConfig(env); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pg, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Printf("Connected to database: %s@%s:%d/%s",
		cfg.Database.User,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Database)

	collector := metrics.NewCollector()
	exporter := metrics.NewPrometheusExporter(collector)

	// One cache per concern, each reported under its own name
	var columnCache, storeCache cache.Cache
	if cfg.Cache.Enabled {
		columnCache = memorycache.New(&memorycache.Config{MaxItems: cfg.Cache.MaxItems, DefaultTTL: cfg.Cache.TTL()})
		storeCache = memorycache.New(&memorycache.Config{MaxItems: 1, DefaultTTL: cfg.Cache.TTL()})
		collector.RegisterCache("columns", columnCache)
		collector.RegisterCache("stores", storeCache)
		log.Printf("Cache enabled: max %d items, TTL %s", cfg.Cache.MaxItems, cfg.Cache.TTL())
	}

	storeRepo := postgres.NewPostgresStoreRepository(pg.DB, storeCache, cfg.Cache.TTL())

	var watcher *infracache.StoreWatcher
	if storeCache != nil {
		watcher = infracache.NewStoreWatcher(cfg.Database.ConnectionString(), storeRepo,
			postgres.ColumnCacheInvalidator{Cache: columnCache})
		if err := watcher.Start(); err != nil {
			log.Printf("Store change notifications unavailable, relying on cache TTL: %v", err)
			watcher = nil
		}
	}

	repos := make([]repositories.AttributeRepository, 0, len(cfg.EAV.EntityTypes))
	for _, entityType := range cfg.EAV.EntityTypes {
		repos = append(repos, postgres.NewPostgresAttributeRepository(pg.DB, storeRepo, postgres.ResourceConfig{
			EntityTypeCode:  entityType,
			AdditionalTable: cfg.EAV.AdditionalTables[entityType],
		}, columnCache))
		if table, ok := cfg.EAV.AdditionalTables[entityType]; ok {
			log.Printf("Serving entity type %s (additional table %s)", entityType, table)
		} else {
			log.Printf("Serving entity type %s", entityType)
		}
	}

	attributeService, err := services.NewAttributeService(repos...)
	if err != nil {
		log.Fatalf("Failed to create attribute service: %v", err)
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(metrics.UnaryServerInterceptor(collector, exporter)))
	handlers.RegisterAttributeServer(grpcServer, handlers.NewAttributeHandler(attributeService))

	// Register reflection service (for grpcurl, etc.)
	reflection.Register(grpcServer)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Method(http.MethodGet, "/metrics", exporter.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pg.HealthCheck(); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("gRPC server listening on %s", addr)
		if err := grpcServer.Serve(listener); err != nil {
			return fmt.Errorf("gRPC server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Printf("Metrics server listening on %s", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Initiating graceful shutdown...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()

		select {
		case <-stopped:
			log.Println("gRPC server stopped gracefully")
		case <-shutdownCtx.Done():
			log.Println("Shutdown timeout exceeded, forcing stop")
			grpcServer.Stop()
		}
		return metricsServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("Server error: %v", err)
	}

	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			log.Printf("Error stopping store watcher: %v", err)
		}
	}
	if err := pg.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	}

	log.Println("Shutdown complete")
}
