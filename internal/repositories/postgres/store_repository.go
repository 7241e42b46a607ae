package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alekseon/eav/internal/entities"
	"github.com/alekseon/eav/internal/repositories"
	"github.com/alekseon/eav/pkg/cache"
)

// StoresCacheKey is the cache key of the active store list
const StoresCacheKey = "stores:active"

// PostgresStoreRepository implements StoreRepository using PostgreSQL
type PostgresStoreRepository struct {
	db    *sql.DB
	cache cache.Cache
	ttl   time.Duration
}

// NewPostgresStoreRepository creates a new PostgreSQL store repository.
// storeCache may be nil to always read from the database.
func NewPostgresStoreRepository(db *sql.DB, storeCache cache.Cache, ttl time.Duration) *PostgresStoreRepository {
	return &PostgresStoreRepository{db: db, cache: storeCache, ttl: ttl}
}

var _ repositories.StoreRepository = (*PostgresStoreRepository)(nil)

// GetStores returns active stores ordered by ID
func (r *PostgresStoreRepository) GetStores(ctx context.Context, withDefault bool) ([]*entities.Store, error) {
	stores, err := r.activeStores(ctx)
	if err != nil {
		return nil, err
	}
	return filterStores(stores, withDefault), nil
}

// Invalidate drops the cached store list
func (r *PostgresStoreRepository) Invalidate(ctx context.Context) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Delete(ctx, StoresCacheKey)
}

func (r *PostgresStoreRepository) activeStores(ctx context.Context) ([]*entities.Store, error) {
	if r.cache != nil {
		if cached, ok := r.cache.Get(ctx, StoresCacheKey); ok {
			return cached.([]*entities.Store), nil
		}
	}

	query := `
		SELECT store_id, code, name, is_active
		FROM store
		WHERE is_active
		ORDER BY store_id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read stores: %w", err)
	}
	defer rows.Close()

	var stores []*entities.Store
	for rows.Next() {
		s := &entities.Store{}
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan store: %w", err)
		}
		stores = append(stores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stores: %w", err)
	}

	if r.cache != nil {
		_ = r.cache.Set(ctx, StoresCacheKey, stores, r.ttl)
	}
	return stores, nil
}

// filterStores returns a new slice, leaving the cached one untouched
func filterStores(stores []*entities.Store, withDefault bool) []*entities.Store {
	result := make([]*entities.Store, 0, len(stores))
	for _, s := range stores {
		if !withDefault && s.IsDefault() {
			continue
		}
		result = append(result, s)
	}
	return result
}
