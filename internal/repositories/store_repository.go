package repositories

import (
	"context"

	"github.com/alekseon/eav/internal/entities"
)

// StoreRepository enumerates store views
type StoreRepository interface {
	// GetStores returns active stores ordered by ID.
	// withDefault includes the admin store (ID 0).
	GetStores(ctx context.Context, withDefault bool) ([]*entities.Store, error)
}
