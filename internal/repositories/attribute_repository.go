package repositories

import (
	"context"
	"errors"

	"github.com/alekseon/eav/internal/entities"
)

// ErrAttributeNotFound is returned when no attribute of the repository's entity type matches
var ErrAttributeNotFound = errors.New("attribute not found")

// AttributeRepository defines the interface for attribute data access.
// Every repository is bound to one entity type code.
type AttributeRepository interface {
	// EntityTypeCode returns the entity type the repository is bound to
	EntityTypeCode() string

	// Save creates or updates an attribute together with its additional data and options
	Save(ctx context.Context, attr *entities.Attribute) error

	// Load retrieves an attribute by ID
	Load(ctx context.Context, id int64) (*entities.Attribute, error)

	// LoadBy retrieves an attribute by a main table column, e.g. "attribute_code"
	LoadBy(ctx context.Context, field string, value interface{}) (*entities.Attribute, error)

	// Delete removes an attribute and its additional data
	Delete(ctx context.Context, id int64) error

	// OptionValues retrieves the options of an attribute ordered by sort order,
	// each with its per-store labels
	OptionValues(ctx context.Context, attributeID int64) ([]*entities.AttributeOption, error)
}
