package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alekseon/eav/internal/entities"
	"github.com/alekseon/eav/internal/repositories"
	"github.com/alekseon/eav/pkg/cache"
	"github.com/lib/pq"
)

// Table names of the shared EAV schema
const (
	AttributeTable            = "alekseon_eav_attribute"
	AttributeOptionTable      = "alekseon_eav_attribute_option"
	AttributeOptionValueTable = "alekseon_eav_attribute_option_value"

	DefaultBackendTablePrefix              = "alekseon_eav_entity"
	DefaultAdditionalTableIDField          = "id"
	DefaultAdditionalTableAttributeIDField = "attribute_id"
)

const attributeColumns = `id, entity_type_code, attribute_code, frontend_label, frontend_input,
	backend_type, is_user_defined, is_required, sort_order, default_value, note`

// loadableFields are the main table columns an attribute can be looked up by
var loadableFields = map[string]bool{
	"id":              true,
	"attribute_code":  true,
	"frontend_label":  true,
	"frontend_input":  true,
	"backend_type":    true,
	"is_user_defined": true,
	"is_required":     true,
	"sort_order":      true,
	"default_value":   true,
}

// ResourceConfig binds an attribute repository to one entity type
type ResourceConfig struct {
	EntityTypeCode     string
	BackendTablePrefix string

	// AdditionalTable is optional; empty disables additional attribute data
	AdditionalTable                 string
	AdditionalTableIDField          string
	AdditionalTableAttributeIDField string
}

// PostgresAttributeRepository implements AttributeRepository using PostgreSQL
type PostgresAttributeRepository struct {
	db     *sql.DB
	stores repositories.StoreRepository
	cfg    ResourceConfig
	cache  cache.Cache
}

// NewPostgresAttributeRepository creates a new PostgreSQL attribute repository.
// columnCache may be nil, in which case table columns are described on every save.
func NewPostgresAttributeRepository(db *sql.DB, stores repositories.StoreRepository, cfg ResourceConfig, columnCache cache.Cache) *PostgresAttributeRepository {
	if cfg.BackendTablePrefix == "" {
		cfg.BackendTablePrefix = DefaultBackendTablePrefix
	}
	if cfg.AdditionalTableIDField == "" {
		cfg.AdditionalTableIDField = DefaultAdditionalTableIDField
	}
	if cfg.AdditionalTableAttributeIDField == "" {
		cfg.AdditionalTableAttributeIDField = DefaultAdditionalTableAttributeIDField
	}
	return &PostgresAttributeRepository{
		db:     db,
		stores: stores,
		cfg:    cfg,
		cache:  columnCache,
	}
}

var _ repositories.AttributeRepository = (*PostgresAttributeRepository)(nil)

// EntityTypeCode returns the entity type the repository is bound to
func (r *PostgresAttributeRepository) EntityTypeCode() string {
	return r.cfg.EntityTypeCode
}

// BackendTablePrefix returns the prefix of the entity value tables
func (r *PostgresAttributeRepository) BackendTablePrefix() string {
	return r.cfg.BackendTablePrefix
}

// MainTable returns the shared attribute table
func (r *PostgresAttributeRepository) MainTable() string {
	return AttributeTable
}

// AdditionalTable returns the additional attribute table, false when none is configured
func (r *PostgresAttributeRepository) AdditionalTable() (string, bool) {
	return r.cfg.AdditionalTable, r.cfg.AdditionalTable != ""
}

// AdditionalTableIDFieldName returns the primary key column of the additional table
func (r *PostgresAttributeRepository) AdditionalTableIDFieldName() string {
	return r.cfg.AdditionalTableIDField
}

// AdditionalTableAttributeIDFieldName returns the column of the additional table referencing the attribute
func (r *PostgresAttributeRepository) AdditionalTableAttributeIDFieldName() string {
	return r.cfg.AdditionalTableAttributeIDField
}

// OptionTable returns the attribute option table
func (r *PostgresAttributeRepository) OptionTable() string {
	return AttributeOptionTable
}

// OptionValueTable returns the option label table
func (r *PostgresAttributeRepository) OptionValueTable() string {
	return AttributeOptionValueTable
}

// Save creates or updates an attribute, its additional data and its options in one transaction
func (r *PostgresAttributeRepository) Save(ctx context.Context, attr *entities.Attribute) error {
	if err := r.beforeSave(attr); err != nil {
		return err
	}

	isNew := attr.IsNew()
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if isNew {
			if err := r.insert(ctx, tx, attr); err != nil {
				return err
			}
		} else if err := r.update(ctx, tx, attr); err != nil {
			return err
		}
		return r.afterSave(ctx, tx, attr)
	})
	if err != nil && isNew {
		attr.ID = 0
	}
	return err
}

// beforeSave stamps the entity type and fills defaults of new attributes
func (r *PostgresAttributeRepository) beforeSave(attr *entities.Attribute) error {
	attr.EntityTypeCode = r.cfg.EntityTypeCode
	if !attr.IsNew() {
		return nil
	}

	if attr.FrontendInput == "" {
		attr.FrontendInput = entities.InputTypeText
	}
	if attr.BackendType == "" {
		inputType, err := attr.InputTypeModel()
		if err != nil {
			return err
		}
		attr.BackendType = inputType.DefaultBackendType()
	}
	if attr.IsUserDefined == nil {
		attr.IsUserDefined = entities.Bool(true)
	}
	return nil
}

func (r *PostgresAttributeRepository) insert(ctx context.Context, q querier, attr *entities.Attribute) error {
	query := `
		INSERT INTO alekseon_eav_attribute (
			entity_type_code, attribute_code, frontend_label, frontend_input, backend_type,
			is_user_defined, is_required, sort_order, default_value, note
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := q.QueryRowContext(ctx, query,
		attr.EntityTypeCode, attr.AttributeCode, attr.FrontendLabel, attr.FrontendInput, attr.BackendType,
		attr.UserDefined(), attr.IsRequired, attr.SortOrder, attr.DefaultValue, attr.Note,
	).Scan(&attr.ID)
	if err != nil {
		return fmt.Errorf("failed to insert attribute: %w", err)
	}
	return nil
}

func (r *PostgresAttributeRepository) update(ctx context.Context, q querier, attr *entities.Attribute) error {
	var userDefined sql.NullBool
	if attr.IsUserDefined != nil {
		userDefined = sql.NullBool{Bool: *attr.IsUserDefined, Valid: true}
	}

	query := `
		UPDATE alekseon_eav_attribute
		SET attribute_code = $1, frontend_label = $2, frontend_input = $3, backend_type = $4,
			is_user_defined = COALESCE($5, is_user_defined), is_required = $6, sort_order = $7,
			default_value = $8, note = $9
		WHERE id = $10 AND entity_type_code = $11
	`
	result, err := q.ExecContext(ctx, query,
		attr.AttributeCode, attr.FrontendLabel, attr.FrontendInput, attr.BackendType,
		userDefined, attr.IsRequired, attr.SortOrder, attr.DefaultValue, attr.Note,
		attr.ID, attr.EntityTypeCode,
	)
	if err != nil {
		return fmt.Errorf("failed to update attribute: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", repositories.ErrAttributeNotFound, attr.ID)
	}
	return nil
}

// afterSave writes additional data and, for list-type inputs, the submitted options
func (r *PostgresAttributeRepository) afterSave(ctx context.Context, tx *sql.Tx, attr *entities.Attribute) error {
	if _, ok := r.AdditionalTable(); ok {
		if err := r.saveAdditionalData(ctx, tx, attr); err != nil {
			return err
		}
	}

	inputType, err := attr.InputTypeModel()
	if err != nil {
		return err
	}
	if inputType.CanManageOptions() {
		if err := r.processAttributeOptions(ctx, tx, attr); err != nil {
			return err
		}
	}
	return nil
}

// Load retrieves an attribute by ID
func (r *PostgresAttributeRepository) Load(ctx context.Context, id int64) (*entities.Attribute, error) {
	return r.LoadBy(ctx, "id", id)
}

// LoadBy retrieves an attribute by a main table column.
// The lookup is always scoped to the repository's entity type.
func (r *PostgresAttributeRepository) LoadBy(ctx context.Context, field string, value interface{}) (*entities.Attribute, error) {
	query, err := r.loadSelect(field)
	if err != nil {
		return nil, err
	}

	attr := &entities.Attribute{}
	var userDefined bool
	err = r.db.QueryRowContext(ctx, query, value, r.cfg.EntityTypeCode).Scan(
		&attr.ID, &attr.EntityTypeCode, &attr.AttributeCode, &attr.FrontendLabel, &attr.FrontendInput,
		&attr.BackendType, &userDefined, &attr.IsRequired, &attr.SortOrder, &attr.DefaultValue, &attr.Note,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s = %v", repositories.ErrAttributeNotFound, field, value)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load attribute: %w", err)
	}
	attr.IsUserDefined = entities.Bool(userDefined)

	if err := r.afterLoad(ctx, attr); err != nil {
		return nil, err
	}
	return attr, nil
}

// loadSelect builds the lookup query for field; $1 is the field value, $2 the entity type code
func (r *PostgresAttributeRepository) loadSelect(field string) (string, error) {
	if !loadableFields[field] {
		return "", fmt.Errorf("cannot load attribute by field %q", field)
	}
	return fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s.%s = $1 AND entity_type_code = $2",
		attributeColumns,
		pq.QuoteIdentifier(AttributeTable),
		pq.QuoteIdentifier(AttributeTable),
		pq.QuoteIdentifier(field),
	), nil
}

func (r *PostgresAttributeRepository) afterLoad(ctx context.Context, attr *entities.Attribute) error {
	if _, ok := r.AdditionalTable(); !ok {
		return nil
	}
	return r.loadAdditionalData(ctx, r.db, attr)
}

// Delete removes an attribute of the repository's entity type and its additional data.
// Deleting a missing attribute is not an error. Options are left in place.
func (r *PostgresAttributeRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `DELETE FROM alekseon_eav_attribute WHERE id = $1 AND entity_type_code = $2`
		if _, err := tx.ExecContext(ctx, query, id, r.cfg.EntityTypeCode); err != nil {
			return fmt.Errorf("failed to delete attribute: %w", err)
		}
		return r.afterDelete(ctx, tx, id)
	})
}

func (r *PostgresAttributeRepository) afterDelete(ctx context.Context, q querier, id int64) error {
	table, ok := r.AdditionalTable()
	if !ok {
		return nil
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1",
		pq.QuoteIdentifier(table),
		pq.QuoteIdentifier(r.cfg.AdditionalTableAttributeIDField),
	)
	if _, err := q.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete additional attribute data: %w", err)
	}
	return nil
}
